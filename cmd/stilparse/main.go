// Copyright 2024 by Jonathan Amsterdam.
// Use of this source code is governed by a license
// that can be found in the LICENSE file.

// Stilparse parses files holding a STIL Test block and writes them
// to standard output as YAML or JSON.
//
// Usage:
//
//	stilparse [-f yaml|json] [file ...]
//
// With no files, or a file named "-", it reads standard input.
// Every file is parsed even if an earlier one fails; the exit status
// is 1 if any did.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jba/stil"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "stilparse [file ...]",
		Short: "Parse STIL Test blocks and print them as YAML or JSON",
		Long: `Stilparse parses each file, which must hold a single STIL Test block,
and writes the result to standard output. With no files, or a file
named "-", it reads standard input.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.InOrStdin(), cmd.OutOrStdout(), args, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", `output format, "yaml" or "json"`)
	return cmd
}

func run(stdin io.Reader, stdout io.Writer, args []string, format string) error {
	enc, err := newEncoder(stdout, format)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	var errs []error
	for _, name := range args {
		t, err := parseOne(stdin, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := enc.Encode(newTestDoc(t)); err != nil {
			return err
		}
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func parseOne(stdin io.Reader, name string) (*stil.Test, error) {
	if name != "-" {
		return stil.ParseFile(name)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, err
	}
	t, err := stil.Parse(string(data))
	var perr *stil.Error
	if errors.As(err, &perr) {
		perr.File = "<stdin>"
	}
	return t, err
}

type encoder interface {
	Encode(any) error
	Close() error
}

type jsonEncoder struct {
	*json.Encoder
}

func (jsonEncoder) Close() error { return nil }

func newEncoder(w io.Writer, format string) (encoder, error) {
	switch format {
	case "yaml":
		e := yaml.NewEncoder(w)
		e.SetIndent(2)
		return e, nil
	case "json":
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return jsonEncoder{e}, nil
	default:
		return nil, fmt.Errorf("unknown format %q; want yaml or json", format)
	}
}

// testDoc is the serialized form of a stil.Test.
type testDoc struct {
	Name       string     `yaml:"name" json:"name"`
	Library    string     `yaml:"library" json:"library"`
	Parameters []paramDoc `yaml:"parameters" json:"parameters"`
}

type paramDoc struct {
	Direction string `yaml:"direction" json:"direction"`
	Type      string `yaml:"type" json:"type"`
	Name      string `yaml:"name" json:"name"`
	Value     any    `yaml:"value" json:"value"`
	Unit      string `yaml:"unit,omitempty" json:"unit,omitempty"`
}

func newTestDoc(t *stil.Test) *testDoc {
	d := &testDoc{Name: t.Name, Library: t.Library}
	for _, p := range t.Parameters {
		pd := paramDoc{
			Direction: p.Direction.String(),
			Type:      p.Type.String(),
			Name:      p.Name,
		}
		switch v := p.Value.(type) {
		case stil.Text:
			pd.Value = v.Data
		case stil.Number:
			pd.Value = shortest(v.Data)
			pd.Unit = v.Unit
		case stil.Bool:
			pd.Value = v.Data
		}
		d.Parameters = append(d.Parameters, pd)
	}
	return d
}

// shortest returns the float64 with the fewest digits that rounds to f,
// so -1.3 prints as -1.3 rather than -1.2999999523162842.
func shortest(f float32) float64 {
	g, _ := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	return g
}
