// Copyright 2024 by Jonathan Amsterdam.
// Use of this source code is governed by a license
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

const source = `Test A {
  Library B;
  Parameters {
    In sigref_expr Pins = Y___MVN03;
    In Voltage Lower = -1.3V;
    Out Bool Done = TRUE;
    In Integer Count = 20;
  }
}
`

var wantDoc = testDoc{
	Name:    "A",
	Library: "B",
	Parameters: []paramDoc{
		{Direction: "In", Type: "sigref_expr", Name: "Pins", Value: "Y___MVN03"},
		{Direction: "In", Type: "Voltage", Name: "Lower", Value: -1.3, Unit: "V"},
		{Direction: "Out", Type: "Bool", Name: "Done", Value: true},
		{Direction: "In", Type: "Integer", Name: "Count", Value: 20.0},
	},
}

// normalize makes integral numbers float64, as JSON decodes them
// and YAML may not.
func normalize(d *testDoc) {
	for i, p := range d.Parameters {
		if n, ok := p.Value.(int); ok {
			d.Parameters[i].Value = float64(n)
		}
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	// With nil, cobra would read os.Args.
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(fn, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestYAML(t *testing.T) {
	for _, tc := range []struct {
		name  string
		stdin string
		args  func() []string
	}{
		{"stdin", source, func() []string { return nil }},
		{"dash", source, func() []string { return []string{"-"} }},
		{"file", "", func() []string { return []string{writeFile(t, "a.stil", source)} }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, err := execute(t, tc.stdin, tc.args()...)
			if err != nil {
				t.Fatal(err)
			}
			var got testDoc
			if err := yaml.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("%v\n%s", err, out)
			}
			normalize(&got)
			if diff := cmp.Diff(wantDoc, got); diff != "" {
				t.Errorf("mismatch (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	out, err := execute(t, source, "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var got testDoc
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if diff := cmp.Diff(wantDoc, got); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestMultipleFiles(t *testing.T) {
	a := writeFile(t, "a.stil", source)
	b := writeFile(t, "b.stil", strings.Replace(source, "Test A", "Test Z", 1))
	out, err := execute(t, "", a, b)
	if err != nil {
		t.Fatal(err)
	}
	dec := yaml.NewDecoder(strings.NewReader(out))
	var names []string
	for {
		var d testDoc
		if err := dec.Decode(&d); err != nil {
			break
		}
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"A", "Z"}, names); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	bad := writeFile(t, "bad.stil", strings.Replace(source, "= 20", "=", 1))
	good := writeFile(t, "good.stil", source)

	// The good file is still printed.
	out, err := execute(t, "", bad, good)
	if err == nil {
		t.Fatal("got nil, want error")
	}
	if !strings.HasPrefix(err.Error(), bad+":7:") {
		t.Errorf("got %q, want prefix %q", err, bad+":7:")
	}
	if !strings.Contains(out, "name: A") {
		t.Errorf("output missing good file:\n%s", out)
	}

	_, err = execute(t, "Test A {", "-")
	if err == nil || !strings.HasPrefix(err.Error(), "<stdin>:1:9:") {
		t.Errorf("got %v, want <stdin>:1:9: prefix", err)
	}

	_, err = execute(t, source, "--format", "xml")
	if err == nil || !strings.Contains(err.Error(), `unknown format "xml"`) {
		t.Errorf("got %v, want unknown format", err)
	}
}
