// Copyright 2024 by Jonathan Amsterdam.
// Use of this source code is governed by a license
// that can be found in the LICENSE file.

package stil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type levels struct {
	Pins       string  `stil:"sigref_test"`
	Voltage    float64 `stil:"voltage_test"`
	Current    Number  `stil:"current_test"`
	Shape      string  `stil:"string_test"`
	Count      int32   `stil:"integer_test"`
	Real       float32 `stil:"real_test"`
	Period     *Number `stil:"time_test"`
	Enabled    bool    `stil:"bool_test"`
	Which      Value   `stil:"enum_test"`
	Missing    *float64
	unexported int
	Ignored    string `stil:"-"`
}

func TestUnmarshalParams(t *testing.T) {
	var got levels
	if err := UnmarshalParams(allTypesParams, &got); err != nil {
		t.Fatal(err)
	}
	want := levels{
		Pins:    "AAA___SR71",
		Voltage: float64(float32(141.421356)),
		Current: Number{27.18281828459, "mA"},
		Shape:   "square",
		Count:   3141592,
		Real:    0.5403,
		Period:  &Number{16.6666, "ms"},
		Enabled: true,
		Which:   Text{"ALL"},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(levels{})); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}
}

func TestUnmarshalFieldNames(t *testing.T) {
	type thing struct {
		Lower       float64
		RequiredAWG bool
		Pins        Param
		DigLength   uint8 `stil:"Dig_Length"`
	}
	tst, err := Parse(exampleSource)
	if err != nil {
		t.Fatal(err)
	}
	var got thing
	if err := tst.Unmarshal(&got); err != nil {
		t.Fatal(err)
	}
	want := thing{
		Lower:       float64(float32(-1.3)),
		RequiredAWG: true,
		Pins:        Param{DirIn, TypeSigrefexpr, "Pins", Text{"Y___MVN03"}},
		DigLength:   20,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want, +got):\n%s", diff)
	}

	// Lower-cased first rune.
	type lower struct{ Count int }
	params := []Param{{DirIn, TypeInteger, "count", Number{3, ""}}}
	var l lower
	if err := UnmarshalParams(params, &l); err != nil {
		t.Fatal(err)
	}
	if l.Count != 3 {
		t.Errorf("got %d, want 3", l.Count)
	}
}

func TestUnmarshalLastWins(t *testing.T) {
	type s struct{ X int }
	params := []Param{
		{DirIn, TypeInteger, "X", Number{1, ""}},
		{DirIn, TypeInteger, "X", Number{2, ""}},
	}
	var got s
	if err := UnmarshalParams(params, &got); err != nil {
		t.Fatal(err)
	}
	if got.X != 2 {
		t.Errorf("got %d, want 2", got.X)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	type ints struct {
		I int8
		U uint
	}
	type strs struct{ S string }
	type bad struct{ M map[string]int }
	type dup struct {
		A int `stil:"x"`
		B int `stil:"x"`
	}

	num := func(name string, f float32) []Param {
		return []Param{{DirIn, TypeInteger, name, Number{f, ""}}}
	}
	for _, tc := range []struct {
		name   string
		params []Param
		p      any
		want   string
	}{
		{"not pointer", nil, ints{}, "must be pointer to struct, not stil.ints"},
		{"not struct", nil, new(int), "must be pointer to struct, not *int"},
		{"fraction", num("I", 1.5), &ints{}, "parameter I: cannot unmarshal non-integral number 1.5 into int8"},
		{"overflow", num("I", 300), &ints{}, "parameter I: 300 overflows int8"},
		{"negative", num("U", -1), &ints{}, "parameter U: -1 overflows uint"},
		{"kind", []Param{{DirIn, TypeBool, "S", Bool{true}}}, &strs{}, "parameter S: cannot unmarshal boolean into string"},
		{"number into string", num("S", 1), &strs{}, "parameter S: cannot unmarshal number into string"},
		{"missing value", []Param{{Name: "S"}}, &strs{}, "parameter S: cannot unmarshal missing value into string"},
		{"field type", nil, &bad{}, "field M of stil.bad: cannot unmarshal into type map[string]int"},
		{"duplicate", nil, &dup{}, `field B of stil.dup: duplicate parameter name "x"`},
	} {
		err := UnmarshalParams(tc.params, tc.p)
		matchError(t, tc.name, err, tc.want)
	}
}
