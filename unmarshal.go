// Copyright 2024 by Jonathan Amsterdam.
// Use of this source code is governed by a license
// that can be found in the LICENSE file.

package stil

import (
	"fmt"
	"math"
	"reflect"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Unmarshal calls [UnmarshalParams] on the parameters of t.
func (t *Test) Unmarshal(p any) error {
	return UnmarshalParams(t.Parameters, p)
}

// UnmarshalParams sets the fields of the struct pointed to by p from params.
//
// A parameter sets the field with the same name. The match can be exact, or
// with the first rune lower-cased. A field tag of the form
//
//	stil:"Dig_Length"
//
// gives the parameter name explicitly, and stil:"-" ignores the field.
// Parameters that match no field are ignored, so are fields that match
// no parameter. If two parameters have the same name, the last one wins.
//
// A field may be a string (from [Text]), a bool (from [Bool]), or a float
// or integer type (from [Number]; an integer field requires an integral value
// in range). The unit of a number is discarded; to keep it, use a field of
// type [Number]. A field of type [Value], [Text], [Number] or [Bool] receives
// the value itself, and a field of type [Param] receives the whole
// parameter. A field may also be a pointer to any of those types; the
// pointer is allocated only when a parameter matches.
func UnmarshalParams(params []Param, p any) error {
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("stil.UnmarshalParams: second argument must be pointer to struct, not %T", p)
	}
	rv = rv.Elem()
	prog, err := programFor(rv.Type())
	if err != nil {
		return fmt.Errorf("stil.UnmarshalParams: %w", err)
	}
	for _, prm := range params {
		op := prog.findOp(prm.Name)
		if op == nil {
			continue
		}
		if err := op(rv, prm); err != nil {
			return fmt.Errorf("stil.UnmarshalParams: parameter %s: %w", prm.Name, err)
		}
	}
	return nil
}

var programs sync.Map // reflect.Type to *program

func programFor(t reflect.Type) (*program, error) {
	if prog, ok := programs.Load(t); ok {
		return prog.(*program), nil
	}
	// We don't need locking, all programs for a type are identical.
	prog, err := compile(t)
	if err != nil {
		return nil, err
	}
	programs.Store(t, prog)
	return prog, nil
}

// program is a program for setting the fields of a struct type from parameters.
type program struct {
	t   reflect.Type
	ops map[string]op // key is parameter name
}

type op func(reflect.Value, Param) error

func (p *program) findOp(name string) op {
	if op, ok := p.ops[name]; ok {
		return op
	}
	return p.ops[lowerFirst(name)]
}

// t must be a struct type.
func compile(t reflect.Type) (*program, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}
	p := &program{
		t:   t,
		ops: map[string]op{},
	}
	// Names that came from a field name, not a tag. Only these are also
	// matched lower-cased.
	var untagged []string
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		name := sf.Name
		tag, tagged := sf.Tag.Lookup("stil")
		if tag == "-" {
			continue
		}
		if tag != "" {
			name = tag
		} else {
			tagged = false
		}
		setf := setFunc(sf.Type)
		if setf == nil {
			return nil, fmt.Errorf("field %s of %s: cannot unmarshal into type %s", sf.Name, t, sf.Type)
		}
		if _, ok := p.ops[name]; ok {
			return nil, fmt.Errorf("field %s of %s: duplicate parameter name %q", sf.Name, t, name)
		}
		p.ops[name] = func(rv reflect.Value, prm Param) error {
			fv, err := rv.FieldByIndexErr(sf.Index)
			if err != nil {
				return err
			}
			return setf(fv, prm)
		}
		if !tagged {
			untagged = append(untagged, name)
		}
	}
	for _, name := range untagged {
		if lf := lowerFirst(name); lf != name {
			if _, ok := p.ops[lf]; !ok {
				p.ops[lf] = p.ops[name]
			}
		}
	}
	return p, nil
}

func lowerFirst(s string) string {
	r, sz := utf8.DecodeRuneInString(s)
	if sz == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[sz:]
}

var (
	paramReflectType  = reflect.TypeFor[Param]()
	valueReflectType  = reflect.TypeFor[Value]()
	textReflectType   = reflect.TypeFor[Text]()
	numberReflectType = reflect.TypeFor[Number]()
	boolReflectType   = reflect.TypeFor[Bool]()
)

// setFunc returns a function that sets a value of type t from a Param,
// or nil if parameters can't be unmarshaled into t.
func setFunc(t reflect.Type) func(reflect.Value, Param) error {
	switch t {
	case paramReflectType:
		return func(rv reflect.Value, prm Param) error {
			rv.Set(reflect.ValueOf(prm))
			return nil
		}

	case valueReflectType:
		return func(rv reflect.Value, prm Param) error {
			if prm.Value == nil {
				rv.SetZero()
			} else {
				rv.Set(reflect.ValueOf(prm.Value))
			}
			return nil
		}

	case textReflectType, numberReflectType, boolReflectType:
		return func(rv reflect.Value, prm Param) error {
			v := reflect.ValueOf(prm.Value)
			if !v.IsValid() || v.Type() != t {
				return mismatch(prm.Value, t)
			}
			rv.Set(v)
			return nil
		}
	}

	switch t.Kind() {
	case reflect.String:
		return func(rv reflect.Value, prm Param) error {
			v, ok := prm.Value.(Text)
			if !ok {
				return mismatch(prm.Value, t)
			}
			rv.SetString(v.Data)
			return nil
		}

	case reflect.Bool:
		return func(rv reflect.Value, prm Param) error {
			v, ok := prm.Value.(Bool)
			if !ok {
				return mismatch(prm.Value, t)
			}
			rv.SetBool(v.Data)
			return nil
		}

	case reflect.Float32, reflect.Float64:
		return func(rv reflect.Value, prm Param) error {
			v, ok := prm.Value.(Number)
			if !ok {
				return mismatch(prm.Value, t)
			}
			rv.SetFloat(float64(v.Data))
			return nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(rv reflect.Value, prm Param) error {
			f, err := integral(prm.Value, t)
			if err != nil {
				return err
			}
			if f < math.MinInt64 || f >= math.MaxInt64 || rv.OverflowInt(int64(f)) {
				return fmt.Errorf("%s overflows %s", prm.Value, t)
			}
			rv.SetInt(int64(f))
			return nil
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(rv reflect.Value, prm Param) error {
			f, err := integral(prm.Value, t)
			if err != nil {
				return err
			}
			if f < 0 || f >= math.MaxUint64 || rv.OverflowUint(uint64(f)) {
				return fmt.Errorf("%s overflows %s", prm.Value, t)
			}
			rv.SetUint(uint64(f))
			return nil
		}

	case reflect.Pointer:
		setf := setFunc(t.Elem())
		if setf == nil {
			return nil
		}
		return func(rv reflect.Value, prm Param) error {
			pv := reflect.New(t.Elem())
			if err := setf(pv.Elem(), prm); err != nil {
				return err
			}
			rv.Set(pv)
			return nil
		}

	default:
		return nil
	}
}

// integral returns the value of a Number that has no fractional part.
func integral(v Value, t reflect.Type) (float64, error) {
	n, ok := v.(Number)
	if !ok {
		return 0, mismatch(v, t)
	}
	f := float64(n.Data)
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("cannot unmarshal non-integral number %s into %s", n, t)
	}
	return f, nil
}

func mismatch(v Value, t reflect.Type) error {
	return fmt.Errorf("cannot unmarshal %s into %s", valueKind(v), t)
}

func valueKind(v Value) string {
	switch v.(type) {
	case Text:
		return "text"
	case Number:
		return "number"
	case Bool:
		return "boolean"
	case nil:
		return "missing value"
	default:
		return fmt.Sprintf("%T", v)
	}
}
