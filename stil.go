// Copyright 2024 by Jonathan Amsterdam.
// Use of this source code is governed by a license
// that can be found in the LICENSE file.

// Package stil parses Test blocks written in a small dialect of the
// STIL/CTL test-interface description language.
//
// A Test block names a test, the library that implements it, and an
// ordered list of parameters:
//
//	Test TestExec_test {
//	  Library testLibrary;
//	  Parameters {
//	    In sigref_expr Pins = Y___MVN03;
//	    In Voltage Lower = -1.3V;
//	    In Bool RequiredAWG = TRUE;
//	  }
//	}
//
// Whitespace, newlines included, may appear between any two tokens.
// Keywords are case-sensitive, except for the boolean values true and false,
// which may be written in any case.
//
// Each parameter is a direction, a type, a name, an equals sign and a value.
// A value that starts like a number is a [Number], possibly followed by a unit
// such as V, mA or ms. Otherwise a value is a [Bool] if it is true or false,
// and [Text] if it is a run of letters, digits and underscores.
//
// Direction and type keywords that are not recognized are not errors:
// they become [DirUnknown] and [TypeUnknown].
//
// The Parse functions are safe for concurrent use.
package stil

import (
	"fmt"
	"math"
	"os"
	"strconv"
)

// A Test is a parsed Test block.
// Parameters is never empty and is in source order.
type Test struct {
	Name       string
	Library    string
	Parameters []Param
}

// Param looks up a parameter by name.
// If there is more than one, it returns the first.
func (t *Test) Param(name string) (Param, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// A Param is a single parameter declaration.
type Param struct {
	Direction ArgDirection
	Type      ParamType
	Name      string
	Value     Value
}

func (p Param) String() string {
	return fmt.Sprintf("%s %s %s = %s", p.Direction, p.Type, p.Name, p.Value)
}

// A Value is one of [Text], [Number] or [Bool].
type Value interface {
	String() string
	isValue()
}

// Text is a run of letters, digits and underscores.
type Text struct {
	Data string
}

// Number is a decimal number with an optional unit.
// Unit is empty if the number had no unit.
type Number struct {
	Data float32
	Unit string
}

// Bool is true or false.
type Bool struct {
	Data bool
}

func (Text) isValue()   {}
func (Number) isValue() {}
func (Bool) isValue()   {}

func (t Text) String() string { return t.Data }

func (n Number) String() string {
	return strconv.FormatFloat(float64(n.Data), 'f', -1, 32) + n.Unit
}

func (b Bool) String() string { return strconv.FormatBool(b.Data) }

// NumberSentinel is the value of a [Number] whose digits could not be
// converted to a float32, which happens only for magnitudes beyond the range
// of float32. It is the most negative finite float32, so it cannot be told
// apart from a literal with that value.
const NumberSentinel float32 = -math.MaxFloat32

// ArgDirection is the direction of a parameter.
type ArgDirection int

const (
	DirUnknown ArgDirection = iota
	DirIn
	DirOut
)

var directionKeywords = [...]string{
	DirUnknown: "Unknown",
	DirIn:      "In",
	DirOut:     "Out",
}

// String returns the keyword for d, or "Unknown".
func (d ArgDirection) String() string {
	if d < 0 || int(d) >= len(directionKeywords) {
		return fmt.Sprintf("ArgDirection(%d)", int(d))
	}
	return directionKeywords[d]
}

func lookupDirection(kw string) ArgDirection {
	switch kw {
	case "In":
		return DirIn
	case "Out":
		return DirOut
	default:
		return DirUnknown
	}
}

// ParamType is the declared type of a parameter.
type ParamType int

const (
	TypeUnknown ParamType = iota
	TypeSigrefexpr
	TypeVoltage
	TypeCurrent
	TypeString
	TypeInteger
	TypeReal
	TypeTime
	TypeBool
	TypeEnum
)

var paramTypeKeywords = [...]string{
	TypeUnknown:    "Unknown",
	TypeSigrefexpr: "sigref_expr",
	TypeVoltage:    "Voltage",
	TypeCurrent:    "Current",
	TypeString:     "String",
	TypeInteger:    "Integer",
	TypeReal:       "Real",
	TypeTime:       "Time",
	TypeBool:       "Bool",
	TypeEnum:       "Enum",
}

// String returns the keyword for t, or "Unknown".
func (t ParamType) String() string {
	if t < 0 || int(t) >= len(paramTypeKeywords) {
		return fmt.Sprintf("ParamType(%d)", int(t))
	}
	return paramTypeKeywords[t]
}

func lookupParamType(kw string) ParamType {
	switch kw {
	case "sigref_expr":
		return TypeSigrefexpr
	case "Voltage":
		return TypeVoltage
	case "Current":
		return TypeCurrent
	case "String":
		return TypeString
	case "Integer":
		return TypeInteger
	case "Real":
		return TypeReal
	case "Time":
		return TypeTime
	case "Bool":
		return TypeBool
	case "Enum":
		return TypeEnum
	default:
		return TypeUnknown
	}
}

// ParseFile calls [Parse] on the contents of the file.
// Parse errors include the filename.
func ParseFile(filename string) (*Test, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return parse(string(data), filename)
}

// Parse parses s, which must consist of a single Test block
// surrounded by optional whitespace.
// Use [ParseTest] to allow trailing input.
func Parse(s string) (*Test, error) {
	return parse(s, "")
}
