// Copyright 2024 by Jonathan Amsterdam.
// Use of this source code is governed by a license
// that can be found in the LICENSE file.

package stil

import (
	"strconv"
	"strings"
	"unicode"
)

// Each exported ParseX function applies one grammar rule to a prefix of s.
// On success it returns the result and the rest of s, which the rule did not
// consume. On failure it returns an [*Error] and all of s.

// ParseTest parses a Test block at the start of s.
// Whitespace after the block is consumed.
func ParseTest(s string) (*Test, string, error) {
	return run(s, (*parser).test)
}

// ParseParameters parses one or more parameter declarations separated by
// semicolons. A semicolon after the last declaration is allowed.
func ParseParameters(s string) ([]Param, string, error) {
	return run(s, (*parser).parameters)
}

// ParseParameter parses a single parameter declaration, such as
//
//	In Voltage Lower = -1.3V
func ParseParameter(s string) (Param, string, error) {
	return run(s, (*parser).parameter)
}

// ParseValue parses a [Number], [Bool] or [Text], trying them in that order.
// Once an alternative has consumed input, a failure in it is not retried
// as the next one; so "1." and "tab" are errors.
func ParseValue(s string) (Value, string, error) {
	return run(s, (*parser).value)
}

// ParseNumber parses a [Number]: an optional minus sign, digits, an optional
// fraction, and an optional unit made of letters.
func ParseNumber(s string) (Number, string, error) {
	return run(s, (*parser).number)
}

// ParseText parses a [Text].
func ParseText(s string) (Text, string, error) {
	return run(s, (*parser).text)
}

// ParseBool parses "true" or "false" in any case.
func ParseBool(s string) (Bool, string, error) {
	return run(s, (*parser).boolean)
}

func run[T any](s string, rule func(*parser) (T, error)) (T, string, error) {
	p := newParser(s, "")
	v, err := rule(p)
	if err != nil {
		var zero T
		return zero, s, p.err()
	}
	return v, p.rest(), nil
}

// parse parses a complete input. The filename is only for display in errors.
func parse(s, filename string) (*Test, error) {
	p := newParser(s, filename)
	p.skipSpace()
	t, err := p.test()
	if err != nil {
		return nil, p.err()
	}
	if p.pos < len(p.src) {
		p.fail("end of input")
		return nil, p.err()
	}
	return t, nil
}

//	Test name { Library lib; Parameters { params } }
func (p *parser) test() (*Test, error) {
	if err := p.token("Test"); err != nil {
		return nil, err
	}
	name, err := p.text()
	if err != nil {
		return nil, err
	}
	if err := p.token("{"); err != nil {
		return nil, err
	}
	if err := p.token("Library"); err != nil {
		return nil, err
	}
	lib, err := p.text()
	if err != nil {
		return nil, err
	}
	if err := p.token(";"); err != nil {
		return nil, err
	}
	if err := p.token("Parameters"); err != nil {
		return nil, err
	}
	// parameter skips leading whitespace itself.
	if err := p.literal("{"); err != nil {
		return nil, err
	}
	params, err := p.parameters()
	if err != nil {
		return nil, err
	}
	if err := p.token("}"); err != nil {
		return nil, err
	}
	if err := p.token("}"); err != nil {
		return nil, err
	}
	return &Test{
		Name:       name.Data,
		Library:    lib.Data,
		Parameters: params,
	}, nil
}

// Ends after the last parameter or its semicolon, and any whitespace.
func (p *parser) parameters() ([]Param, error) {
	var params []Param
	for {
		prm, err := p.parameter()
		if err != nil {
			return nil, err
		}
		params = append(params, prm)
		if !p.accept(';') {
			return params, nil
		}
		p.skipSpace()
		// Only a letter can start another parameter. Anything else
		// means the last semicolon was a terminator.
		if r, _ := p.peek(); !unicode.IsLetter(r) {
			return params, nil
		}
	}
}

//	direction type name = value
func (p *parser) parameter() (Param, error) {
	p.skipSpace()
	dir, err := p.word("direction", unicode.IsLetter)
	if err != nil {
		return Param{}, err
	}
	typ, err := p.word("parameter type", isKeywordRune)
	if err != nil {
		return Param{}, err
	}
	name, err := p.word("parameter name", isKeywordRune)
	if err != nil {
		return Param{}, err
	}
	if err := p.token("="); err != nil {
		return Param{}, err
	}
	v, err := p.value()
	if err != nil {
		return Param{}, err
	}
	return Param{
		Direction: lookupDirection(dir),
		Type:      lookupParamType(typ),
		Name:      name,
		Value:     v,
	}, nil
}

// The alternatives are tried in order, and the first one to consume
// any input is committed to: "1." is a malformed number, not the
// text "1", and "test" is a malformed boolean.
func (p *parser) value() (Value, error) {
	start := p.pos
	n, err := p.number()
	if err == nil {
		return n, nil
	}
	if p.pos > start {
		return nil, err
	}
	b, err := p.boolean()
	if err == nil {
		return b, nil
	}
	if p.pos > start {
		return nil, err
	}
	t, err := p.text()
	if err != nil {
		// The error lists every alternative that failed here.
		return nil, err
	}
	return t, nil
}

//	[-] digits [. digits] [unit]
func (p *parser) number() (Number, error) {
	var b strings.Builder
	what := "number"
	if p.accept('-') {
		b.WriteByte('-')
		p.skipSpace()
		what = "digit"
	}
	ipart, err := p.scanRun(what, isDigit)
	if err != nil {
		return Number{}, err
	}
	b.WriteString(ipart)
	if p.accept('.') {
		fpart, err := p.scanRun("digit", isDigit)
		if err != nil {
			return Number{}, err
		}
		b.WriteByte('.')
		b.WriteString(fpart)
	}
	n := Number{Data: parseFloat32(b.String())}
	if r, _ := p.peek(); unicode.IsLetter(r) {
		n.Unit, _ = p.scanRun("unit", unicode.IsLetter)
	}
	p.skipSpace()
	return n, nil
}

// parseFloat32 converts a literal accepted by number.
// The only possible error is a value out of the range of float32.
func parseFloat32(s string) float32 {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return NumberSentinel
	}
	return float32(f)
}

func (p *parser) text() (Text, error) {
	w, err := p.word("text", isWordRune)
	if err != nil {
		return Text{}, err
	}
	return Text{Data: w}, nil
}

// boolean consumes as much of "true" or "false" as matches,
// so a partial match fails past its start.
func (p *parser) boolean() (Bool, error) {
	for _, kw := range [...]string{"true", "false"} {
		n := p.prefixFold(kw)
		if n == 0 {
			continue
		}
		p.pos += n
		if n < len(kw) {
			return Bool{}, p.fail("boolean")
		}
		p.skipSpace()
		return Bool{Data: kw == "true"}, nil
	}
	return Bool{}, p.fail("boolean")
}
