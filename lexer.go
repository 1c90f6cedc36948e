// Copyright 2024 by Jonathan Amsterdam.
// Use of this source code is governed by a license
// that can be found in the LICENSE file.

package stil

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const eof rune = -1

// errNoMatch is returned by rules that fail.
var errNoMatch = errors.New("no match")

// A parser holds the state of one parse of an input string.
// The rules in parse.go are its methods. A rule either succeeds,
// leaving pos just past what it consumed, or fails with errNoMatch.
// Callers that want to try another alternative after a failure
// reset pos themselves. The position and expectations of a failure
// are kept in the parser; call err to get them as an [*Error].
type parser struct {
	src      string
	pos      int    // byte offset of the next rune
	filename string // for errors only

	// The furthest failure so far, and everything expected there.
	errPos   int
	expected []string
}

func newParser(s, filename string) *parser {
	return &parser{src: s, filename: filename, errPos: -1}
}

// rest returns the unconsumed input.
func (p *parser) rest() string {
	return p.src[p.pos:]
}

func (p *parser) peek() (rune, int) {
	if p.pos >= len(p.src) {
		return eof, 0
	}
	return utf8.DecodeRuneInString(p.src[p.pos:])
}

// skipSpace consumes whitespace, including newlines.
func (p *parser) skipSpace() {
	for {
		r, sz := p.peek()
		if r == eof || !unicode.IsSpace(r) {
			return
		}
		p.pos += sz
	}
}

// scanRun consumes the longest run of runes for which ok is true.
// It fails if the run is empty.
func (p *parser) scanRun(what string, ok func(rune) bool) (string, error) {
	start := p.pos
	for {
		r, sz := p.peek()
		if r == eof || !ok(r) {
			break
		}
		p.pos += sz
	}
	if p.pos == start {
		return "", p.fail(what)
	}
	return p.src[start:p.pos], nil
}

// word is scanRun followed by whitespace.
func (p *parser) word(what string, ok func(rune) bool) (string, error) {
	w, err := p.scanRun(what, ok)
	if err != nil {
		return "", err
	}
	p.skipSpace()
	return w, nil
}

// literal consumes s, which must match exactly.
func (p *parser) literal(s string) error {
	if !strings.HasPrefix(p.rest(), s) {
		return p.fail(strconv.Quote(s))
	}
	p.pos += len(s)
	return nil
}

// token is literal followed by whitespace.
func (p *parser) token(s string) error {
	if err := p.literal(s); err != nil {
		return err
	}
	p.skipSpace()
	return nil
}

// prefixFold returns the length of the longest prefix of the unconsumed
// input that matches a prefix of s, ignoring ASCII case.
// s must be lower-case ASCII.
func (p *parser) prefixFold(s string) int {
	r := p.rest()
	n := 0
	for n < len(s) && n < len(r) {
		c := r[n]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != s[n] {
			break
		}
		n++
	}
	return n
}

// accept consumes c if it is next.
func (p *parser) accept(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

// fail records that one of expected was wanted at the current position,
// and returns errNoMatch. Only the furthest failure is kept; failures at
// the same position accumulate.
func (p *parser) fail(expected ...string) error {
	switch {
	case p.pos > p.errPos:
		p.errPos = p.pos
		p.expected = slices.Clone(expected)
	case p.pos == p.errPos:
		for _, e := range expected {
			if !slices.Contains(p.expected, e) {
				p.expected = append(p.expected, e)
			}
		}
	}
	return errNoMatch
}

// err describes the furthest failure.
func (p *parser) err() *Error {
	line, col := position(p.src, p.errPos)
	return &Error{
		File:     p.filename,
		Offset:   p.errPos,
		Line:     line,
		Col:      col,
		Expected: slices.Clone(p.expected),
	}
}

// position returns the 1-based line and column of the byte offset off in s.
// Columns count runes.
func position(s string, off int) (line, col int) {
	before := s[:off]
	line = 1 + strings.Count(before, "\n")
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}
	return line, 1 + utf8.RuneCountInString(before)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// isWordRune reports whether r can appear in a Text value.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || isDigit(r) || r == '_'
}

// isKeywordRune reports whether r can appear in a parameter type or name.
func isKeywordRune(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}
