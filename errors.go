// Copyright 2024 by Jonathan Amsterdam.
// Use of this source code is governed by a license
// that can be found in the LICENSE file.

package stil

import (
	"fmt"
	"strings"
)

// An Error describes a parse failure.
// It is the only kind of error returned by the Parse functions,
// apart from errors reading a file.
type Error struct {
	// File is the name of the file being parsed, or empty.
	File string

	// Offset is the byte offset in the input of the furthest point
	// the parser reached. Line and Col are the same point, 1-based;
	// Col counts runes.
	Offset    int
	Line, Col int

	// Expected describes what could have appeared at Offset,
	// such as a keyword, punctuation or a kind of value.
	Expected []string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteByte(':')
	}
	fmt.Fprintf(&b, "%d:%d: expected %s", e.Line, e.Col, orList(e.Expected))
	return b.String()
}

// orList returns "a", "a or b", "a, b or c" and so on.
func orList(ss []string) string {
	switch len(ss) {
	case 0:
		return "nothing"
	case 1:
		return ss[0]
	default:
		return strings.Join(ss[:len(ss)-1], ", ") + " or " + ss[len(ss)-1]
	}
}
