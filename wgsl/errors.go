package wgsl

import (
	"fmt"
	"sort"
	"strings"
)

// Error is a diagnostic at a source position.
type Error struct {
	Pos Pos
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Format renders e with the offending source line and a caret under the
// column.
func (e *Error) Format(source string) string {
	lines := strings.Split(source, "\n")
	if e.Pos.Line < 1 || e.Pos.Line > len(lines) {
		return "error: " + e.Error()
	}
	line := strings.TrimRight(lines[e.Pos.Line-1], "\r")
	col := min(max(e.Pos.Column, 1), len(line)+1)

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Msg)
	fmt.Fprintf(&sb, "  --> %d:%d\n", e.Pos.Line, col)
	fmt.Fprintf(&sb, "%4d | %s\n", e.Pos.Line, line)
	fmt.Fprintf(&sb, "     | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

// ErrorList is every diagnostic of a parse or check, in source order.
type ErrorList []*Error

func (l *ErrorList) add(pos Pos, format string, args ...any) {
	*l = append(*l, &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (l ErrorList) sort() {
	sort.SliceStable(l, func(i, j int) bool {
		a, b := l[i].Pos, l[j].Pos
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Err returns l as an error, or nil if it is empty.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Error implements the error interface.
func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0], len(l)-1)
}

// Format renders every diagnostic with source context.
func (l ErrorList) Format(source string) string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.Format(source)
	}
	return strings.Join(parts, "\n")
}
