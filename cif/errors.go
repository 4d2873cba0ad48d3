package cif

import (
	"errors"
	"fmt"
)

// ErrUnexpectedEOF is wrapped by parse errors raised when the input ends
// where a command character, a number or a terminator is mandatory.
var ErrUnexpectedEOF = errors.New("unexpected end of file")

// ParseError is a fatal reader error. Line is 1-based; Cell names the cell
// whose body was being read, empty once the top level has been left.
type ParseError struct {
	Message string
	Line    int
	Cell    string
	Cause   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Cell != "":
		return fmt.Sprintf("line %d, cell %s: %s", e.Line, e.Cell, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	default:
		return e.Message
	}
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Warning is a non-fatal finding. It carries the same context as ParseError.
type Warning struct {
	Message string
	Line    int
	Cell    string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (line=%d, cell=%s)", w.Message, w.Line, w.Cell)
}

// asParseError returns err if it already is a *ParseError and wraps it into
// one carrying the given context otherwise.
func asParseError(err error, line int, cell string) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe
	}
	return &ParseError{Message: err.Error(), Line: line, Cell: cell, Cause: err}
}
