package cif

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// scanner reads CIF characters from a stream. It tracks the line number and
// the name of the cell being read so that errors and warnings can be
// reported in context.
type scanner struct {
	r      *bufio.Reader
	line   int    // current line (1-based)
	cell   string // cell context for diagnostics
	err    error  // sticky read error other than io.EOF
	onWarn func(msg string)
}

func newScanner(r io.Reader) *scanner {
	return &scanner{r: bufio.NewReader(r), line: 1}
}

func (s *scanner) atEnd() bool {
	if _, err := s.r.Peek(1); err != nil {
		if !errors.Is(err, io.EOF) && s.err == nil {
			s.err = err
		}
		return true
	}
	return false
}

// peek returns the next character without consuming it, 0 at the end.
func (s *scanner) peek() byte {
	b, err := s.r.Peek(1)
	if err != nil {
		return 0
	}
	return b[0]
}

// advance consumes one character. The caller must have checked atEnd.
func (s *scanner) advance() byte {
	ch, err := s.r.ReadByte()
	if err != nil {
		return 0
	}
	if ch == '\n' {
		s.line++
	}
	return ch
}

func (s *scanner) errorf(format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Line: s.line, Cell: s.cell}
}

// eofError reports the end of the input where more was required. A pending
// read error takes precedence over a plain end of file.
func (s *scanner) eofError() *ParseError {
	if s.err != nil {
		return &ParseError{Message: "Read error: " + s.err.Error(), Line: s.line, Cell: s.cell, Cause: s.err}
	}
	return &ParseError{Message: "Unexpected end of file", Line: s.line, Cell: s.cell, Cause: ErrUnexpectedEOF}
}

func (s *scanner) warnf(format string, args ...any) {
	if s.onWarn != nil {
		s.onWarn(fmt.Sprintf(format, args...))
	}
}

// getChar consumes one character; the end of the input is an error.
func (s *scanner) getChar() (byte, error) {
	if s.atEnd() {
		return 0, s.eofError()
	}
	return s.advance(), nil
}

// skipBlanks skips CIF blanks: anything except digits, upper-case letters,
// '-', '(', ')' and ';'.
func (s *scanner) skipBlanks() {
	for !s.atEnd() {
		ch := s.peek()
		if isUpper(ch) || isDigit(ch) || ch == '-' || ch == '(' || ch == ')' || ch == ';' {
			return
		}
		s.advance()
	}
}

// skipSeparators skips CIF separators: like blanks, but upper-case letters
// are skipped too.
func (s *scanner) skipSeparators() {
	for !s.atEnd() {
		ch := s.peek()
		if isDigit(ch) || ch == '-' || ch == '(' || ch == ')' || ch == ';' {
			return
		}
		s.advance()
	}
}

// skipWhitespace skips spaces, tabs and line breaks only.
func (s *scanner) skipWhitespace() {
	for !s.atEnd() && isSpace(s.peek()) {
		s.advance()
	}
}

// skipComment consumes a comment body. The opening '(' must already be
// consumed; nested parentheses are balanced.
func (s *scanner) skipComment() {
	depth := 0
	for !s.atEnd() {
		ch := s.advance()
		switch {
		case ch == '(':
			depth++
		case ch == ')' && depth == 0:
			return
		case ch == ')':
			depth--
		}
	}
}

// skipToEnd consumes everything up to and including the next ';'.
func (s *scanner) skipToEnd() {
	for !s.atEnd() && s.advance() != ';' {
	}
}

// testSemi skips blanks and reports whether a ';' follows.
func (s *scanner) testSemi() bool {
	s.skipBlanks()
	return !s.atEnd() && s.peek() == ';'
}

// expectSemi consumes the command terminator.
func (s *scanner) expectSemi() error {
	if !s.testSemi() {
		if s.atEnd() {
			return s.eofError()
		}
		return s.errorf("Expected ';' command terminator")
	}
	s.advance()
	return nil
}

// readIntegerDigits reads an unsigned decimal literal at the cursor. A value
// beyond math.MaxInt32 is reported as a warning and read as 0, with the rest
// of the literal consumed.
func (s *scanner) readIntegerDigits() (int, error) {
	if s.atEnd() {
		return 0, s.eofError()
	}
	if !isDigit(s.peek()) {
		return 0, s.errorf("Digit expected")
	}

	i := 0
	for !s.atEnd() && isDigit(s.peek()) {
		d := int(s.peek() - '0')
		if i > (math.MaxInt32-d)/10 {
			s.warnf("Integer overflow")
			for !s.atEnd() && isDigit(s.peek()) {
				s.advance()
			}
			return 0, nil
		}
		s.advance()
		i = i*10 + d
	}
	return i, nil
}

// readInteger skips separators and reads an unsigned integer.
func (s *scanner) readInteger() (int, error) {
	s.skipSeparators()
	return s.readIntegerDigits()
}

// readSignedInteger skips separators and reads an optionally negative integer.
func (s *scanner) readSignedInteger() (int, error) {
	s.skipSeparators()

	neg := false
	if s.peek() == '-' {
		s.advance()
		neg = true
	}

	i, err := s.readIntegerDigits()
	if neg {
		i = -i
	}
	return i, err
}

// readName skips blanks and reads a name. Officially only upper-case letters
// and digits make up a name; lower-case letters and '_' are accepted too.
func (s *scanner) readName() string {
	s.skipBlanks()

	var sb strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if !isUpper(ch) && !isLower(ch) && !isDigit(ch) && ch != '_' {
			break
		}
		sb.WriteByte(s.advance())
	}
	return sb.String()
}

// readString reads label text: a string quoted with '"' or '\'' where a
// backslash escapes the next character, or else everything up to whitespace
// or ';'.
func (s *scanner) readString() string {
	s.skipWhitespace()

	var sb strings.Builder
	if s.atEnd() {
		return ""
	}

	q := s.peek()
	if q == '"' || q == '\'' {
		s.advance()
		for !s.atEnd() && s.peek() != q {
			ch := s.advance()
			if ch == '\\' && !s.atEnd() {
				ch = s.advance()
			}
			sb.WriteByte(ch)
		}
		if !s.atEnd() {
			s.advance()
		}
		return sb.String()
	}

	for !s.atEnd() && !isSpace(s.peek()) && s.peek() != ';' {
		sb.WriteByte(s.advance())
	}
	return sb.String()
}

// readDouble reads a real number made of digits, '.', '-', 'e' and 'E'.
// A malformed literal reads as 0.
func (s *scanner) readDouble() float64 {
	s.skipWhitespace()

	var sb strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if !isDigit(ch) && ch != '.' && ch != '-' && ch != 'e' && ch != 'E' {
			break
		}
		sb.WriteByte(s.advance())
	}

	v, err := strconv.ParseFloat(sb.String(), 64)
	if err != nil {
		return 0
	}
	return v
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isUpper(ch byte) bool {
	return ch >= 'A' && ch <= 'Z'
}

func isLower(ch byte) bool {
	return ch >= 'a' && ch <= 'z'
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}
