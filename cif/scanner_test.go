package cif

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScanner(src string) (*scanner, *[]string) {
	s := newScanner(strings.NewReader(src))
	s.cell = "TEST"
	var warnings []string
	s.onWarn = func(msg string) { warnings = append(warnings, msg) }
	return s, &warnings
}

func TestScannerSkipBlanks(t *testing.T) {
	s, _ := newTestScanner("  abc,\t\nX")
	s.skipBlanks()
	assert.Equal(t, byte('X'), s.peek())
	assert.Equal(t, 2, s.line)
}

func TestScannerSkipBlanksStopsAtCommandCharacters(t *testing.T) {
	for _, stop := range []string{"7", "-", "(", ")", ";", "Q"} {
		s, _ := newTestScanner(" x " + stop)
		s.skipBlanks()
		assert.Equal(t, stop[0], s.peek(), "stop: %s", stop)
	}
}

func TestScannerSkipSeparatorsSkipsUpperCase(t *testing.T) {
	s, _ := newTestScanner(" AB, 12")
	s.skipSeparators()
	assert.Equal(t, byte('1'), s.peek())
}

func TestScannerNestedComment(t *testing.T) {
	s, _ := newTestScanner("(outer (inner (deep)) tail)X")
	s.advance()
	s.skipComment()
	assert.Equal(t, byte('X'), s.peek())
}

func TestScannerUnterminatedCommentStopsAtEnd(t *testing.T) {
	s, _ := newTestScanner("(never closed")
	s.advance()
	s.skipComment()
	assert.True(t, s.atEnd())
}

func TestScannerReadInteger(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"0", 0},
		{"42", 42},
		{"  ,007", 7},
		{"2147483647", math.MaxInt32},
	}
	for _, tt := range tests {
		s, warnings := newTestScanner(tt.input)
		v, err := s.readInteger()
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.want, v, "input: %s", tt.input)
		assert.Empty(t, *warnings, "input: %s", tt.input)
	}
}

func TestScannerIntegerOverflowRecovers(t *testing.T) {
	s, warnings := newTestScanner("99999999999999 42")
	v, err := s.readInteger()
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.Equal(t, []string{"Integer overflow"}, *warnings)

	next, err := s.readInteger()
	require.NoError(t, err)
	assert.Equal(t, 42, next)
}

func TestScannerIntegerOverflowJustAboveLimit(t *testing.T) {
	s, warnings := newTestScanner("2147483648;")
	v, err := s.readInteger()
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.Len(t, *warnings, 1)
	assert.Equal(t, byte(';'), s.peek())
}

func TestScannerReadSignedInteger(t *testing.T) {
	s, _ := newTestScanner(" -12 34")
	a, err := s.readSignedInteger()
	require.NoError(t, err)
	b, err := s.readSignedInteger()
	require.NoError(t, err)
	assert.Equal(t, -12, a)
	assert.Equal(t, 34, b)
}

func TestScannerReadIntegerAtEnd(t *testing.T) {
	s, _ := newTestScanner("   ")
	_, err := s.readInteger()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedEOF)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "TEST", pe.Cell)
}

func TestScannerReadIntegerNotADigit(t *testing.T) {
	s, _ := newTestScanner("(")
	_, err := s.readInteger()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Digit expected")
}

func TestScannerReadName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"CMF;", "CMF"},
		{"  L1D2_poly ;", "L1D2_poly"},
		{"12;", "12"},
		{";", ""},
	}
	for _, tt := range tests {
		s, _ := newTestScanner(tt.input)
		assert.Equal(t, tt.want, s.readName(), "input: %s", tt.input)
	}
}

func TestScannerReadString(t *testing.T) {
	tests := []struct {
		input string
		want  string
		rest  byte
	}{
		{`  VDD 1`, "VDD", ' '},
		{`out;`, "out", ';'},
		{`"two words" 1`, "two words", ' '},
		{`'say \'hi\'' 1`, "say 'hi'", ' '},
		{`"a\\b";`, `a\b`, ';'},
	}
	for _, tt := range tests {
		s, _ := newTestScanner(tt.input)
		assert.Equal(t, tt.want, s.readString(), "input: %s", tt.input)
		assert.Equal(t, tt.rest, s.peek(), "input: %s", tt.input)
	}
}

func TestScannerReadDouble(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1.5", 1.5},
		{" -2e3", -2000},
		{"0.25E1;", 2.5},
		{"1.2.3", 0},
		{"-", 0},
	}
	for _, tt := range tests {
		s, _ := newTestScanner(tt.input)
		assert.InDelta(t, tt.want, s.readDouble(), 1e-12, "input: %s", tt.input)
	}
}

func TestScannerExpectSemi(t *testing.T) {
	s, _ := newTestScanner("  ;")
	require.NoError(t, s.expectSemi())
	assert.True(t, s.atEnd())

	s, _ = newTestScanner(" 5;")
	err := s.expectSemi()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected ';' command terminator")

	s, _ = newTestScanner("")
	assert.ErrorIs(t, s.expectSemi(), ErrUnexpectedEOF)
}

func TestScannerSkipToEnd(t *testing.T) {
	s, _ := newTestScanner("junk 1 2 3; X")
	s.skipToEnd()
	s.skipBlanks()
	assert.Equal(t, byte('X'), s.peek())
}

func TestScannerLineCounting(t *testing.T) {
	s, _ := newTestScanner("A\nB\r\n\nC")
	for !s.atEnd() {
		s.advance()
	}
	assert.Equal(t, 4, s.line)
}
