package trig

import (
	"bufio"
	"errors"
	"io"
)

// eof is returned by the scanner once the input is exhausted.
const eof rune = -1

// Scanner reads an input one code point at a time with arbitrary pushback.
// It tracks the line and column of the next code point to be read.
type Scanner struct {
	r       *bufio.Reader
	pending []rune // pushed back code points, last element is read first
	err     error

	line    int
	column  int
	prevCol []int // column before each newline, used to restore position on unread
}

// NewScanner creates a scanner over r
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		r:    bufio.NewReader(r),
		line: 1,
	}
}

// Read consumes and returns the next code point, or eof.
func (s *Scanner) Read() rune {
	var c rune
	if n := len(s.pending); n > 0 {
		c = s.pending[n-1]
		s.pending = s.pending[:n-1]
	} else {
		if s.err != nil {
			return eof
		}
		r, _, err := s.r.ReadRune()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			} else {
				s.err = io.EOF
			}
			return eof
		}
		c = r
	}

	if c == '\n' {
		s.prevCol = append(s.prevCol, s.column)
		s.line++
		s.column = 0
	} else {
		s.column++
	}
	return c
}

// Peek returns the next code point without consuming it.
func (s *Scanner) Peek() rune {
	c := s.Read()
	s.Unread(c)
	return c
}

// Unread pushes c back so that it is returned by the next Read. Unreading eof is a no-op.
func (s *Scanner) Unread(c rune) {
	if c == eof {
		return
	}
	s.pending = append(s.pending, c)
	if c == '\n' {
		s.line--
		if n := len(s.prevCol); n > 0 {
			s.column = s.prevCol[n-1]
			s.prevCol = s.prevCol[:n-1]
		}
	} else if s.column > 0 {
		s.column--
	}
}

// UnreadString pushes back every code point of str so that str is read again in order.
func (s *Scanner) UnreadString(str string) {
	runes := []rune(str)
	for i := len(runes) - 1; i >= 0; i-- {
		s.Unread(runes[i])
	}
}

// SkipWSC skips whitespace and comments and returns the next significant code point
// without consuming it.
func (s *Scanner) SkipWSC() rune {
	for {
		c := s.Read()
		switch {
		case isWhitespace(c):
			continue
		case c == '#':
			s.skipLine()
			continue
		default:
			s.Unread(c)
			return c
		}
	}
}

func (s *Scanner) skipLine() {
	for {
		c := s.Read()
		if c == eof || c == '\n' {
			return
		}
		if c == '\r' {
			if next := s.Read(); next != '\n' {
				s.Unread(next)
			}
			return
		}
	}
}

// Position returns the 1-based line and column of the last consumed code point.
func (s *Scanner) Position() (line, column int) {
	return s.line, s.column
}

// Err returns the I/O error that ended the input, or nil on a clean end of input.
func (s *Scanner) Err() error {
	if s.err == nil || errors.Is(s.err, io.EOF) {
		return nil
	}
	return s.err
}
