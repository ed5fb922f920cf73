package json

import (
	"fmt"
	"io"

	"github.com/isamplesorg/isamples-go/internal/scanner"
)

// A SyntaxError reports where the input stopped being valid JSON.  If the
// input ended before the value was complete, Err is io.ErrUnexpectedEOF.
type SyntaxError struct {
	Msg string

	// Line and Col start at 1, Col counts characters.
	Line, Col int

	// Offset in bytes from the start of the input, starting at 0
	Offset int64

	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at L%d,C%d (offset %d): %s", e.Line, e.Col, e.Offset, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func newSyntaxError(pos scanner.Pos, msg string) *SyntaxError {
	return &SyntaxError{
		Msg:    msg,
		Line:   pos.Line + 1,
		Col:    pos.Col + 1,
		Offset: pos.Offset,
	}
}

// UnexpectedByte returns an error about the next byte in the input.
func UnexpectedByte(scanr *scanner.Scanner, expected string, args ...interface{}) error {
	pos := scanr.CurrentPos()
	b, err := scanr.Read()
	if err != nil {
		return err
	}
	if b == scanner.EOF && scanr.AtEOF() {
		serr := newSyntaxError(pos, fmt.Sprintf(expected, args...)+": <EOF>")
		serr.Err = io.ErrUnexpectedEOF
		return serr
	}
	return newSyntaxError(pos, fmt.Sprintf("%s: %q", fmt.Sprintf(expected, args...), b))
}

// UnexpectedEOF returns an error about the input ending at the current
// position.
func UnexpectedEOF(scanr *scanner.Scanner) error {
	serr := newSyntaxError(scanr.CurrentPos(), "unexpected end of input")
	serr.Err = io.ErrUnexpectedEOF
	return serr
}
