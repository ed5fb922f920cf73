package extract

import (
	"fmt"

	"github.com/isamplesorg/isamples-go/encoding/json"
)

// TruncatedStreamError is returned when the input ends while a container is
// still open.  Records completed before that point have already been
// returned.
type TruncatedStreamError struct {
	// Offset in bytes where the input ended, or -1 if it is not known.
	Offset int64

	// Number of containers left open.
	Depth int

	Err error
}

func (e *TruncatedStreamError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("truncated stream: input ended with %d open containers", e.Depth)
	}
	return fmt.Sprintf("truncated stream: input ended at offset %d with %d open containers", e.Offset, e.Depth)
}

func (e *TruncatedStreamError) Unwrap() error {
	return e.Err
}

// MalformedDocumentError is returned when the input is not valid JSON.
// Offset starts at 0, Line and Column start at 1.  When the position is not
// known Offset is -1 and Line is 0.
type MalformedDocumentError struct {
	Offset       int64
	Line, Column int
	Msg          string
	Err          error
}

func (e *MalformedDocumentError) Error() string {
	if e.Line == 0 {
		return "malformed document: " + e.Msg
	}
	return fmt.Sprintf("malformed document at offset %d (L%d,C%d): %s", e.Offset, e.Line, e.Column, e.Msg)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

func malformedFromSyntax(serr *json.SyntaxError) *MalformedDocumentError {
	return &MalformedDocumentError{
		Offset: serr.Offset,
		Line:   serr.Line,
		Column: serr.Col,
		Msg:    serr.Msg,
		Err:    serr,
	}
}
