package token

import "io"

// A Reader produces a stream of tokens.  Next returns io.EOF at the end of
// the stream.
type Reader interface {
	Next() (Token, error)
}

// SliceReader is a Reader over a fixed list of tokens.
type SliceReader struct {
	toks []Token
}

var _ Reader = &SliceReader{}

func NewSliceReader(toks []Token) *SliceReader {
	return &SliceReader{toks: toks}
}

func (r *SliceReader) Next() (Token, error) {
	if len(r.toks) == 0 {
		return nil, io.EOF
	}
	tok := r.toks[0]
	r.toks = r.toks[1:]
	return tok, nil
}
