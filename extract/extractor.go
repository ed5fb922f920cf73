// Package extract pulls the elements of one array out of a JSON document as
// the document is being read.
//
// The array is located by a Path, "result-set.docs" by default.  Elements are
// returned one at a time in document order, each as soon as its closing token
// has been read, so a document far larger than memory can be processed with
// memory proportional to its nesting depth and the size of one element.
package extract

import (
	"fmt"
	"io"
	"iter"

	"github.com/isamplesorg/isamples-go/encoding/json"
	"github.com/isamplesorg/isamples-go/token"
)

// frame records one open container of the document.
type frame struct {
	// Segment under which the container sits in its parent
	seg     Segment
	isArray bool

	// The path of the container is a prefix of the target path
	onPath bool

	// Last key read (objects) and index of the next element (arrays)
	key  *token.Scalar
	next int
}

// An Extractor returns the elements of the target array one by one.  It is
// not safe for concurrent use.
type Extractor struct {
	tokens   token.Reader
	target   Path
	lossless bool

	// One frame per open container, outermost first
	stack []frame

	count int
	err   error
}

// New returns an Extractor reading a JSON document from r.
func New(r io.Reader, opts ...Option) *Extractor {
	return NewFromTokens(json.NewDecoder(r), opts...)
}

func NewWithConfig(r io.Reader, cfg Config) *Extractor {
	return newExtractor(json.NewDecoder(r), cfg)
}

// NewFromTokens returns an Extractor reading from a stream of tokens.  The
// tokens must form a well-nested document.
func NewFromTokens(tokens token.Reader, opts ...Option) *Extractor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newExtractor(tokens, cfg)
}

func newExtractor(tokens token.Reader, cfg Config) *Extractor {
	if cfg.Path == nil {
		cfg.Path = DefaultPath
	}
	return &Extractor{
		tokens:   tokens,
		target:   cfg.Path,
		lossless: cfg.Numbers == LosslessDecimal,
	}
}

// Count returns the number of records returned so far.
func (x *Extractor) Count() int {
	return x.count
}

// Path returns the path of the array being extracted.
func (x *Extractor) Path() Path {
	return x.target
}

// CurrentPath returns the path of the innermost open container.
func (x *Extractor) CurrentPath() Path {
	path := make(Path, 0, len(x.stack))
	for _, f := range x.stack[min(1, len(x.stack)):] {
		path = append(path, f.seg)
	}
	return path
}

// Next returns the next element of the target array.  It returns io.EOF when
// there are no more elements: the array has closed, the document ended
// without containing it or the input was empty.  Any other error is final and
// returned again by subsequent calls.
func (x *Extractor) Next() (any, error) {
	if x.err != nil {
		return nil, x.err
	}
	v, err := x.advance()
	if err != nil {
		x.err = err
		return nil, err
	}
	x.count++
	return v, nil
}

// All returns the remaining elements as a single use sequence.  A final error
// is yielded once, after which the sequence ends.
func (x *Extractor) All() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for {
			v, err := x.Next()
			if err == io.EOF {
				return
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

func (x *Extractor) advance() (any, error) {
	for {
		tok, err := x.read(0)
		if err != nil {
			return nil, err
		}
		if x.atTarget() {
			if _, ok := tok.(*token.EndArray); ok {
				x.stack = x.stack[:len(x.stack)-1]
				return nil, io.EOF
			}
			x.enterValue()
			return x.decodeValue(tok, 0)
		}
		switch t := tok.(type) {
		case *token.StartObject:
			x.push(false)
		case *token.StartArray:
			x.push(true)
		case *token.EndObject, *token.EndArray:
			x.stack = x.stack[:len(x.stack)-1]
			if len(x.stack) == 0 {
				return nil, io.EOF
			}
		case *token.Scalar:
			if t.IsKey() {
				x.stack[len(x.stack)-1].key = t
				continue
			}
			if len(x.stack) == 0 {
				// The document is a single scalar.
				return nil, io.EOF
			}
			x.enterValue()
		}
	}
}

// read returns the next token.  extra is the number of containers open inside
// the record being decoded.  The end of the input is only io.EOF when no
// container is open.
func (x *Extractor) read(extra int) (token.Token, error) {
	tok, err := x.tokens.Next()
	switch {
	case err == nil:
		return tok, nil
	case err == io.EOF:
		if len(x.stack)+extra == 0 {
			return nil, io.EOF
		}
		return nil, &TruncatedStreamError{Offset: x.offset(), Depth: len(x.stack) + extra}
	}
	if serr, ok := err.(*json.SyntaxError); ok {
		if serr.Err == io.ErrUnexpectedEOF {
			return nil, &TruncatedStreamError{Offset: serr.Offset, Depth: len(x.stack) + extra, Err: serr}
		}
		return nil, malformedFromSyntax(serr)
	}
	return nil, err
}

func (x *Extractor) offset() int64 {
	if o, ok := x.tokens.(interface{ Offset() int64 }); ok {
		return o.Offset()
	}
	return -1
}

func (x *Extractor) atTarget() bool {
	n := len(x.stack)
	if n == 0 {
		return false
	}
	top := &x.stack[n-1]
	return top.isArray && top.onPath && n-1 == len(x.target)
}

// enterValue records that a value starts in the innermost container and
// reports whether the path of that value is a prefix of the target path.
func (x *Extractor) enterValue() bool {
	n := len(x.stack)
	if n == 0 {
		return true
	}
	top := &x.stack[n-1]
	index := top.next
	if top.isArray {
		top.next++
	}
	if !top.onPath || n > len(x.target) {
		return false
	}
	want := x.target[n-1]
	if top.isArray {
		return want.isIndex && want.index == index
	}
	return !want.isIndex && top.key != nil && top.key.EqualsString(want.key)
}

func (x *Extractor) push(isArray bool) {
	var seg Segment
	if n := len(x.stack); n > 0 {
		top := &x.stack[n-1]
		switch {
		case top.isArray:
			seg = Index(top.next)
		case top.key != nil:
			k, _ := top.key.ToString()
			seg = Key(k)
		}
	}
	onPath := x.enterValue()
	x.stack = append(x.stack, frame{seg: seg, isArray: isArray, onPath: onPath})
}

// decodeValue builds the Go value starting with tok.  depth is the number of
// containers of the record open around tok.
func (x *Extractor) decodeValue(tok token.Token, depth int) (any, error) {
	switch t := tok.(type) {
	case *token.Scalar:
		if t.IsKey() {
			return nil, x.badToken(tok)
		}
		v, err := t.ToGo(x.lossless)
		if err != nil {
			return nil, x.malformed(fmt.Sprintf("cannot convert %s: %s", t, err), err)
		}
		return v, nil
	case *token.StartArray:
		arr := []any{}
		for {
			tok, err := x.read(depth + 1)
			if err != nil {
				return nil, err
			}
			if _, ok := tok.(*token.EndArray); ok {
				return arr, nil
			}
			v, err := x.decodeValue(tok, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
	case *token.StartObject:
		obj := map[string]any{}
		for {
			tok, err := x.read(depth + 1)
			if err != nil {
				return nil, err
			}
			if _, ok := tok.(*token.EndObject); ok {
				return obj, nil
			}
			key, ok := tok.(*token.Scalar)
			if !ok || !key.IsKey() {
				return nil, x.badToken(tok)
			}
			k, err := key.ToString()
			if err != nil {
				return nil, x.badToken(tok)
			}
			tok, err = x.read(depth + 1)
			if err != nil {
				return nil, err
			}
			v, err := x.decodeValue(tok, depth+1)
			if err != nil {
				return nil, err
			}
			obj[k] = v
		}
	default:
		return nil, x.badToken(tok)
	}
}

func (x *Extractor) badToken(tok token.Token) error {
	return x.malformed(fmt.Sprintf("unexpected token %s", tok), nil)
}

// malformed returns an error about the last token read, located at the start
// of that token when the token reader knows where it is.
func (x *Extractor) malformed(msg string, cause error) error {
	if d, ok := x.tokens.(interface {
		TokenError(string, error) *json.SyntaxError
	}); ok {
		return malformedFromSyntax(d.TokenError(msg, cause))
	}
	return &MalformedDocumentError{Offset: -1, Msg: msg, Err: cause}
}

// Decode reads one whole JSON value from r.  Only the number mode of the
// options applies.
func Decode(r io.Reader, opts ...Option) (any, error) {
	x := NewFromTokens(json.NewDecoder(r), opts...)
	tok, err := x.read(0)
	if err == io.EOF {
		return nil, &TruncatedStreamError{Offset: x.offset(), Err: io.ErrUnexpectedEOF}
	}
	if err != nil {
		return nil, err
	}
	return x.decodeValue(tok, 0)
}
