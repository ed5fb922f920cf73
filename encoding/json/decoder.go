// Package json tokenizes JSON input incrementally.
//
// A Decoder is pulled from: each call to Next reads just enough input to
// produce one token.  It keeps no more state than the stack of containers
// currently open, so documents of any size can be processed while they are
// still arriving.
package json

import (
	"io"

	"github.com/isamplesorg/isamples-go/internal/scanner"
	"github.com/isamplesorg/isamples-go/token"
)

// A Decoder reads JSON input and turns it into a stream of tokens.  The input
// may contain several JSON values in sequence.
type Decoder struct {
	scanr *scanner.Scanner

	// Containers currently open, innermost last
	stack []containerKind

	// What is allowed next
	state state

	// Where the last token returned by Next started
	tokenStart scanner.Pos

	// Sticky: the first error stops the decoder.
	err error
}

var _ token.Reader = &Decoder{}

type containerKind uint8

const (
	objectKind containerKind = iota
	arrayKind
)

type state uint8

const (
	stateValue       state = iota // a value is required
	stateArrayStart               // a value or ']'
	stateArrayNext                // ',' or ']'
	stateObjectStart              // a key or '}'
	stateKey                      // a key is required
	stateColon                    // ':' is required
	stateObjectNext               // ',' or '}'
)

// NewDecoder sets up a new Decoder instance to read from the given input.
func NewDecoder(in io.Reader) *Decoder {
	return &Decoder{scanr: scanner.NewScanner(in)}
}

// NewDecoderSize is like NewDecoder but uses a read buffer of the given size.
func NewDecoderSize(in io.Reader, size int) *Decoder {
	return &Decoder{scanr: scanner.NewScannerSize(in, size)}
}

// Depth returns the number of containers currently open.
func (d *Decoder) Depth() int {
	return len(d.stack)
}

// Offset returns the number of bytes of input consumed so far.
func (d *Decoder) Offset() int64 {
	return d.scanr.CurrentPos().Offset
}

// TokenError returns a SyntaxError located at the start of the last token
// returned by Next, for a token that is well formed but cannot be used.
func (d *Decoder) TokenError(msg string, cause error) *SyntaxError {
	serr := newSyntaxError(d.tokenStart, msg)
	serr.Err = cause
	return serr
}

// Next returns the next token in the input.  It returns io.EOF when the input
// ends after a complete value (or is empty).  If the input ends in the middle
// of a value the error is a *SyntaxError wrapping io.ErrUnexpectedEOF.  Errors
// from the underlying reader are returned unchanged.
//
// Once Next has returned an error, it returns the same error on every
// subsequent call.
func (d *Decoder) Next() (token.Token, error) {
	if d.err != nil {
		return nil, d.err
	}
	tok, err := d.next()
	if err != nil {
		d.err = err
	}
	return tok, err
}

func (d *Decoder) next() (token.Token, error) {
	for {
		b, err := d.scanr.SkipSpaceAndPeek()
		if err != nil {
			return nil, err
		}
		d.tokenStart = d.scanr.CurrentPos()
		if b == scanner.EOF && d.scanr.AtEOF() {
			if len(d.stack) == 0 && d.state == stateValue {
				return nil, io.EOF
			}
			return nil, UnexpectedEOF(d.scanr)
		}
		switch d.state {
		case stateValue:
			return d.parseValue(b)
		case stateArrayStart:
			if b == ']' {
				return d.closeContainer(&token.EndArray{})
			}
			return d.parseValue(b)
		case stateArrayNext:
			switch b {
			case ']':
				return d.closeContainer(&token.EndArray{})
			case ',':
				d.scanr.Read()
				d.state = stateValue
			default:
				return nil, UnexpectedByte(d.scanr, "expected ']' or ',', got")
			}
		case stateObjectStart:
			if b == '}' {
				return d.closeContainer(&token.EndObject{})
			}
			return d.parseKey(b)
		case stateKey:
			return d.parseKey(b)
		case stateColon:
			if b != ':' {
				return nil, UnexpectedByte(d.scanr, "expected ':', got")
			}
			d.scanr.Read()
			d.state = stateValue
		case stateObjectNext:
			switch b {
			case '}':
				return d.closeContainer(&token.EndObject{})
			case ',':
				d.scanr.Read()
				d.state = stateKey
			default:
				return nil, UnexpectedByte(d.scanr, "expected '}' or ',' got")
			}
		}
	}
}

// parseValue reads the first token of a JSON value starting with b.
func (d *Decoder) parseValue(b byte) (token.Token, error) {
	switch b {
	case '{':
		d.scanr.Read()
		d.stack = append(d.stack, objectKind)
		d.state = stateObjectStart
		return &token.StartObject{}, nil
	case '[':
		d.scanr.Read()
		d.stack = append(d.stack, arrayKind)
		d.state = stateArrayStart
		return &token.StartArray{}, nil
	case '"':
		s, err := ParseString(d.scanr)
		if err != nil {
			return nil, err
		}
		d.endValue()
		return s, nil
	case 't':
		return d.parseLiteral(trueBytes, token.TrueScalar)
	case 'f':
		return d.parseLiteral(falseBytes, token.FalseScalar)
	case 'n':
		return d.parseLiteral(nullBytes, token.NullScalar)
	default:
		if b == '-' || b >= '0' && b <= '9' {
			n, err := ParseNumber(d.scanr)
			if err != nil {
				return nil, err
			}
			if len(d.stack) > 0 && d.scanr.AtEOF() {
				// More digits may have followed.
				return nil, UnexpectedEOF(d.scanr)
			}
			d.endValue()
			return n, nil
		}
		return nil, UnexpectedByte(d.scanr, "unexpected")
	}
}

func (d *Decoder) parseLiteral(expected []byte, tok *token.Scalar) (token.Token, error) {
	if err := checkBytes(d.scanr, expected); err != nil {
		return nil, err
	}
	d.endValue()
	return tok, nil
}

func (d *Decoder) parseKey(b byte) (token.Token, error) {
	if b != '"' {
		return nil, UnexpectedByte(d.scanr, "expected key, got")
	}
	key, err := ParseString(d.scanr)
	if err != nil {
		return nil, err
	}
	key.TypeAndFlags |= token.KeyMask
	d.state = stateColon
	return key, nil
}

// closeContainer consumes the closing byte of the innermost container.
func (d *Decoder) closeContainer(tok token.Token) (token.Token, error) {
	d.scanr.Read()
	d.stack = d.stack[:len(d.stack)-1]
	d.endValue()
	return tok, nil
}

// endValue sets what is allowed after a complete value.
func (d *Decoder) endValue() {
	switch {
	case len(d.stack) == 0:
		d.state = stateValue
	case d.stack[len(d.stack)-1] == arrayKind:
		d.state = stateArrayNext
	default:
		d.state = stateObjectNext
	}
}

func ExpectByte(scanr *scanner.Scanner, xb byte) error {
	b, err := scanr.Read()
	if err != nil {
		return err
	}
	if b != xb {
		scanr.Back()
		return UnexpectedByte(scanr, "expected %q, got", xb)
	}
	return nil
}

func ParseString(scanr *scanner.Scanner) (*token.Scalar, error) {
	scanr.StartToken()
	err := ExpectByte(scanr, '"')
	if err != nil {
		return nil, err
	}
	isUnescaped := true
	for {
		b, err := scanr.Read()
		if err != nil {
			return nil, err
		}
		if b == scanner.EOF && scanr.AtEOF() {
			return nil, UnexpectedEOF(scanr)
		}
		switch b {
		case '\\':
			isUnescaped = false
			x, err := scanr.Read()
			if err != nil {
				return nil, err
			}
			switch x {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				continue
			case 'u':
				for i := 0; i < 4; i++ {
					b, err = scanr.Read()
					if err != nil {
						return nil, err
					}
					if !(b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F') {
						scanr.Back()
						return nil, UnexpectedByte(scanr, "expected hex, got")
					}
				}
			default:
				scanr.Back()
				return nil, UnexpectedByte(scanr, "invalid escape character")
			}
		case '"':
			stringBytes := scanr.EndToken()
			scalar := token.NewScalar(token.String, stringBytes)
			if isUnescaped {
				scalar.TypeAndFlags |= token.UnescapedMask
			}
			return scalar, nil
		default:
			if scanner.IsCtrl(b) {
				scanr.Back()
				return nil, UnexpectedByte(scanr, "invalid control character in string")
			}
		}
	}
}

// ParseNumber parses a JSON number from the scanner.
func ParseNumber(scanr *scanner.Scanner) (*token.Scalar, error) {
	scanr.StartToken()
	var n int
	b, err := scanr.Read()

	// Sign part
	if b == '-' {
		b, err = scanr.Read()
	}
	if err != nil {
		return nil, err
	}

	// Integer part
	if b == '0' {
		b, err = scanr.Read()
		if err != nil {
			return nil, err
		}
	} else if b >= '1' && b <= '9' {
		b, _, err = ReadDigits(scanr)
		if err != nil {
			return nil, err
		}
	} else {
		scanr.Back()
		return nil, UnexpectedByte(scanr, "expected digit, got")
	}

	// Fraction part
	if b == '.' {
		b, n, err = ReadDigits(scanr)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			scanr.Back()
			return nil, UnexpectedByte(scanr, "expected digit, got")
		}
	}

	// Exponent part
	if b == 'e' || b == 'E' {
		b, err = scanr.Peek()
		if err != nil {
			return nil, err
		}
		if b == '-' || b == '+' {
			scanr.Read()
		}
		_, n, err = ReadDigits(scanr)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			scanr.Back()
			return nil, UnexpectedByte(scanr, "expected digit, got")
		}
	}
	scanr.Back()
	return token.NewScalar(token.Number, scanr.EndToken()), nil
}

func ReadDigits(scanr *scanner.Scanner) (byte, int, error) {
	var n int
	for {
		b, err := scanr.Read()
		if err != nil {
			return 0, n, err
		}
		if !scanner.IsDigit(b) {
			return b, n, nil
		}
		n++
	}
}

func checkBytes(scanr *scanner.Scanner, expected []byte) error {
	for _, xb := range expected {
		if err := ExpectByte(scanr, xb); err != nil {
			return err
		}
	}
	return nil
}

var (
	trueBytes  = []byte("true")
	falseBytes = []byte("false")
	nullBytes  = []byte("null")
)
