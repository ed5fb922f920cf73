package token

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// A Token is an item in a stream that encodes a JSON value
// For example, the JSON value
//
//	{"id": 123, "tags": ["important", "new"]}
//
// would be represented by the stream of Token (in pseudocode for
// clarity):
//
//	{            -> StartObject
//	"id":        -> Scalar("id", String|Key)
//	123,         -> Scalar(123, Number)
//	"tags":      -> Scalar("tags", String|Key)
//	[            -> StartArray
//	"important", -> Scalar("important", String)
//	"new"        -> Scalar("new", String)
//	]            -> EndArray
//	}            -> EndObject
type Token interface {
	fmt.Stringer
}

// StartObject represents the start of a JSON object (introduced by '{').
type StartObject struct{}

func (s *StartObject) String() string {
	return "StartObject"
}

var _ Token = &StartObject{}

// EndObject represents the end of a JSON object (introduced by '}')
type EndObject struct{}

func (e *EndObject) String() string {
	return "EndObject"
}

var _ Token = &EndObject{}

// StartArray represents the start of a JSON array (introduced by '[').
type StartArray struct{}

func (s *StartArray) String() string {
	return "StartArray"
}

var _ Token = &StartArray{}

// EndArray represents the end of a JSON array (introduced by ']')
type EndArray struct{}

func (e *EndArray) String() string {
	return "EndArray"
}

var _ Token = &EndArray{}

// Scalar is the type used to represent all scalar JSON values, i.e.
// - strings
// - numbers
// - booleans (to values)
// - null (a single value)
//
// Object keys are String scalars with the KeyMask flag set.
//
// The type is encoded in the TypeAndFlags field, while the Bytes fields
// contains the literal representation of the value as found in the input.
type Scalar struct {

	// Literal representation of the value, e.g.
	// - the string "foo" is represented as []byte("\"foo\"")
	// - the number 123.5 is represented as []byte("123.5")
	// - the boolean true is represented as []byte("true")
	Bytes []byte

	// Type of the value
	TypeAndFlags uint8
}

func NewScalar(tp ScalarType, bytes []byte) *Scalar {
	return &Scalar{
		Bytes:        bytes,
		TypeAndFlags: uint8(tp),
	}
}

func NewKey(tp ScalarType, bytes []byte) *Scalar {
	return &Scalar{
		Bytes:        bytes,
		TypeAndFlags: uint8(tp) | KeyMask,
	}
}

func (s *Scalar) Type() ScalarType {
	return (ScalarType(s.TypeAndFlags & TypeMask))
}

func (s *Scalar) IsKey() bool {
	return KeyMask&s.TypeAndFlags != 0
}

func (s *Scalar) IsUnescaped() bool {
	return UnescapedMask&s.TypeAndFlags != 0
}

func (s *Scalar) String() string {
	return fmt.Sprintf("Scalar(%s)", s.Bytes)
}

// Equal reports whether s and t represent the same JSON value.  Strings with
// different escapes and numbers with different spellings can be equal.
func (s *Scalar) Equal(t *Scalar) bool {
	if s == nil || t == nil {
		return false
	}
	if s.Type() != t.Type() {
		return false
	}
	switch s.Type() {
	case Null:
		return true
	case Boolean:
		// The bytes are "true" or "false", so it's enough to compare the first one
		return s.Bytes[0] == t.Bytes[0]
	case String:
		if bytes.Equal(s.Bytes, t.Bytes) {
			return true
		}
		if s.IsUnescaped() && t.IsUnescaped() {
			return false
		}
		x, err1 := s.ToString()
		y, err2 := t.ToString()
		return err1 == nil && err2 == nil && x == y
	case Number:
		if bytes.Equal(s.Bytes, t.Bytes) {
			return true
		}
		x, err1 := s.ToFloat64()
		y, err2 := t.ToFloat64()
		return err1 == nil && err2 == nil && x == y
	default:
		panic("invalid scalar type")
	}
}

// EqualsString is a convenience method to check if a Scalar represents the
// passed string.
func (s *Scalar) EqualsString(str string) bool {
	if s.Type() != String {
		return false
	}
	x, err := s.ToString()
	return err == nil && x == str
}

// ToString returns the value of a String scalar, with escape sequences
// resolved.
func (s *Scalar) ToString() (string, error) {
	if s.Type() != String {
		return "", ErrNotString
	}
	if s.IsUnescaped() {
		return string(s.Bytes[1 : len(s.Bytes)-1]), nil
	}
	var str string
	if err := json.Unmarshal(s.Bytes, &str); err != nil {
		return "", err
	}
	return str, nil
}

// ToNumber returns the literal of a Number scalar.  It keeps every digit of
// the input, whatever its magnitude or precision.
func (s *Scalar) ToNumber() json.Number {
	return json.Number(s.Bytes)
}

// ToFloat64 returns the value of a Number scalar as a float64, which may
// lose precision.  It fails if the number is out of the float64 range.
func (s *Scalar) ToFloat64() (float64, error) {
	if s.Type() != Number {
		return 0, ErrNotNumber
	}
	return strconv.ParseFloat(string(s.Bytes), 64)
}

// ToGo converts the scalar to a Go value: string, bool, nil or, for numbers,
// json.Number if lossless is true and float64 otherwise.
func (s *Scalar) ToGo(lossless bool) (any, error) {
	switch s.Type() {
	case String:
		return s.ToString()
	case Number:
		if lossless {
			return s.ToNumber(), nil
		}
		return s.ToFloat64()
	case Boolean:
		return s.Bytes[0] == 't', nil
	default:
		return nil, nil
	}
}

var (
	ErrNotString = errors.New("scalar is not a string")
	ErrNotNumber = errors.New("scalar is not a number")
)

// ScalarType encodes the four possible JSON scalar types.
type ScalarType uint8

const (
	Null    ScalarType = 0x0 // the type of JSON null
	Boolean ScalarType = 0x1 // a JSON boolean
	Number  ScalarType = 0x2 // a JSON number
	String  ScalarType = 0x3 // a JSON string
)

const (
	TypeMask      = 0b00011
	KeyMask       = 0b00100
	UnescapedMask = 0b01000
)

var (
	trueBytes  = []byte("true")
	falseBytes = []byte("false")
	nullBytes  = []byte("null")
)

var (
	TrueScalar  = NewScalar(Boolean, trueBytes)
	FalseScalar = NewScalar(Boolean, falseBytes)
	NullScalar  = NewScalar(Null, nullBytes)
)

func StringScalar(s string) *Scalar {
	var b bytes.Buffer
	encoder := json.NewEncoder(&b)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		panic(err)
	}
	var encodedBytes = b.Bytes()
	// Remove the new line at the end
	scalar := NewScalar(String, encodedBytes[:len(encodedBytes)-1])
	if len(scalar.Bytes) == len(s)+2 {
		scalar.TypeAndFlags |= UnescapedMask
	}
	return scalar
}

// KeyScalar returns the key token for an object field called s.
func KeyScalar(s string) *Scalar {
	key := StringScalar(s)
	key.TypeAndFlags |= KeyMask
	return key
}

func NumberScalar(literal string) *Scalar {
	return NewScalar(Number, []byte(literal))
}

func Int64Scalar(n int64) *Scalar {
	return NewScalar(Number, []byte(strconv.FormatInt(n, 10)))
}

func BoolScalar(b bool) *Scalar {
	if b {
		return TrueScalar
	}
	return FalseScalar
}
