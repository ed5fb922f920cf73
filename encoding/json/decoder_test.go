package json

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isamplesorg/isamples-go/chunkstream"
	"github.com/isamplesorg/isamples-go/token"
)

// TestDecoderSimpleValues tests decoding of simple scalar values
func TestDecoderSimpleValues(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []token.Token
	}{
		{"true", "true", []token.Token{token.TrueScalar}},
		{"false", "false", []token.Token{token.FalseScalar}},
		{"null", "null", []token.Token{token.NullScalar}},
		{"integer", "42", []token.Token{tokenWithBytes(token.Number, "42")}},
		{"negative integer", "-123", []token.Token{tokenWithBytes(token.Number, "-123")}},
		{"float", "3.14", []token.Token{tokenWithBytes(token.Number, "3.14")}},
		{"scientific notation", "1.5e10", []token.Token{tokenWithBytes(token.Number, "1.5e10")}},
		{"simple string", `"hello"`, []token.Token{tokenWithBytes(token.String, `"hello"`)}},
		{"empty string", `""`, []token.Token{tokenWithBytes(token.String, `""`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := decodeString(t, tt.input)
			assertTokensEqual(t, tokens, tt.expected)
		})
	}
}

// TestDecoderStrings tests various string formats
func TestDecoderStrings(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		unescaped bool
	}{
		{"string with spaces", `"hello world"`, true},
		{"string with escaped quotes", `"hello \"world\""`, false},
		{"string with backslash", `"hello\\world"`, false},
		{"string with newline", `"hello\nworld"`, false},
		{"string with unicode", `"hello\u0041world"`, false},
		{"string with emoji", `"hello 😀 world"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := decodeString(t, tt.input)
			require.Len(t, tokens, 1)
			scalar, ok := tokens[0].(*token.Scalar)
			require.True(t, ok, "expected scalar token, got %T", tokens[0])
			assert.Equal(t, tt.input, string(scalar.Bytes))
			assert.Equal(t, tt.unescaped, scalar.IsUnescaped())
		})
	}
}

// TestDecoderNumbers tests various number formats
func TestDecoderNumbers(t *testing.T) {
	for _, input := range []string{
		"0", "123", "-456", "3.14159", "-2.71828", "1e10", "1e-10", "1.5e+20", "-1.23e-45",
		"123456789012345678901234567890.12345678901234567890",
	} {
		t.Run(input, func(t *testing.T) {
			tokens := decodeString(t, input)
			assertTokensEqual(t, tokens, []token.Token{tokenWithBytes(token.Number, input)})
		})
	}
}

func TestDecoderContainers(t *testing.T) {
	tokens := decodeString(t, `{"a": [1, {"b": null}, []], "c": {}}`)
	assertTokensEqual(t, tokens, []token.Token{
		&token.StartObject{},
		token.KeyScalar("a"),
		&token.StartArray{},
		tokenWithBytes(token.Number, "1"),
		&token.StartObject{},
		token.KeyScalar("b"),
		token.NullScalar,
		&token.EndObject{},
		&token.StartArray{},
		&token.EndArray{},
		&token.EndArray{},
		token.KeyScalar("c"),
		&token.StartObject{},
		&token.EndObject{},
		&token.EndObject{},
	})
	assert.True(t, tokens[1].(*token.Scalar).IsKey())
	assert.False(t, tokens[3].(*token.Scalar).IsKey())
}

func TestDecoderWhitespace(t *testing.T) {
	tokens := decodeString(t, " \n\t{ \"a\" :\r\n [ true ,false ] }\n ")
	assertTokensEqual(t, tokens, []token.Token{
		&token.StartObject{},
		token.KeyScalar("a"),
		&token.StartArray{},
		token.TrueScalar,
		token.FalseScalar,
		&token.EndArray{},
		&token.EndObject{},
	})
}

func TestDecoderMultipleValues(t *testing.T) {
	tokens := decodeString(t, `1 "two" [3] {}`)
	assertTokensEqual(t, tokens, []token.Token{
		tokenWithBytes(token.Number, "1"),
		tokenWithBytes(token.String, `"two"`),
		&token.StartArray{},
		tokenWithBytes(token.Number, "3"),
		&token.EndArray{},
		&token.StartObject{},
		&token.EndObject{},
	})
}

func TestDecoderEmptyInput(t *testing.T) {
	d := NewDecoder(strings.NewReader("  \n"))
	_, err := d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoderDepth(t *testing.T) {
	d := NewDecoder(strings.NewReader(`[[{"a":1}]]`))
	var depths []int
	for {
		_, err := d.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		depths = append(depths, d.Depth())
	}
	assert.Equal(t, []int{1, 2, 3, 3, 3, 2, 1, 0}, depths)
}

func TestDecoderErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		offset int64
		msg    string
	}{
		{"missing value", `{"id":}`, 6, `unexpected: '}'`},
		{"invalid value in nested doc", `{"result-set":{"docs":[{"id":}]}}`, 29, `unexpected: '}'`},
		{"trailing comma in array", `[1,]`, 3, `unexpected: ']'`},
		{"missing comma", `[1 2]`, 3, `expected ']' or ',', got: '2'`},
		{"unquoted key", `{a:1}`, 1, `expected key, got: 'a'`},
		{"missing colon", `{"a" 1}`, 5, `expected ':', got: '1'`},
		{"bad literal", `[tru]`, 4, `expected 'e', got: ']'`},
		{"bad number", `[-x]`, 2, `expected digit, got: 'x'`},
		{"bad fraction", `[1.]`, 3, `expected digit, got: ']'`},
		{"bad escape", `["a\x"]`, 4, `invalid escape character: 'x'`},
		{"bad hex", `["\u12g4"]`, 6, `expected hex, got: 'g'`},
		{"control character", "[\"a\tb\"]", 3, `invalid control character in string: '\t'`},
		{"mismatched close", `[1}`, 2, `expected ']' or ',', got: '}'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeError(t, tt.input)
			var serr *SyntaxError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.offset, serr.Offset)
			assert.Equal(t, tt.msg, serr.Msg)
			assert.NotErrorIs(t, err, io.ErrUnexpectedEOF)
		})
	}
}

func TestDecoderErrorPosition(t *testing.T) {
	err := decodeError(t, "{\n  \"é\": [1,\n   x]\n}")
	var serr *SyntaxError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 3, serr.Line)
	assert.Equal(t, 4, serr.Col)
	assert.Equal(t, "syntax error at L3,C4 (offset 17): unexpected: 'x'", err.Error())
}

func TestDecoderTruncated(t *testing.T) {
	for _, input := range []string{
		`{`,
		`{"a"`,
		`{"a":`,
		`{"a":1`,
		`{"a":1,`,
		`[`,
		`[1,`,
		`["abc`,
		`["abc\`,
		`["\u00`,
		`[tr`,
		`[-`,
		`[1.`,
		`[1e`,
		`[12`,
		`{"a":-0.5`,
		`{"result-set":{"docs":[{"id":1},{"id":`,
	} {
		t.Run(input, func(t *testing.T) {
			err := decodeError(t, input)
			var serr *SyntaxError
			require.ErrorAs(t, err, &serr)
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
			assert.LessOrEqual(t, serr.Offset, int64(len(input)))
		})
	}
}

func TestDecoderNumberCutByEOF(t *testing.T) {
	d := NewDecoder(strings.NewReader(`[12`))
	tok, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, &token.StartArray{}, tok)
	_, err = d.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// At the top level the end of the input ends the number.
	assertTokensEqual(t, decodeString(t, `12`), []token.Token{tokenWithBytes(token.Number, "12")})
}

func TestDecoderErrorIsSticky(t *testing.T) {
	d := NewDecoder(strings.NewReader(`[1,}`))
	var err error
	for err == nil {
		_, err = d.Next()
	}
	_, err2 := d.Next()
	assert.Same(t, err, err2)
}

func TestDecoderReaderErrorUnchanged(t *testing.T) {
	errReset := errors.New("connection reset by peer")
	in := io.MultiReader(strings.NewReader(`{"result-set":{"docs":[{"id":1}`), iotest.ErrReader(errReset))
	d := NewDecoder(in)
	var err error
	for err == nil {
		_, err = d.Next()
	}
	assert.Same(t, errReset, err)
}

func TestDecoderLongTokensAcrossBuffer(t *testing.T) {
	long := strings.Repeat("abcdefghij", 100)
	input := `{"` + long + `":["` + long + `", 1234567890.0987654321]}`
	d := NewDecoderSize(iotest.HalfReader(strings.NewReader(input)), 16)
	tokens := collect(t, d)
	require.Len(t, tokens, 7)
	assert.True(t, tokens[1].(*token.Scalar).EqualsString(long))
	assert.True(t, tokens[3].(*token.Scalar).EqualsString(long))
	assert.Equal(t, "1234567890.0987654321", string(tokens[4].(*token.Scalar).Bytes))
	assert.Equal(t, int64(len(input)), d.Offset())
}

func TestDecoderChunkedInput(t *testing.T) {
	input := `{"result-set":{"docs":[{"id":1,"label":"café"},{"id":2}]},"EOF":true}`
	expected := decodeString(t, input)
	for size := 1; size <= 8; size++ {
		var chunks []string
		for rest := input; rest != ""; {
			n := min(size, len(rest))
			chunks = append(chunks, rest[:n])
			rest = rest[n:]
		}
		r := chunkstream.NewReader(chunkstream.NewSliceSource(chunks...))
		assertTokensEqual(t, collect(t, NewDecoderSize(r, 4)), expected)
	}
}

func TestDecoderDeepNesting(t *testing.T) {
	const depth = 1000
	input := strings.Repeat("[", depth) + strings.Repeat("]", depth)
	tokens := decodeString(t, input)
	assert.Len(t, tokens, 2*depth)
}

func decodeString(t *testing.T, input string) []token.Token {
	t.Helper()
	return collect(t, NewDecoder(strings.NewReader(input)))
}

func collect(t *testing.T, d *Decoder) []token.Token {
	t.Helper()
	var tokens []token.Token
	for {
		tok, err := d.Next()
		if err == io.EOF {
			return tokens
		}
		require.NoError(t, err)
		tokens = append(tokens, tok)
	}
}

func decodeError(t *testing.T, input string) error {
	t.Helper()
	d := NewDecoder(strings.NewReader(input))
	for {
		_, err := d.Next()
		if err == io.EOF {
			t.Fatalf("expected an error decoding %q", input)
		}
		if err != nil {
			return err
		}
	}
}

// tokenWithBytes creates a scalar token with specific bytes
func tokenWithBytes(typ token.ScalarType, bytes string) *token.Scalar {
	return token.NewScalar(typ, []byte(bytes))
}

// assertTokensEqual compares two token slices
func assertTokensEqual(t *testing.T, got, want []token.Token) {
	t.Helper()
	require.Equal(t, len(want), len(got), "token count mismatch")
	for i := range got {
		assert.IsType(t, want[i], got[i], "token %d", i)
		if w, ok := want[i].(*token.Scalar); ok {
			g := got[i].(*token.Scalar)
			assert.Equal(t, w.Type(), g.Type(), "token %d", i)
			assert.Equal(t, w.IsKey(), g.IsKey(), "token %d", i)
			assert.Equal(t, string(w.Bytes), string(g.Bytes), "token %d", i)
		}
	}
}

func TestDecoderTokenError(t *testing.T) {
	input := "[1,\n  {\"key\" : \"value\"}]"
	d := NewDecoderSize(strings.NewReader(input), 4)
	starts := []string{"[", "1", "{", `"key"`, `"value"`}
	for _, start := range starts {
		_, err := d.Next()
		require.NoError(t, err)
		cause := errors.New("cause")
		serr := d.TokenError("bad", cause)
		assert.Equal(t, int64(strings.Index(input, start)), serr.Offset, "token %s", start)
		assert.Same(t, cause, serr.Err)
	}
	serr := d.TokenError("bad", nil)
	assert.Equal(t, 2, serr.Line)
	assert.Equal(t, 12, serr.Col)
}
