package format

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var record = map[string]any{
	"id":       "ark:/28722/k2x",
	"latitude": json.Number("-12.500"),
	"tags":     []any{"rock", true, nil},
	"source":   map[string]any{},
	"extra":    []any{},
	"elev":     1.5,
}

func TestEncodeIndented(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, NewEncoder(&b, 2, nil).Encode(record))
	assert.Equal(t, `{
  "elev": 1.5,
  "extra": [],
  "id": "ark:/28722/k2x",
  "latitude": -12.500,
  "source": {},
  "tags": [
    "rock",
    true,
    null
  ]
}
`, b.String())
}

func TestEncodeCompact(t *testing.T) {
	var b bytes.Buffer
	enc := NewEncoder(&b, -1, nil)
	require.NoError(t, enc.Encode(record))
	require.NoError(t, enc.Encode("x<y"))
	assert.Equal(t, `{"elev":1.5,"extra":[],"id":"ark:/28722/k2x","latitude":-12.500,"source":{},"tags":["rock",true,null]}`+"\n"+`"x<y"`+"\n", b.String())

	// The output is valid JSON.
	line, _, _ := strings.Cut(b.String(), "\n")
	assert.True(t, json.Valid([]byte(line)))
}

func TestEncodeColors(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, NewEncoder(&b, -1, &DefaultColorizer).Encode(map[string]any{"a": json.Number("1")}))
	assert.Equal(t, "{\033[34;1m\"a\"\033[0m:\033[37m1\033[0m}\n", b.String())
}

func TestEncodeUnsupported(t *testing.T) {
	var b bytes.Buffer
	enc := NewEncoder(&b, -1, nil)
	var perr *PrinterError
	assert.ErrorAs(t, enc.Encode(struct{}{}), &perr)
	assert.ErrorAs(t, enc.Encode(math.Inf(1)), &perr)
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write([]byte) (int, error) {
	return 0, w.err
}

func TestEncodeWriteError(t *testing.T) {
	err := NewEncoder(failingWriter{syscall.EPIPE}, 2, nil).Encode(record)
	var perr *PrinterError
	require.ErrorAs(t, err, &perr)
	assert.True(t, errors.Is(err, syscall.EPIPE))
}

func TestAutoFlush(t *testing.T) {
	var b bytes.Buffer
	w := bufio.NewWriter(&b)
	enc := NewEncoder(w, -1, nil)
	require.NoError(t, enc.Encode(1.0))
	assert.Equal(t, 0, b.Len())

	enc.AutoFlush = true
	require.NoError(t, enc.Encode(2.0))
	assert.Equal(t, "1\n2\n", b.String())
}

func TestCatchPrinterErrorRepanics(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		var err error
		defer CatchPrinterError(&err)
		panic("boom")
	})
}
