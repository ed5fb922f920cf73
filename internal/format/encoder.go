package format

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/isamplesorg/isamples-go/token"
)

// An Encoder writes decoded JSON values (as returned by the extract package)
// using a Printer.  Object keys are written in sorted order.
type Encoder struct {
	Printer
	*Colorizer

	// Flush the printer after each value
	AutoFlush bool

	compact bool
}

// NewEncoder returns an Encoder writing to w, indenting nested values by
// indent spaces.  If indent is negative each value is written on a single
// line without spaces.
func NewEncoder(w io.Writer, indent int, colorizer *Colorizer) *Encoder {
	return &Encoder{
		Printer:   &DefaultPrinter{Writer: w, IndentSize: indent},
		Colorizer: colorizer,
		compact:   indent < 0,
	}
}

// Encode writes v followed by a new line.  An error is returned if the
// Printer failed to write.
func (e *Encoder) Encode(v any) (err error) {
	defer CatchPrinterError(&err)
	e.writeValue(v)
	e.PrintBytes(newLineBytes)
	e.Printer.Reset()
	if e.AutoFlush {
		e.Flush()
	}
	return nil
}

// Flush flushes the Printer if it supports it.
func (e *Encoder) Flush() {
	if f, ok := e.Printer.(interface{ Flush() }); ok {
		f.Flush()
	}
}

func (e *Encoder) writeValue(v any) {
	switch x := v.(type) {
	case nil:
		e.Colorizer.PrintScalar(e.Printer, token.NullScalar)
	case bool:
		e.Colorizer.PrintScalar(e.Printer, token.BoolScalar(x))
	case string:
		e.Colorizer.PrintScalar(e.Printer, token.StringScalar(x))
	case json.Number:
		e.Colorizer.PrintScalar(e.Printer, token.NumberScalar(x.String()))
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			panic(wrapError(fmt.Errorf("cannot encode %v as JSON", x)))
		}
		e.Colorizer.PrintScalar(e.Printer, token.NumberScalar(strconv.FormatFloat(x, 'g', -1, 64)))
	case int:
		e.Colorizer.PrintScalar(e.Printer, token.Int64Scalar(int64(x)))
	case int64:
		e.Colorizer.PrintScalar(e.Printer, token.Int64Scalar(x))
	case map[string]any:
		e.writeObject(x)
	case []any:
		e.writeArray(x)
	case []string:
		arr := make([]any, len(x))
		for i, s := range x {
			arr[i] = s
		}
		e.writeArray(arr)
	default:
		panic(wrapError(fmt.Errorf("cannot encode value of type %T", v)))
	}
}

func (e *Encoder) writeObject(obj map[string]any) {
	e.PrintBytes(openObjectBytes)
	if len(obj) == 0 {
		e.PrintBytes(closeObjectBytes)
		return
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for i, k := range keys {
		if i == 0 {
			e.Indent()
		} else {
			e.PrintBytes(itemSeparatorBytes)
			e.NewLine()
		}
		e.Colorizer.PrintScalar(e.Printer, token.KeyScalar(k))
		if e.compact {
			e.PrintBytes(compactKeyValueSeparatorBytes)
		} else {
			e.PrintBytes(keyValueSeparatorBytes)
		}
		e.writeValue(obj[k])
	}
	e.Dedent()
	e.PrintBytes(closeObjectBytes)
}

func (e *Encoder) writeArray(arr []any) {
	e.PrintBytes(openArrayBytes)
	if len(arr) == 0 {
		e.PrintBytes(closeArrayBytes)
		return
	}
	for i, v := range arr {
		if i == 0 {
			e.Indent()
		} else {
			e.PrintBytes(itemSeparatorBytes)
			e.NewLine()
		}
		e.writeValue(v)
	}
	e.Dedent()
	e.PrintBytes(closeArrayBytes)
}

var (
	openObjectBytes               = []byte("{")
	closeObjectBytes              = []byte("}")
	openArrayBytes                = []byte("[")
	closeArrayBytes               = []byte("]")
	itemSeparatorBytes            = []byte(",")
	keyValueSeparatorBytes        = []byte(": ")
	compactKeyValueSeparatorBytes = []byte(":")
)
