package client

import (
	"context"
	"fmt"
	"iter"

	"github.com/google/go-querystring/query"
	"github.com/juju/errors"

	"github.com/isamplesorg/isamples-go/chunkstream"
	"github.com/isamplesorg/isamples-go/extract"
)

// StreamParams are the parameters of a streaming query.
type StreamParams struct {
	Query       string   `url:"q"`
	FilterQuery string   `url:"fq,omitempty"`
	Rows        int      `url:"rows"`
	Start       int      `url:"start,omitempty"`
	Fields      []string `url:"fl,comma,omitempty"`

	// Random selects the records at random rather than in index order.
	Random bool `url:"-"`

	// XYCount aggregates the records by longitude and latitude and returns
	// the count of each location.
	XYCount bool `url:"xycount,omitempty"`
}

type streamQuery struct {
	StreamParams
	Select string `url:"select,omitempty"`
}

// StreamException is returned when the service reports an error in the
// middle of a stream.
type StreamException struct {
	Message string
	Record  map[string]any
}

func (e *StreamException) Error() string {
	return "stream exception: " + e.Message
}

func (c *Client) StreamURL(p StreamParams) (string, error) {
	if p.Query == "" {
		p.Query = DefaultQuery
	}
	if p.Rows <= 0 {
		p.Rows = DefaultRows
	}
	sq := streamQuery{StreamParams: p}
	if p.Random {
		sq.Select = "random"
	}
	v, err := query.Values(sq)
	if err != nil {
		return "", errors.Annotate(err, "failed to generate URL query from stream parameters")
	}
	return c.baseURL + "/thing/stream?" + v.Encode(), nil
}

// Stream returns the records matching p, one at a time as they arrive.  The
// sequence ends after its first error, which is one of the errors returned
// by extract.Extractor, a *StreamException or a transport error.  The
// response body is closed when the sequence ends, including when the caller
// stops iterating early.
func (c *Client) Stream(ctx context.Context, p StreamParams) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		u, err := c.StreamURL(p)
		if err != nil {
			yield(nil, err)
			return
		}
		body, err := c.get(ctx, u)
		if err != nil {
			yield(nil, err)
			return
		}
		defer body.Close()

		src := chunkstream.NewReaderSource(body, c.chunkSize)
		x := extract.New(chunkstream.NewReader(src), extract.WithNumberMode(c.numbers))
		count := 0
		for rec, err := range x.All() {
			if err != nil {
				logger.Errorf("stream from %s failed in %s after %d records: %v", u, x.CurrentPath(), count, err)
				yield(nil, err)
				return
			}
			if m, ok := rec.(map[string]any); ok {
				if msg, ok := m["EXCEPTION"]; ok {
					yield(nil, &StreamException{Message: fmt.Sprint(msg), Record: m})
					return
				}
				if eof, _ := m["EOF"].(bool); eof {
					// Solr ends the stream with a record carrying only
					// metadata.
					logger.Tracef("end of stream: %v", m)
					continue
				}
			}
			count++
			if !yield(rec, nil) {
				logger.Debugf("stream from %s stopped after %d records", u, count)
				return
			}
		}
		logger.Debugf("streamed %d records of %s from %s", count, x.Path(), u)
	}
}
