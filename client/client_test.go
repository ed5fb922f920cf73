package client

import (
	"context"
	stdjson "encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
}

func TestThingURL(t *testing.T) {
	c := New("https://hyde.cyverse.org/")
	u, err := c.ThingURL("ark:/28722/k2 x?", "core")
	require.NoError(t, err)
	assert.Equal(t, "https://hyde.cyverse.org/thing/ark:/28722/k2%20x%3F?format=core", u)

	_, err = c.ThingURL("ark:/1", "xml")
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestThing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/thing/igsn:ABC123", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		io.WriteString(w, `{"id":"igsn:ABC123","latitude":12.50}`)
	}))
	v, err := c.Thing(context.Background(), "igsn:ABC123", "full")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "igsn:ABC123", "latitude": stdjson.Number("12.50")}, v)
}

func TestSelect(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/thing/select", r.URL.Path)
		assert.Equal(t, "fl=%2A&fq=source%3ASESAR&q=%2A%3A%2A&rows=10&start=20&wt=json", r.URL.RawQuery)
		io.WriteString(w, `{"response":{"numFound":0,"docs":[]}}`)
	}))
	res, err := c.Select(context.Background(), SelectParams{FilterQuery: "source:SESAR", Start: 20})
	require.NoError(t, err)
	assert.Contains(t, res, "response")
}

func TestSelectInfo(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/thing/select/info", r.URL.Path)
		io.WriteString(w, `{"schema":{"fields":{"id":{"type":"string","flags":"I-S"}}}}`)
	}))
	res, err := c.SelectInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"fields": map[string]any{"id": map[string]any{"type": "string", "flags": "I-S"}}}, res["schema"])
}

func TestSelectInfoNotAnObject(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[1]`)
	}))
	_, err := c.SelectInfo(context.Background())
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestIDs(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id", r.URL.Query().Get("fl"))
		assert.Equal(t, "3", r.URL.Query().Get("rows"))
		assert.Equal(t, "lat:[0 TO *]", r.URL.Query().Get("q"))
		io.WriteString(w, `{"responseHeader":{"docs":["x"]},"response":{"numFound":99,"start":0,"docs":[{"id":"a"},{"other":1},{"id":"b"}]}}`)
	}))
	ids, err := c.IDs(context.Background(), "lat:[0 TO *]", "", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, strings.Repeat("x", 2000), http.StatusBadGateway)
	}))
	_, err := c.SelectInfo(context.Background())
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadGateway, serr.StatusCode)
	assert.Len(t, serr.Body, maxErrorBody)
}

func TestRecordsKeepOrder(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		pid := strings.TrimPrefix(r.URL.Path, "/thing/")
		fmt.Fprintf(w, `{"id":%q,"format":%q}`, pid, r.URL.Query().Get("format"))
	}), WithConcurrency(2))

	var pids []string
	for i := range 20 {
		pids = append(pids, fmt.Sprintf("ark:/28722/%d", i))
	}
	recs, err := c.Records(context.Background(), pids, "original")
	require.NoError(t, err)
	require.Len(t, recs, len(pids))
	for i, rec := range recs {
		assert.Equal(t, pids[i], rec.PID)
		assert.Equal(t, map[string]any{"id": pids[i], "format": "original"}, rec.Value)
	}
	assert.LessOrEqual(t, maxInFlight.Load(), int32(2))
}

func TestRecordsFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{}`)
	}))
	_, err := c.Records(context.Background(), []string{"a", "missing", "b"}, "core")
	assert.ErrorContains(t, err, "fetching missing")
	assert.ErrorContains(t, err, "404")

	_, err = c.Records(context.Background(), []string{"a"}, "nope")
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestNewDefaults(t *testing.T) {
	c := New("http://localhost:8000", WithChunkSize(-1), WithConcurrency(0))
	assert.Equal(t, "http://localhost:8000", c.BaseURL())
	assert.Positive(t, c.chunkSize)
	assert.Equal(t, 1, c.concurrency)
}

func TestTimeoutDoesNotLimitBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"result-set":{"docs":[{"id":1},`)
		w.(http.Flusher).Flush()
		time.Sleep(300 * time.Millisecond)
		io.WriteString(w, `{"id":2}]}}`)
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithTimeout(100*time.Millisecond))
	recs, err := collectStream(c, StreamParams{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestTimeoutWaitingForHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithTimeout(100*time.Millisecond))
	_, err := c.SelectInfo(context.Background())
	assert.ErrorContains(t, err, "timeout awaiting response headers")
}

func TestNoTimeout(t *testing.T) {
	tr := newTransport(0)
	assert.Zero(t, tr.ResponseHeaderTimeout)
	tr = newTransport(time.Minute)
	assert.Equal(t, time.Minute, tr.ResponseHeaderTimeout)
	assert.Equal(t, time.Minute, tr.TLSHandshakeTimeout)
}
