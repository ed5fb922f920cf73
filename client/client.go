// Package client talks to the HTTP API of an iSamples service.
package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/isamplesorg/isamples-go/chunkstream"
	"github.com/isamplesorg/isamples-go/extract"
)

var logger = loggo.GetLogger("isamples.client")

// RecordFormats are the representations a thing can be fetched in.
var RecordFormats = []string{"core", "original", "full", "solr"}

const (
	DefaultConcurrency = 8
	DefaultRows        = 10
	DefaultQuery       = "*:*"

	// Longest part of an error response body kept in a StatusError
	maxErrorBody = 512
)

// Client is a client for one iSamples service.  It is safe for concurrent use.
type Client struct {
	baseURL     string
	http        *http.Client
	chunkSize   int
	concurrency int
	numbers     extract.NumberMode
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout limits the time spent connecting to the service and waiting for
// the headers of each response.  Reading a response body has no deadline, so a
// long stream is not cut off; use the context to stop it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http = &http.Client{Transport: newTransport(d)}
	}
}

func newTransport(timeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if timeout > 0 {
		t.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
		t.TLSHandshakeTimeout = timeout
		t.ResponseHeaderTimeout = timeout
	}
	return t
}

// WithChunkSize sets the size of the chunks a streamed response body is read
// in.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		c.chunkSize = n
	}
}

// WithConcurrency sets how many records Records fetches at the same time.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		c.concurrency = n
	}
}

func WithNumberMode(m extract.NumberMode) Option {
	return func(c *Client) {
		c.numbers = m
	}
}

// New returns a client for the service at baseURL, e.g.
// "https://hyde.cyverse.org".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        http.DefaultClient,
		chunkSize:   chunkstream.DefaultChunkSize,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.chunkSize <= 0 {
		c.chunkSize = chunkstream.DefaultChunkSize
	}
	if c.concurrency <= 0 {
		c.concurrency = 1
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// StatusError is returned when the service answers with a status other
// than 2xx.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string

	// Beginning of the response body
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("GET %s: %s: %s", e.URL, e.Status, e.Body)
}

type thingQuery struct {
	Format string `url:"format"`
}

// ThingURL returns the URL of the record of pid in the given format.
func (c *Client) ThingURL(pid, format string) (string, error) {
	if !slices.Contains(RecordFormats, format) {
		return "", errors.NotValidf("record format %q", format)
	}
	v, err := query.Values(thingQuery{Format: format})
	if err != nil {
		return "", errors.Trace(err)
	}
	parts := strings.Split(pid, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.baseURL + "/thing/" + strings.Join(parts, "/") + "?" + v.Encode(), nil
}

// Thing fetches the record of pid.
func (c *Client) Thing(ctx context.Context, pid, format string) (any, error) {
	u, err := c.ThingURL(pid, format)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return c.getJSON(ctx, u)
}

// SelectParams are the parameters of a Solr select query.
type SelectParams struct {
	Query       string `url:"q"`
	FilterQuery string `url:"fq,omitempty"`
	Rows        int    `url:"rows"`
	Start       int    `url:"start"`
	Fields      string `url:"fl"`
}

type selectQuery struct {
	SelectParams
	WriterType string `url:"wt"`
}

func (p SelectParams) withDefaults() SelectParams {
	if p.Query == "" {
		p.Query = DefaultQuery
	}
	if p.Rows <= 0 {
		p.Rows = DefaultRows
	}
	if p.Fields == "" {
		p.Fields = "*"
	}
	return p
}

func (c *Client) selectURL(p SelectParams) (string, error) {
	v, err := query.Values(selectQuery{SelectParams: p.withDefaults(), WriterType: "json"})
	if err != nil {
		return "", errors.Annotate(err, "failed to generate URL query from select parameters")
	}
	return c.baseURL + "/thing/select?" + v.Encode(), nil
}

// Select runs a Solr query and returns the whole response.
func (c *Client) Select(ctx context.Context, p SelectParams) (map[string]any, error) {
	u, err := c.selectURL(p)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return c.getObject(ctx, u)
}

// SelectInfo returns the description of the Solr index, including its
// schema.
func (c *Client) SelectInfo(ctx context.Context) (map[string]any, error) {
	return c.getObject(ctx, c.baseURL+"/thing/select/info")
}

// IDs returns the identifiers of the things matching q and fq.
func (c *Client) IDs(ctx context.Context, q, fq string, rows, offset int) ([]string, error) {
	u, err := c.selectURL(SelectParams{Query: q, FilterQuery: fq, Rows: rows, Start: offset, Fields: "id"})
	if err != nil {
		return nil, errors.Trace(err)
	}
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer body.Close()

	ids := []string{}
	x := extract.New(body, extract.WithPath(extract.Path{extract.Key("response"), extract.Key("docs")}))
	for doc, err := range x.All() {
		if err != nil {
			return nil, errors.Annotatef(err, "reading identifiers from %s", u)
		}
		m, _ := doc.(map[string]any)
		id, ok := m["id"].(string)
		if !ok {
			logger.Warningf("skipping document without identifier: %v", doc)
			continue
		}
		ids = append(ids, id)
	}
	logger.Debugf("found %d identifiers in %s", len(ids), x.Path())
	return ids, nil
}

// A Record is a thing fetched by Records.
type Record struct {
	PID   string
	Value any
}

// Records fetches the records of pids concurrently.  Records are returned in
// the order of pids.  The first failure cancels the fetches still running.
func (c *Client) Records(ctx context.Context, pids []string, format string) ([]Record, error) {
	records := make([]Record, len(pids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, pid := range pids {
		u, err := c.ThingURL(pid, format)
		if err != nil {
			return nil, errors.Trace(err)
		}
		g.Go(func() error {
			v, err := c.getJSON(gctx, u)
			if err != nil {
				return errors.Annotatef(err, "fetching %s", pid)
			}
			records[i] = Record{PID: pid, Value: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) getObject(ctx context.Context, u string) (map[string]any, error) {
	v, err := c.getJSON(ctx, u)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errors.NotValidf("response from %s is not an object", u)
	}
	return m, nil
}

func (c *Client) getJSON(ctx context.Context, u string) (any, error) {
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer body.Close()
	v, err := extract.Decode(body, extract.WithNumberMode(c.numbers))
	if err != nil {
		return nil, errors.Annotatef(err, "decoding response from %s", u)
	}
	return v, nil
}

// get sends a GET request for u and returns the decoded response body, which
// the caller must close.
func (c *Client) get(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, zstd")
	logger.Debugf("GET %s", u)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Annotatef(err, "cannot connect to %s", c.baseURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			URL:        u,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}
	body, err := decodeBody(resp)
	if err != nil {
		resp.Body.Close()
		return nil, errors.Annotatef(err, "decoding %s response from %s", resp.Header.Get("Content-Encoding"), u)
	}
	return body, nil
}

// decodeBody undoes the Content-Encoding of resp.
func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))); enc {
	case "", "identity":
		return resp.Body, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return &decodedBody{Reader: zr, closers: []io.Closer{zr, resp.Body}}, nil
	case "zstd":
		zr, err := zstd.NewReader(resp.Body, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		rc := zr.IOReadCloser()
		return &decodedBody{Reader: rc, closers: []io.Closer{rc, resp.Body}}, nil
	default:
		return nil, errors.NotSupportedf("content encoding %q", enc)
	}
}

type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (b *decodedBody) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
