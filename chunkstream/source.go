package chunkstream

import "io"

// A Source delivers the chunks of a text stream in arrival order.
//
// Next returns the next chunk, or io.EOF once the stream is exhausted.  Any
// other error means the underlying transport failed.  A non-nil error is
// never accompanied by a chunk.  Next may block while it waits for data.
type Source interface {
	Next() (string, error)
}

// DefaultChunkSize is the chunk size used by NewReaderSource when it is given
// a non-positive size.
const DefaultChunkSize = 4096

// SliceSource delivers a fixed list of chunks.
type SliceSource struct {
	chunks []string
}

var _ Source = &SliceSource{}

// NewSliceSource returns a Source which delivers the given chunks in order.
func NewSliceSource(chunks ...string) *SliceSource {
	return &SliceSource{chunks: chunks}
}

func (s *SliceSource) Next() (string, error) {
	if len(s.chunks) == 0 {
		return "", io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}

// FuncSource turns a function into a Source.
type FuncSource func() (string, error)

var _ Source = FuncSource(nil)

func (f FuncSource) Next() (string, error) {
	return f()
}

// ChannelSource delivers the chunks sent on a channel.  Closing the channel
// signals the end of the stream.
type ChannelSource <-chan string

var _ Source = make(ChannelSource)

func (c ChannelSource) Next() (string, error) {
	chunk, ok := <-c
	if !ok {
		return "", io.EOF
	}
	return chunk, nil
}

// ReaderSource cuts the bytes read from an io.Reader (typically an HTTP
// response body) into chunks.  A chunk is whatever a single Read call
// returned, so chunk boundaries follow the arrival of data.
type ReaderSource struct {
	reader io.Reader
	buf    []byte

	// Error returned by the reader together with the last chunk, reported
	// on the following call.
	err error
}

var _ Source = &ReaderSource{}

// NewReaderSource returns a Source reading chunks of at most size bytes from
// r.
func NewReaderSource(r io.Reader, size int) *ReaderSource {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &ReaderSource{reader: r, buf: make([]byte, size)}
}

func (s *ReaderSource) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for i := maxConsecutiveEmptyReads; i > 0; i-- {
		n, err := s.reader.Read(s.buf)
		if n > 0 {
			s.err = err
			return string(s.buf[:n]), nil
		}
		if err != nil {
			s.err = err
			return "", err
		}
	}
	s.err = io.ErrNoProgress
	return "", s.err
}

const maxConsecutiveEmptyReads = 100
