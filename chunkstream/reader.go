// Package chunkstream presents a stream of text chunks, as they arrive over a
// connection, as a pull source.
//
// A Reader holds at most one chunk that has not been fully consumed.  It only
// asks its Source for the next chunk once that remainder is drained, so
// reading from it never requires more than one chunk of memory, whatever the
// size of the stream.  The only exception is a UTF-8 sequence cut by a chunk
// boundary: the (at most 3) leading bytes are kept and joined with the next
// chunk so a character is never split by Next.
package chunkstream

import (
	"io"
	"strings"
	"unicode/utf8"
)

// Reader pulls chunks from a Source on demand.  It is not safe for concurrent
// use.
type Reader struct {
	src Source

	// Unconsumed part of the current chunk
	pending string

	// Sticky: io.EOF once the source is exhausted, or the source failure.
	err error
}

var _ io.Reader = &Reader{}

// NewReader returns a Reader pulling its data from src.
func NewReader(src Source) *Reader {
	return &Reader{src: src}
}

// fill pulls the next non-empty chunk from the source and appends it to the
// pending remainder.  It returns false if no more data can be obtained, in
// which case r.err is set.
func (r *Reader) fill() bool {
	if r.err != nil {
		return false
	}
	for i := maxConsecutiveEmptyReads; i > 0; i-- {
		chunk, err := r.src.Next()
		if err != nil {
			r.err = err
			return false
		}
		if chunk != "" {
			r.pending += chunk
			return true
		}
	}
	r.err = io.ErrNoProgress
	return false
}

// failure returns the error to report when a call could not produce any data.
// Exhaustion is not an error.
func (r *Reader) failure() error {
	if r.err == io.EOF {
		return nil
	}
	return r.err
}

// Next returns up to n characters, pulling chunks from the source as needed.
// If n is negative, all the remaining characters are returned.  The empty
// string is returned with a nil error only when the source is exhausted and
// nothing is buffered.
//
// If the source fails after some characters have been collected, these are
// returned and the error is reported by the next call.
func (r *Reader) Next(n int) (string, error) {
	var sb strings.Builder
	for n != 0 {
		if r.pending == "" && !r.fill() {
			break
		}
		size, count := runePrefix(r.pending, n)
		if size == 0 {
			// The remainder is the start of a character cut by a chunk
			// boundary.
			if r.fill() {
				continue
			}
			// The stream ends in the middle of a character, hand out what is
			// left as it is.
			size, count = len(r.pending), 1
		}
		sb.WriteString(r.pending[:size])
		r.pending = r.pending[size:]
		if n > 0 {
			n -= count
		}
	}
	if sb.Len() == 0 && n != 0 {
		return "", r.failure()
	}
	return sb.String(), nil
}

// ReadLine returns the next line including its terminating '\n'.  The last
// line of the stream is returned without a newline if it has none.  The
// empty string is returned with a nil error only when the source is exhausted
// and nothing is buffered.
func (r *Reader) ReadLine() (string, error) {
	var sb strings.Builder
	for {
		if r.pending == "" && !r.fill() {
			break
		}
		if i := strings.IndexByte(r.pending, '\n'); i >= 0 {
			sb.WriteString(r.pending[:i+1])
			r.pending = r.pending[i+1:]
			return sb.String(), nil
		}
		sb.WriteString(r.pending)
		r.pending = ""
	}
	if sb.Len() == 0 {
		return "", r.failure()
	}
	return sb.String(), nil
}

// Read implements io.Reader.  Unlike Next and ReadLine it follows the io
// conventions and returns io.EOF when the source is exhausted.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.pending == "" && !r.fill() {
		return 0, r.err
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// Buffered returns the number of bytes received from the source and not yet
// consumed.
func (r *Reader) Buffered() int {
	return len(r.pending)
}

// runePrefix returns the size in bytes of the longest prefix of s made of at
// most n complete characters (any number if n < 0), and the number of
// characters in it.  Invalid bytes count as one character each.
func runePrefix(s string, n int) (size, count int) {
	for size < len(s) && (n < 0 || count < n) {
		if !utf8.FullRuneInString(s[size:]) {
			break
		}
		_, w := utf8.DecodeRuneInString(s[size:])
		size += w
		count++
	}
	return size, count
}
