// Package isamples is a client for the iSamples services, built around a
// streaming JSON extractor.
//
// The module is organized into several packages:
//
// - chunkstream: turns a source of text chunks into a pull based reader
// - encoding/json: pull JSON decoder producing tokens
// - token: JSON tokens
// - extract: streams the elements of one array of a JSON document
// - client: HTTP client for the iSamples API
//
// A streamed response flows through them as a pipeline:
//
//	HTTP body -> chunkstream -> encoding/json -> extract -> records
//
// Each stage pulls from the previous one, so records are available as soon
// as they have been received, and memory usage does not grow with the size of
// the response.
//
// The isamples command is in the directory cmd/isamples. You can install it with:
//
//	go install github.com/isamplesorg/isamples-go/cmd/isamples
package isamples
