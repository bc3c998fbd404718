// Package sax is a streaming XML parsing core: it turns a byte or
// character stream into a pull-based sequence of namespace-resolved
// events, with parser combinators for assembling domain parsers over
// that sequence without materializing a document tree.
package sax

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/jacoelho/sax/internal/charenc"
	"github.com/jacoelho/sax/pkg/xmlevent"
	"github.com/jacoelho/sax/pkg/xmltoken"
)

// Events returns the event stream of the XML document read from r.
// The character encoding is auto-detected from the first bytes of
// input; see the charenc decision table for the supported variants.
func Events(r io.Reader) (*xmlevent.Cursor, error) {
	decoded, err := charenc.NewReader(r)
	if err != nil {
		return nil, err
	}
	tz := xmltoken.NewTokenizer(bufio.NewReader(decoded))
	return xmlevent.NewCursor(xmlevent.NewResolver(tz)), nil
}

// EventsFromBytes is Events over an in-memory document.
func EventsFromBytes(data []byte) (*xmlevent.Cursor, error) {
	return Events(bytes.NewReader(data))
}

// EventsFromString returns the event stream of a document that is
// already decoded to characters; encoding detection is skipped.
func EventsFromString(doc string) *xmlevent.Cursor {
	tz := xmltoken.NewTokenizer(strings.NewReader(doc))
	return xmlevent.NewCursor(xmlevent.NewResolver(tz))
}

// ParseReader runs consumer over the event stream of r and returns
// its value or the first error.
func ParseReader[T any](r io.Reader, consumer func(*xmlevent.Cursor) (T, error)) (T, error) {
	var zero T
	cursor, err := Events(r)
	if err != nil {
		return zero, err
	}
	return consumer(cursor)
}

// ParseFile runs consumer over the event stream of the named file.
// Gzip-compressed files are decompressed transparently.
func ParseFile[T any](path string, consumer func(*xmlevent.Cursor) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return zero, err
	}
	var src io.Reader = br
	if len(magic) == 2 && magic[0] == 0x1F && magic[1] == 0x8B {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return zero, err
		}
		defer func() { _ = zr.Close() }()
		src = zr
	}
	return ParseReader(src, consumer)
}
