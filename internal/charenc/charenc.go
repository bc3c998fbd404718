// Package charenc detects the character encoding of an XML byte stream
// and exposes it as a UTF-8 character stream.
package charenc

import (
	"bufio"
	"errors"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// Encoding identifies one of the supported UTF variants.
type Encoding uint8

const (
	UTF8 Encoding = iota
	UTF16LE
	UTF16BE
	UTF32LE
	UTF32BE
)

// String returns a stable name for the encoding, suitable for debugging.
func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "UTF-8"
	case UTF16LE:
		return "UTF-16LE"
	case UTF16BE:
		return "UTF-16BE"
	case UTF32LE:
		return "UTF-32LE"
	case UTF32BE:
		return "UTF-32BE"
	default:
		return "Unknown"
	}
}

// Detect inspects up to the first four bytes of input and reports the
// encoding together with the number of BOM bytes to drop.
//
// The 4-byte BOM rows are tested before the 2-byte rows: a UTF-32 BE
// BOM begins 00 00 and a UTF-32 LE BOM contains FF FE.
func Detect(prefix []byte) (Encoding, int) {
	n := len(prefix)
	var b0, b1, b2, b3 byte
	if n > 0 {
		b0 = prefix[0]
	}
	if n > 1 {
		b1 = prefix[1]
	}
	if n > 2 {
		b2 = prefix[2]
	}
	if n > 3 {
		b3 = prefix[3]
	}
	switch {
	case n >= 4 && b0 == 0x00 && b1 == 0x00 && b2 == 0xFE && b3 == 0xFF:
		return UTF32BE, 4
	case n >= 4 && b0 == 0xFF && b1 == 0xFE && b2 == 0x00 && b3 == 0x00:
		return UTF32LE, 4
	case n >= 2 && b0 == 0xFE && b1 == 0xFF:
		return UTF16BE, 2
	case n >= 2 && b0 == 0xFF && b1 == 0xFE:
		return UTF16LE, 2
	case n >= 3 && b0 == 0xEF && b1 == 0xBB && b2 == 0xBF:
		return UTF8, 3
	case n >= 4 && b0 == 0x00 && b1 == 0x00 && b2 == 0x00 && b3 == '<':
		return UTF32BE, 0
	case n >= 4 && b0 == '<' && b1 == 0x00 && b2 == 0x00 && b3 == 0x00:
		return UTF32LE, 0
	case n >= 4 && b0 == 0x00 && b1 == '<' && b2 == 0x00 && b3 == '?':
		return UTF16BE, 0
	case n >= 4 && b0 == '<' && b1 == 0x00 && b2 == '?' && b3 == 0x00:
		return UTF16LE, 0
	default:
		return UTF8, 0
	}
}

// NewReader detects the encoding of r and returns a reader that yields
// the decoded document as UTF-8, with any byte order mark removed.
// Invalid UTF-8 byte sequences surface as errors from Read. The UTF-16
// and UTF-32 decoders do not report invalid but complete code units as
// errors; they decode them to U+FFFD.
func NewReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	prefix, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	enc, bomLen := Detect(prefix)
	if bomLen > 0 {
		if _, err := br.Discard(bomLen); err != nil {
			return nil, err
		}
	}
	return decodeReader(enc, br), nil
}

func decodeReader(enc Encoding, r io.Reader) io.Reader {
	switch enc {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Reader(r)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Reader(r)
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM).NewDecoder().Reader(r)
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM).NewDecoder().Reader(r)
	default:
		return transform.NewReader(r, encoding.UTF8Validator)
	}
}
