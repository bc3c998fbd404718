package xmltoken

import (
	"errors"
	"fmt"
)

var (
	errNilTokenizer       = errors.New("nil tokenizer")
	errUnexpectedEOF      = errors.New("unexpected end of input")
	errExpectedIdentifier = errors.New("expected identifier")
	errExpectedQuote      = errors.New("expected quoted value")
	errInvalidCharRef     = errors.New("invalid character reference")
	errInvalidEntity      = errors.New("invalid entity reference")
	errInvalidDeclaration = errors.New("invalid markup declaration")
)

// SyntaxError reports malformed input with the rune offset where the
// tokenizer gave up.
type SyntaxError struct {
	Offset int64
	Err    error
}

// Error formats the syntax error with location and cause.
func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("xml syntax error at offset %d: %v", e.Offset, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SyntaxError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
