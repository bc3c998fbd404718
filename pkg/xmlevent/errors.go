package xmlevent

import (
	"fmt"
	"strings"
)

// ErrorKind distinguishes the cases of a parse error.
type ErrorKind uint8

const (
	// ErrorParse is a generic parse or expectation failure.
	ErrorParse ErrorKind = iota
	// ErrorEndTagMismatch reports an end tag that does not match the
	// open element; Name holds the actual end-tag name.
	ErrorEndTagMismatch
	// ErrorUnresolvedEntity reports an entity reference a consumer
	// elected to reject; Entity holds the entity name.
	ErrorUnresolvedEntity
	// ErrorUnparsedAttributes reports attributes left over after an
	// attribute parser completed; Attrs holds the leftovers.
	ErrorUnparsedAttributes
)

// Error is the parse error surfaced by the event and combinator
// layers. Msg and the optional offending Event cover the generic
// case; the remaining fields belong to the specific kinds.
type Error struct {
	Kind   ErrorKind
	Msg    string
	Event  *Event
	Name   QName
	Entity string
	Attrs  []Attr
}

// Error formats the error according to its kind.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrorEndTagMismatch:
		return fmt.Sprintf("xml parse error: end tag %s does not close the open element", e.Name)
	case ErrorUnresolvedEntity:
		return fmt.Sprintf("xml parse error: unresolved entity &%s;", e.Entity)
	case ErrorUnparsedAttributes:
		names := make([]string, 0, len(e.Attrs))
		for _, attr := range e.Attrs {
			names = append(names, attr.Name.String())
		}
		return fmt.Sprintf("xml parse error: unparsed attributes: %s", strings.Join(names, ", "))
	default:
		if e.Event != nil {
			return fmt.Sprintf("xml parse error: %s (at %s)", e.Msg, e.Event)
		}
		return "xml parse error: " + e.Msg
	}
}
