package xmlparse

import (
	"github.com/jacoelho/sax/pkg/xmlevent"
	"github.com/jacoelho/sax/pkg/xmltoken"
)

// AttrParser threads the remaining attribute list of a single element
// through a sequence of picks. Tag raises the leftover-attributes
// error when any attribute is still unconsumed after the caller's
// attribute function returns; use IgnoreAttrs to discard the rest.
type AttrParser struct {
	remaining []xmlevent.Attr
}

// NewAttrParser creates a parser over the given attributes in input
// order.
func NewAttrParser(attrs []xmlevent.Attr) *AttrParser {
	return &AttrParser{remaining: append([]xmlevent.Attr(nil), attrs...)}
}

// RequireAttrRaw finds the first remaining attribute accepted by pick,
// removes it and returns pick's value. It fails with msg when no
// attribute is accepted.
func RequireAttrRaw[T any](p *AttrParser, msg string, pick func(xmlevent.Attr) (T, bool)) (T, error) {
	value, ok := OptionalAttrRaw(p, pick)
	if !ok {
		var zero T
		return zero, &xmlevent.Error{Msg: msg}
	}
	return value, nil
}

// OptionalAttrRaw is RequireAttrRaw with a missing-value result
// instead of an error.
func OptionalAttrRaw[T any](p *AttrParser, pick func(xmlevent.Attr) (T, bool)) (T, bool) {
	for i, attr := range p.remaining {
		if value, ok := pick(attr); ok {
			p.remaining = append(p.remaining[:i:i], p.remaining[i+1:]...)
			return value, true
		}
	}
	var zero T
	return zero, false
}

// RequireAttr consumes the named attribute and returns its flattened
// text, failing when the attribute is absent.
func (p *AttrParser) RequireAttr(name xmlevent.QName) (string, error) {
	return RequireAttrRaw(p, "missing attribute "+name.String(), pickNamed(name))
}

// OptionalAttr consumes the named attribute if present.
func (p *AttrParser) OptionalAttr(name xmlevent.QName) (string, bool) {
	return OptionalAttrRaw(p, pickNamed(name))
}

// IgnoreAttrs discards all remaining attributes.
func (p *AttrParser) IgnoreAttrs() {
	p.remaining = nil
}

// SkipAttrs runs inner and discards whatever attributes it left over.
func SkipAttrs[T any](p *AttrParser, inner func(*AttrParser) (T, error)) (T, error) {
	value, err := inner(p)
	if err != nil {
		var zero T
		return zero, err
	}
	p.IgnoreAttrs()
	return value, nil
}

// Remaining returns the attributes not yet consumed.
func (p *AttrParser) Remaining() []xmlevent.Attr {
	return p.remaining
}

func pickNamed(name xmlevent.QName) func(xmlevent.Attr) (string, bool) {
	return func(attr xmlevent.Attr) (string, bool) {
		if !attr.Name.Equal(name) {
			return "", false
		}
		return xmltoken.Flatten(attr.Value), true
	}
}
