// Package xmlevent turns lexical XML tokens into namespace-resolved
// events. A Resolver maintains a stack of namespace scopes
// synchronized with element nesting and rewrites lexical names into
// qualified names; a Cursor adapts the event stream to the peek/next
// pulls the combinator layer needs.
package xmlevent

import (
	"errors"
	"io"

	"github.com/jacoelho/sax/pkg/xmltoken"
)

const xmlnsPrefix = "xmlns"

// scope is one namespace level: the default namespace URI (empty means
// none) and the prefix bindings visible to the element that owns it.
// Scopes are snapshots; they are never mutated after being pushed.
type scope struct {
	prefixes  map[string]string
	defaultNS string
}

// Resolver converts tokens into events, resolving namespaces.
type Resolver struct {
	tz      *xmltoken.Tokenizer
	stack   []scope
	pending []Event
	err     error
	began   bool
	ended   bool
}

// NewResolver creates a resolver reading tokens from tz.
func NewResolver(tz *xmltoken.Tokenizer) *Resolver {
	return &Resolver{tz: tz}
}

// Next returns the next event. The stream always starts with
// BeginDocument and ends with EndDocument followed by io.EOF.
func (r *Resolver) Next() (Event, error) {
	if r == nil || r.tz == nil {
		return Event{}, errNilResolver
	}
	if r.err != nil {
		return Event{}, r.err
	}
	ev, err := r.next()
	if err != nil {
		r.err = err
		return Event{}, err
	}
	return ev, nil
}

func (r *Resolver) next() (Event, error) {
	if len(r.pending) > 0 {
		ev := r.pending[0]
		r.pending = r.pending[1:]
		return ev, nil
	}
	if !r.began {
		r.began = true
		return r.beginDocument()
	}
	for {
		tok, err := r.tz.Next()
		if errors.Is(err, io.EOF) {
			return r.endOfInput()
		}
		if err != nil {
			return Event{}, err
		}
		ev, ok, err := r.resolve(tok)
		if err != nil {
			return Event{}, err
		}
		if ok {
			return ev, nil
		}
	}
}

// beginDocument injects the BeginDocument event, attaching the prolog
// pseudo-attributes when the document starts with an XML declaration.
func (r *Resolver) beginDocument() (Event, error) {
	tok, err := r.tz.Next()
	if errors.Is(err, io.EOF) {
		r.pending = append(r.pending, Event{Kind: KindEndDocument})
		r.ended = true
		return Event{Kind: KindBeginDocument}, nil
	}
	if err != nil {
		return Event{}, err
	}
	if tok.Kind == xmltoken.KindBeginDocument {
		return Event{Kind: KindBeginDocument, Attrs: lexicalAttrs(tok.Attrs)}, nil
	}
	ev, ok, err := r.resolve(tok)
	if err != nil {
		return Event{}, err
	}
	if ok {
		// resolve may already have queued follow-up events; the
		// resolved event goes in front of them.
		r.pending = append([]Event{ev}, r.pending...)
	}
	return Event{Kind: KindBeginDocument}, nil
}

func (r *Resolver) endOfInput() (Event, error) {
	if len(r.stack) > 0 {
		return Event{}, &Error{Msg: "unexpected end of input with open elements"}
	}
	if !r.ended {
		r.ended = true
		return Event{Kind: KindEndDocument}, nil
	}
	return Event{}, io.EOF
}

// resolve rewrites one token into an event. The boolean is false for
// tokens that produce no event of their own, such as a repeated XML
// declaration. Tokens that expand to several events queue the extras.
func (r *Resolver) resolve(tok xmltoken.Token) (Event, bool, error) {
	switch tok.Kind {
	case xmltoken.KindBeginDocument:
		return Event{}, false, nil
	case xmltoken.KindInstruction:
		return Event{Kind: KindInstruction, Target: tok.Target, Body: tok.Body}, true, nil
	case xmltoken.KindContent:
		return Event{Kind: KindContent, Fragment: tok.Fragment}, true, nil
	case xmltoken.KindComment:
		return Event{Kind: KindComment, Text: tok.Text}, true, nil
	case xmltoken.KindCDATA:
		return Event{Kind: KindCDATA, Text: tok.Text}, true, nil
	case xmltoken.KindDoctype:
		r.pending = append(r.pending, Event{Kind: KindEndDoctype})
		return Event{
			Kind:        KindBeginDoctype,
			DoctypeRoot: tok.DoctypeRoot,
			ExternalID:  tok.ExternalID,
		}, true, nil
	case xmltoken.KindBeginElement:
		ev, err := r.beginElement(tok)
		return ev, err == nil, err
	case xmltoken.KindEndElement:
		ev, err := r.endElement(tok)
		return ev, err == nil, err
	default:
		return Event{}, false, &Error{Msg: "unexpected token kind " + tok.Kind.String()}
	}
}

func (r *Resolver) beginElement(tok xmltoken.Token) (Event, error) {
	parent := scope{}
	if len(r.stack) > 0 {
		parent = r.stack[len(r.stack)-1]
	}

	// single pass over the attributes: xmlns declarations refine the
	// parent scope, everything else stays an ordinary attribute.
	level := parent
	copied := false
	var ordinary []xmltoken.Attr
	for _, attr := range tok.Attrs {
		switch {
		case attr.Name.Prefix == xmlnsPrefix:
			if !copied {
				level.prefixes = clonePrefixes(parent.prefixes)
				copied = true
			}
			level.prefixes[attr.Name.Local] = xmltoken.Flatten(attr.Value)
		case attr.Name.Prefix == "" && attr.Name.Local == xmlnsPrefix:
			level.defaultNS = xmltoken.Flatten(attr.Value)
		default:
			ordinary = append(ordinary, attr)
		}
	}

	name := qualifyElement(tok.Name, level)
	attrs := make([]Attr, 0, len(ordinary))
	for _, attr := range ordinary {
		qualified := Attr{Name: qualifyAttr(attr.Name, level), Value: attr.Value}
		for _, seen := range attrs {
			if seen.Name.Equal(qualified.Name) {
				return Event{}, &Error{Msg: "duplicate attribute " + qualified.Name.String()}
			}
		}
		attrs = append(attrs, qualified)
	}

	ev := Event{Kind: KindBeginElement, Name: name, Attrs: attrs}
	if tok.SelfClosing {
		r.pending = append(r.pending, Event{Kind: KindEndElement, Name: name})
		return ev, nil
	}
	r.stack = append(r.stack, level)
	return ev, nil
}

func (r *Resolver) endElement(tok xmltoken.Token) (Event, error) {
	level := scope{}
	if len(r.stack) > 0 {
		level = r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
	}
	return Event{Kind: KindEndElement, Name: qualifyElement(tok.Name, level)}, nil
}

// qualifyElement resolves a lexical element name against a scope.
// Unprefixed element names take the default namespace; an unknown
// prefix resolves to no namespace but keeps the prefix.
func qualifyElement(name xmltoken.Name, level scope) QName {
	switch {
	case name.Prefix == "xml":
		return QName{Local: name.Local, Space: XMLNamespace, Prefix: "xml"}
	case name.Prefix == "":
		return QName{Local: name.Local, Space: level.defaultNS}
	default:
		return QName{Local: name.Local, Space: level.prefixes[name.Prefix], Prefix: name.Prefix}
	}
}

// qualifyAttr resolves a lexical attribute name against a scope.
// Unprefixed attribute names never take the default namespace.
func qualifyAttr(name xmltoken.Name, level scope) QName {
	if name.Prefix == "" {
		return QName{Local: name.Local}
	}
	return qualifyElement(name, level)
}

// lexicalAttrs carries prolog pseudo-attributes over to the event
// layer without namespace resolution.
func lexicalAttrs(attrs []xmltoken.Attr) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, Attr{
			Name:  QName{Local: attr.Name.Local, Prefix: attr.Name.Prefix},
			Value: attr.Value,
		})
	}
	return out
}

func clonePrefixes(prefixes map[string]string) map[string]string {
	out := make(map[string]string, len(prefixes)+1)
	for prefix, uri := range prefixes {
		out[prefix] = uri
	}
	return out
}
