package xmlevent

import (
	"strconv"
	"strings"

	"github.com/jacoelho/sax/pkg/xmltoken"
)

// Kind identifies the kind of an XML event.
type Kind uint8

const (
	KindNone Kind = iota
	KindBeginDocument
	KindEndDocument
	KindInstruction
	KindBeginElement
	KindEndElement
	KindContent
	KindComment
	KindCDATA
	KindBeginDoctype
	KindEndDoctype
)

// String returns a stable name for the kind, suitable for debugging.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindBeginDocument:
		return "BeginDocument"
	case KindEndDocument:
		return "EndDocument"
	case KindInstruction:
		return "Instruction"
	case KindBeginElement:
		return "BeginElement"
	case KindEndElement:
		return "EndElement"
	case KindContent:
		return "Content"
	case KindComment:
		return "Comment"
	case KindCDATA:
		return "CDATA"
	case KindBeginDoctype:
		return "BeginDoctype"
	case KindEndDoctype:
		return "EndDoctype"
	default:
		return "Unknown"
	}
}

// Attr is a namespace-qualified attribute. The value keeps the content
// fragments of the attribute in input order.
type Attr struct {
	Name  QName
	Value []xmltoken.Fragment
}

// Text returns the flattened attribute value.
func (a Attr) Text() string {
	return xmltoken.Flatten(a.Value)
}

// Event is a single resolved XML event. The populated fields depend on
// Kind: Name and Attrs for elements (Attrs also carries the prolog
// pseudo-attributes on BeginDocument), Target and Body for
// instructions, Fragment for content, Text for comments and CDATA
// sections, DoctypeRoot and ExternalID for BeginDoctype.
type Event struct {
	Kind        Kind
	Name        QName
	Attrs       []Attr
	Target      string
	Body        string
	Fragment    xmltoken.Fragment
	Text        string
	DoctypeRoot string
	ExternalID  *xmltoken.ExternalID
}

// Attr returns the value of the named attribute, matching on local
// name and namespace.
func (e Event) Attr(name QName) ([]xmltoken.Fragment, bool) {
	for _, attr := range e.Attrs {
		if attr.Name.Equal(name) {
			return attr.Value, true
		}
	}
	return nil, false
}

// AttrText returns the flattened value of the named attribute.
func (e Event) AttrText(name QName) (string, bool) {
	value, ok := e.Attr(name)
	if !ok {
		return "", false
	}
	return xmltoken.Flatten(value), true
}

// String renders the event for diagnostics.
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	switch e.Kind {
	case KindBeginDocument, KindBeginElement:
		if e.Kind == KindBeginElement {
			b.WriteByte(' ')
			b.WriteString(e.Name.String())
		}
		for _, attr := range e.Attrs {
			b.WriteByte(' ')
			b.WriteString(attr.Name.String())
			b.WriteString("=")
			b.WriteString(strconv.Quote(attr.Text()))
		}
	case KindEndElement:
		b.WriteByte(' ')
		b.WriteString(e.Name.String())
	case KindInstruction:
		b.WriteByte(' ')
		b.WriteString(e.Target)
	case KindContent:
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(xmltoken.Flatten([]xmltoken.Fragment{e.Fragment})))
	case KindComment, KindCDATA:
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(e.Text))
	case KindBeginDoctype:
		b.WriteByte(' ')
		b.WriteString(e.DoctypeRoot)
	}
	return b.String()
}
