// Package xmlparse provides pull-based parser combinators over an XML
// event stream. Combinators either consume a contiguous prefix of
// events and match, or report not-matched having consumed at most the
// ignorable events (prolog, doctype boundaries, instructions, comments,
// whitespace-only content) that tag matching skips; errors are fatal
// and never recovered.
package xmlparse

import (
	"strings"

	"github.com/jacoelho/sax/pkg/xmlevent"
	"github.com/jacoelho/sax/pkg/xmltoken"
)

// Parser consumes events from the cursor. The boolean reports whether
// the production matched; a non-matching parser leaves the cursor at
// the event it rejected.
type Parser[T any] func(c *xmlevent.Cursor) (T, bool, error)

// Tag matches an element whose name is accepted by match. Its
// attributes run through attrs, which must consume every attribute;
// body parses the children. The end tag must carry the same qualified
// name as the begin tag.
func Tag[A, T any](
	c *xmlevent.Cursor,
	match func(xmlevent.QName) bool,
	attrs func(*AttrParser) (A, error),
	body func(A) (T, error),
) (T, bool, error) {
	var zero T
	if err := skipIgnorable(c); err != nil {
		return zero, false, err
	}
	ev, ok, err := c.Peek()
	if err != nil || !ok {
		return zero, false, err
	}
	if ev.Kind != xmlevent.KindBeginElement || !match(ev.Name) {
		return zero, false, nil
	}

	parser := NewAttrParser(ev.Attrs)
	parsed, err := attrs(parser)
	if err != nil {
		return zero, false, err
	}
	if leftover := parser.Remaining(); len(leftover) > 0 {
		return zero, false, &xmlevent.Error{Kind: xmlevent.ErrorUnparsedAttributes, Attrs: leftover}
	}

	begin := ev
	if _, _, err := c.Next(); err != nil {
		return zero, false, err
	}
	result, err := body(parsed)
	if err != nil {
		return zero, false, err
	}

	if err := skipIgnorable(c); err != nil {
		return zero, false, err
	}
	end, ok, err := c.Next()
	if err != nil {
		return zero, false, err
	}
	if !ok || end.Kind != xmlevent.KindEndElement {
		parseErr := &xmlevent.Error{Msg: "expected end of element " + begin.Name.String()}
		if ok {
			parseErr.Event = &end
		}
		return zero, false, parseErr
	}
	if !end.Name.Equal(begin.Name) {
		return zero, false, &xmlevent.Error{Kind: xmlevent.ErrorEndTagMismatch, Name: end.Name}
	}
	return result, true, nil
}

// TagName is Tag with an exact qualified-name match.
func TagName[A, T any](
	c *xmlevent.Cursor,
	name xmlevent.QName,
	attrs func(*AttrParser) (A, error),
	body func(A) (T, error),
) (T, bool, error) {
	return Tag(c, name.Equal, attrs, body)
}

// TagNoAttr is TagName for elements that carry no attributes.
func TagNoAttr[T any](c *xmlevent.Cursor, name xmlevent.QName, body func() (T, error)) (T, bool, error) {
	return TagName(c,
		name,
		func(*AttrParser) (struct{}, error) { return struct{}{}, nil },
		func(struct{}) (T, error) { return body() },
	)
}

// Content consumes consecutive content events and returns their
// flattened text, or the empty string without consuming anything when
// no content is next.
func Content(c *xmlevent.Cursor) (string, error) {
	text, ok, err := ContentMaybe(c)
	if err != nil || !ok {
		return "", err
	}
	return text, nil
}

// ContentMaybe is Content with a missing-value result when the next
// event is not content.
func ContentMaybe(c *xmlevent.Cursor) (string, bool, error) {
	ev, ok, err := c.Peek()
	if err != nil || !ok {
		return "", false, err
	}
	if ev.Kind != xmlevent.KindContent && ev.Kind != xmlevent.KindCDATA {
		return "", false, nil
	}
	var b strings.Builder
	for {
		ev, ok, err := c.Peek()
		if err != nil {
			return "", false, err
		}
		if !ok {
			return b.String(), true, nil
		}
		switch ev.Kind {
		case xmlevent.KindContent:
			b.WriteString(xmltoken.Flatten([]xmltoken.Fragment{ev.Fragment}))
		case xmlevent.KindCDATA:
			b.WriteString(ev.Text)
		default:
			return b.String(), true, nil
		}
		if _, _, err := c.Next(); err != nil {
			return "", false, err
		}
	}
}

// ContentStrict is Content for consumers that reject unresolved
// entities: it fails with the unresolved-entity error case instead of
// rendering the reference as &name;.
func ContentStrict(c *xmlevent.Cursor) (string, error) {
	ev, ok, err := c.Peek()
	if err != nil || !ok {
		return "", err
	}
	if ev.Kind != xmlevent.KindContent && ev.Kind != xmlevent.KindCDATA {
		return "", nil
	}
	var b strings.Builder
	for {
		ev, ok, err := c.Peek()
		if err != nil {
			return "", err
		}
		if !ok {
			return b.String(), nil
		}
		switch ev.Kind {
		case xmlevent.KindContent:
			if ev.Fragment.Kind == xmltoken.FragmentEntityRef {
				return "", &xmlevent.Error{Kind: xmlevent.ErrorUnresolvedEntity, Entity: ev.Fragment.Text}
			}
			b.WriteString(ev.Fragment.Text)
		case xmlevent.KindCDATA:
			b.WriteString(ev.Text)
		default:
			return b.String(), nil
		}
		if _, _, err := c.Next(); err != nil {
			return "", err
		}
	}
}

// Choose tries each parser in order and returns the first match. A
// rejecting parser leaves the cursor unchanged, so alternatives are
// deterministic.
func Choose[T any](c *xmlevent.Cursor, parsers ...Parser[T]) (T, bool, error) {
	var zero T
	for _, p := range parsers {
		value, ok, err := p(c)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return value, true, nil
		}
	}
	return zero, false, nil
}

// Many runs p repeatedly, collecting results until it stops matching.
func Many[T any](c *xmlevent.Cursor, p Parser[T]) ([]T, error) {
	var out []T
	for {
		value, ok, err := p(c)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, value)
	}
}

// Force turns a not-matched result into a parse error carrying msg.
func Force[T any](c *xmlevent.Cursor, msg string, p Parser[T]) (T, error) {
	value, ok, err := p(c)
	if err != nil {
		var zero T
		return zero, err
	}
	if !ok {
		var zero T
		parseErr := &xmlevent.Error{Msg: msg}
		if ev, peeked, peekErr := c.Peek(); peekErr == nil && peeked {
			parseErr.Event = &ev
		}
		return zero, parseErr
	}
	return value, nil
}

// IgnoreElem consumes one sibling: a whole element subtree, or a
// single non-element event. It reports not-matched at the end of the
// enclosing element without consuming it.
func IgnoreElem(c *xmlevent.Cursor) (bool, error) {
	ev, ok, err := c.Peek()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	switch ev.Kind {
	case xmlevent.KindEndElement, xmlevent.KindEndDocument:
		return false, nil
	case xmlevent.KindBeginElement:
		if _, _, err := c.Next(); err != nil {
			return false, err
		}
		depth := 1
		for depth > 0 {
			ev, ok, err := c.Next()
			if err != nil {
				return false, err
			}
			if !ok {
				return false, &xmlevent.Error{Msg: "unexpected end of input inside element"}
			}
			switch ev.Kind {
			case xmlevent.KindBeginElement:
				depth++
			case xmlevent.KindEndElement:
				depth--
			}
		}
		return true, nil
	default:
		if _, _, err := c.Next(); err != nil {
			return false, err
		}
		return true, nil
	}
}

// IgnoreSiblings consumes every remaining sibling, stopping before
// the end of the enclosing element.
func IgnoreSiblings(c *xmlevent.Cursor) error {
	for {
		ok, err := IgnoreElem(c)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// SkipTill tries p against each sibling in turn, discarding siblings
// that do not match. It reports not-matched at the end of the
// enclosing element.
func SkipTill[T any](c *xmlevent.Cursor, p Parser[T]) (T, bool, error) {
	var zero T
	for {
		value, ok, err := p(c)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return value, true, nil
		}
		skipped, err := IgnoreElem(c)
		if err != nil {
			return zero, false, err
		}
		if !skipped {
			return zero, false, nil
		}
	}
}

// SkipSiblings runs p and then discards the remaining siblings.
func SkipSiblings[T any](c *xmlevent.Cursor, p Parser[T]) (T, bool, error) {
	value, ok, err := p(c)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if err := IgnoreSiblings(c); err != nil {
		var zero T
		return zero, false, err
	}
	return value, ok, nil
}

// skipIgnorable advances past events that are transparent to tag
// matching: the document prolog, doctype boundaries, instructions,
// comments and whitespace-only content.
func skipIgnorable(c *xmlevent.Cursor) error {
	for {
		ev, ok, err := c.Peek()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch ev.Kind {
		case xmlevent.KindBeginDocument,
			xmlevent.KindBeginDoctype,
			xmlevent.KindEndDoctype,
			xmlevent.KindInstruction,
			xmlevent.KindComment:
		case xmlevent.KindContent:
			if !ev.Fragment.IsWhitespace() {
				return nil
			}
		default:
			return nil
		}
		if _, _, err := c.Next(); err != nil {
			return err
		}
	}
}
