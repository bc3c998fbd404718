package xmlevent

import (
	"errors"
	"io"
)

var errNilCursor = errors.New("nil event cursor")
var errNilResolver = errors.New("nil resolver")

// Source is a pull-based producer of events. Next returns io.EOF
// after the final event.
type Source interface {
	Next() (Event, error)
}

// Cursor is a one-event-lookahead pull cursor over an event stream.
// Peek and Next report ok=false at end of stream; errors are sticky.
type Cursor struct {
	src     Source
	peeked  Event
	hasPeek bool
	done    bool
	err     error
}

// NewCursor creates a cursor reading from src.
func NewCursor(src Source) *Cursor {
	return &Cursor{src: src}
}

// Peek returns the next event without consuming it.
func (c *Cursor) Peek() (Event, bool, error) {
	if c == nil || c.src == nil {
		return Event{}, false, errNilCursor
	}
	if c.err != nil {
		return Event{}, false, c.err
	}
	if c.hasPeek {
		return c.peeked, true, nil
	}
	if c.done {
		return Event{}, false, nil
	}
	ev, err := c.src.Next()
	if errors.Is(err, io.EOF) {
		c.done = true
		return Event{}, false, nil
	}
	if err != nil {
		c.err = err
		return Event{}, false, err
	}
	c.peeked = ev
	c.hasPeek = true
	return ev, true, nil
}

// Next consumes and returns the next event.
func (c *Cursor) Next() (Event, bool, error) {
	ev, ok, err := c.Peek()
	if err != nil || !ok {
		return Event{}, ok, err
	}
	c.hasPeek = false
	return ev, true, nil
}
