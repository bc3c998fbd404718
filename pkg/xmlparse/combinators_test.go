package xmlparse

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jacoelho/sax/pkg/xmlevent"
	"github.com/jacoelho/sax/pkg/xmltoken"
)

func cursor(input string) *xmlevent.Cursor {
	return xmlevent.NewCursor(xmlevent.NewResolver(xmltoken.NewTokenizer(strings.NewReader(input))))
}

func mustMatch(t *testing.T, ok bool, err error) {
	t.Helper()
	if err != nil || !ok {
		t.Fatalf("parser = ok=%v err=%v, want match", ok, err)
	}
}

type person struct {
	Age  string
	Name string
}

func parsePerson(c *xmlevent.Cursor) (person, bool, error) {
	return TagName(c,
		xmlevent.Name("person"),
		func(p *AttrParser) (string, error) { return p.RequireAttr(xmlevent.Name("age")) },
		func(age string) (person, error) {
			name, err := Content(c)
			if err != nil {
				return person{}, err
			}
			return person{Age: age, Name: name}, nil
		},
	)
}

func TestTagNestedPeople(t *testing.T) {
	c := cursor(`<people><person age="25">Michael</person><person age="2">Eliezer</person></people>`)
	people, ok, err := TagNoAttr(c, xmlevent.Name("people"), func() ([]person, error) {
		return Many(c, parsePerson)
	})
	mustMatch(t, ok, err)
	want := []person{{Age: "25", Name: "Michael"}, {Age: "2", Name: "Eliezer"}}
	if diff := cmp.Diff(want, people); diff != "" {
		t.Fatalf("people mismatch (-want +got):\n%s", diff)
	}
}

func TestTagSkipsPrologAndWhitespace(t *testing.T) {
	c := cursor("<?xml version=\"1.0\"?>\n<!DOCTYPE r>\n<!-- c -->\n<r/>")
	_, ok, err := TagNoAttr(c, xmlevent.Name("r"), func() (struct{}, error) {
		return struct{}{}, nil
	})
	mustMatch(t, ok, err)
}

func TestTagNotMatchedLeavesCursor(t *testing.T) {
	c := cursor(`<a/>`)
	_, ok, err := TagNoAttr(c, xmlevent.Name("b"), func() (struct{}, error) {
		return struct{}{}, nil
	})
	if err != nil || ok {
		t.Fatalf("TagNoAttr b = ok=%v err=%v, want not-matched", ok, err)
	}
	// the element is still available
	_, ok, err = TagNoAttr(c, xmlevent.Name("a"), func() (struct{}, error) {
		return struct{}{}, nil
	})
	mustMatch(t, ok, err)
}

func TestTagNamespaceMatch(t *testing.T) {
	c := cursor(`<a xmlns="u"><b/></a>`)
	matched, ok, err := TagNoAttr(c, xmlevent.NameNS("a", "u"), func() (bool, error) {
		_, ok, err := TagNoAttr(c, xmlevent.NameNS("b", "u"), func() (struct{}, error) {
			return struct{}{}, nil
		})
		if err != nil {
			return false, err
		}
		return ok, nil
	})
	mustMatch(t, ok, err)
	if !matched {
		t.Fatalf("inner element b did not match in namespace u")
	}
}

func TestTagUnparsedAttributes(t *testing.T) {
	c := cursor(`<x a="1" b="2"/>`)
	_, _, err := TagName(c,
		xmlevent.Name("x"),
		func(p *AttrParser) (string, error) { return p.RequireAttr(xmlevent.Name("a")) },
		func(a string) (string, error) { return a, nil },
	)
	var parseErr *xmlevent.Error
	if !errors.As(err, &parseErr) || parseErr.Kind != xmlevent.ErrorUnparsedAttributes {
		t.Fatalf("error = %v, want unparsed attributes", err)
	}
	if len(parseErr.Attrs) != 1 || parseErr.Attrs[0].Name.Local != "b" || parseErr.Attrs[0].Text() != "2" {
		t.Fatalf("leftover attrs = %+v, want [b=2]", parseErr.Attrs)
	}
}

func TestTagIgnoreAttrs(t *testing.T) {
	c := cursor(`<x a="1" b="2"/>`)
	a, ok, err := TagName(c,
		xmlevent.Name("x"),
		func(p *AttrParser) (string, error) {
			value, err := p.RequireAttr(xmlevent.Name("a"))
			p.IgnoreAttrs()
			return value, err
		},
		func(a string) (string, error) { return a, nil },
	)
	mustMatch(t, ok, err)
	if a != "1" {
		t.Fatalf("attr a = %q, want 1", a)
	}
}

func TestTagMissingRequiredAttr(t *testing.T) {
	c := cursor(`<x b="2"/>`)
	_, _, err := TagName(c,
		xmlevent.Name("x"),
		func(p *AttrParser) (string, error) { return p.RequireAttr(xmlevent.Name("a")) },
		func(a string) (string, error) { return a, nil },
	)
	if err == nil {
		t.Fatalf("error = nil, want missing attribute error")
	}
}

func TestSkipAttrs(t *testing.T) {
	c := cursor(`<x a="1" b="2" d="4"/>`)
	a, ok, err := TagName(c,
		xmlevent.Name("x"),
		func(p *AttrParser) (string, error) {
			return SkipAttrs(p, func(p *AttrParser) (string, error) {
				return p.RequireAttr(xmlevent.Name("a"))
			})
		},
		func(a string) (string, error) { return a, nil },
	)
	mustMatch(t, ok, err)
	if a != "1" {
		t.Fatalf("attr a = %q, want 1", a)
	}
}

func TestOptionalAttr(t *testing.T) {
	c := cursor(`<x a="1"/>`)
	got, ok, err := TagName(c,
		xmlevent.Name("x"),
		func(p *AttrParser) ([2]string, error) {
			a, _ := p.OptionalAttr(xmlevent.Name("a"))
			b, found := p.OptionalAttr(xmlevent.Name("b"))
			if found {
				return [2]string{}, errors.New("unexpected attribute b")
			}
			return [2]string{a, b}, nil
		},
		func(v [2]string) ([2]string, error) { return v, nil },
	)
	mustMatch(t, ok, err)
	if got[0] != "1" || got[1] != "" {
		t.Fatalf("attrs = %v, want [1 \"\"]", got)
	}
}

func TestContentCoalesces(t *testing.T) {
	c := cursor(`<p>a&amp;b<![CDATA[ raw ]]>c&foo;d</p>`)
	got, ok, err := TagNoAttr(c, xmlevent.Name("p"), func() (string, error) {
		return Content(c)
	})
	mustMatch(t, ok, err)
	want := "a&b raw c&foo;d"
	if got != want {
		t.Fatalf("content = %q, want %q", got, want)
	}
}

func TestContentStrictPlain(t *testing.T) {
	c := cursor(`<p>a&amp;b<![CDATA[ raw ]]>c</p>`)
	got, ok, err := TagNoAttr(c, xmlevent.Name("p"), func() (string, error) {
		return ContentStrict(c)
	})
	mustMatch(t, ok, err)
	if got != "a&b raw c" {
		t.Fatalf("content = %q, want %q", got, "a&b raw c")
	}
}

func TestContentStrictRejectsEntity(t *testing.T) {
	c := cursor(`<p>before&nbsp;after</p>`)
	_, _, err := TagNoAttr(c, xmlevent.Name("p"), func() (string, error) {
		return ContentStrict(c)
	})
	var parseErr *xmlevent.Error
	if !errors.As(err, &parseErr) || parseErr.Kind != xmlevent.ErrorUnresolvedEntity {
		t.Fatalf("error = %v, want unresolved entity", err)
	}
	if parseErr.Entity != "nbsp" {
		t.Fatalf("entity = %q, want nbsp", parseErr.Entity)
	}
	if !strings.Contains(parseErr.Error(), "&nbsp;") {
		t.Fatalf("error message = %q, want entity reference", parseErr.Error())
	}
}

func TestContentStrictEmptyWithoutConsuming(t *testing.T) {
	c := cursor(`<p><q/></p>`)
	_, ok, err := TagNoAttr(c, xmlevent.Name("p"), func() (struct{}, error) {
		text, err := ContentStrict(c)
		if err != nil {
			return struct{}{}, err
		}
		if text != "" {
			return struct{}{}, errors.New("expected empty content")
		}
		_, matched, err := TagNoAttr(c, xmlevent.Name("q"), func() (struct{}, error) {
			return struct{}{}, nil
		})
		if err != nil {
			return struct{}{}, err
		}
		if !matched {
			return struct{}{}, errors.New("q was consumed by ContentStrict")
		}
		return struct{}{}, nil
	})
	mustMatch(t, ok, err)
}

func TestContentEmptyWithoutConsuming(t *testing.T) {
	c := cursor(`<p><q/></p>`)
	_, ok, err := TagNoAttr(c, xmlevent.Name("p"), func() (string, error) {
		text, err := Content(c)
		if err != nil {
			return "", err
		}
		if text != "" {
			return "", errors.New("expected empty content")
		}
		// the q element must still be next
		_, matched, err := TagNoAttr(c, xmlevent.Name("q"), func() (struct{}, error) {
			return struct{}{}, nil
		})
		if err != nil {
			return "", err
		}
		if !matched {
			return "", errors.New("q was consumed by Content")
		}
		return text, nil
	})
	mustMatch(t, ok, err)
}

func TestContentMaybeNotMatched(t *testing.T) {
	c := cursor(`<p><q/></p>`)
	_, ok, err := TagNoAttr(c, xmlevent.Name("p"), func() (struct{}, error) {
		_, matched, err := ContentMaybe(c)
		if err != nil {
			return struct{}{}, err
		}
		if matched {
			return struct{}{}, errors.New("ContentMaybe matched on element")
		}
		skipped, err := IgnoreElem(c)
		if err != nil || !skipped {
			return struct{}{}, errors.New("IgnoreElem should consume q")
		}
		return struct{}{}, nil
	})
	mustMatch(t, ok, err)
}

func TestChooseFirstMatchWins(t *testing.T) {
	c := cursor(`<b/>`)
	got, ok, err := Choose(c,
		func(c *xmlevent.Cursor) (string, bool, error) {
			return TagNoAttr(c, xmlevent.Name("a"), func() (string, error) { return "a", nil })
		},
		func(c *xmlevent.Cursor) (string, bool, error) {
			return TagNoAttr(c, xmlevent.Name("b"), func() (string, error) { return "b", nil })
		},
	)
	mustMatch(t, ok, err)
	if got != "b" {
		t.Fatalf("Choose = %q, want b", got)
	}
}

func TestChooseNonDestructive(t *testing.T) {
	c := cursor(`<z/>`)
	_, ok, err := Choose(c,
		func(c *xmlevent.Cursor) (string, bool, error) {
			return TagNoAttr(c, xmlevent.Name("a"), func() (string, error) { return "a", nil })
		},
		func(c *xmlevent.Cursor) (string, bool, error) {
			return TagNoAttr(c, xmlevent.Name("b"), func() (string, error) { return "b", nil })
		},
	)
	if err != nil || ok {
		t.Fatalf("Choose = ok=%v err=%v, want not-matched", ok, err)
	}
	// the z element is still available after every branch rejected
	_, ok, err = TagNoAttr(c, xmlevent.Name("z"), func() (struct{}, error) { return struct{}{}, nil })
	mustMatch(t, ok, err)
}

func TestManyStopsAtNonMatch(t *testing.T) {
	c := cursor(`<l><i/><i/><other/></l>`)
	_, ok, err := TagNoAttr(c, xmlevent.Name("l"), func() (struct{}, error) {
		items, err := Many(c, func(c *xmlevent.Cursor) (struct{}, bool, error) {
			return TagNoAttr(c, xmlevent.Name("i"), func() (struct{}, error) { return struct{}{}, nil })
		})
		if err != nil {
			return struct{}{}, err
		}
		if len(items) != 2 {
			return struct{}{}, errors.New("expected two items")
		}
		return struct{}{}, IgnoreSiblings(c)
	})
	mustMatch(t, ok, err)
}

func TestForce(t *testing.T) {
	c := cursor(`<a/>`)
	_, err := Force(c, "expected element b", func(c *xmlevent.Cursor) (struct{}, bool, error) {
		return TagNoAttr(c, xmlevent.Name("b"), func() (struct{}, error) { return struct{}{}, nil })
	})
	var parseErr *xmlevent.Error
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v (%T), want *xmlevent.Error", err, err)
	}
	if !strings.Contains(parseErr.Error(), "expected element b") {
		t.Fatalf("error = %v, want message with context", parseErr)
	}
	if parseErr.Event == nil || parseErr.Event.Kind != xmlevent.KindBeginElement {
		t.Fatalf("error event = %v, want offending BeginElement", parseErr.Event)
	}
}

func TestForceMatchPassesThrough(t *testing.T) {
	c := cursor(`<a/>`)
	got, err := Force(c, "expected element a", func(c *xmlevent.Cursor) (string, bool, error) {
		return TagNoAttr(c, xmlevent.Name("a"), func() (string, error) { return "ok", nil })
	})
	if err != nil || got != "ok" {
		t.Fatalf("Force = %q, err=%v, want ok", got, err)
	}
}

func TestIgnoreElemSubtree(t *testing.T) {
	c := cursor(`<r><skip><deep><deeper/></deep></skip><keep/></r>`)
	_, ok, err := TagNoAttr(c, xmlevent.Name("r"), func() (struct{}, error) {
		skipped, err := IgnoreElem(c)
		if err != nil || !skipped {
			return struct{}{}, errors.New("IgnoreElem should consume skip subtree")
		}
		_, matched, err := TagNoAttr(c, xmlevent.Name("keep"), func() (struct{}, error) {
			return struct{}{}, nil
		})
		if err != nil {
			return struct{}{}, err
		}
		if !matched {
			return struct{}{}, errors.New("keep not found after IgnoreElem")
		}
		return struct{}{}, nil
	})
	mustMatch(t, ok, err)
}

func TestIgnoreElemAtEndOfSiblings(t *testing.T) {
	c := cursor(`<r/>`)
	_, ok, err := TagNoAttr(c, xmlevent.Name("r"), func() (struct{}, error) {
		skipped, err := IgnoreElem(c)
		if err != nil {
			return struct{}{}, err
		}
		if skipped {
			return struct{}{}, errors.New("IgnoreElem consumed the enclosing end tag")
		}
		return struct{}{}, nil
	})
	mustMatch(t, ok, err)
}

func TestIgnoreSiblings(t *testing.T) {
	c := cursor(`<r><a/>text<b><c/></b></r>`)
	_, ok, err := TagNoAttr(c, xmlevent.Name("r"), func() (struct{}, error) {
		return struct{}{}, IgnoreSiblings(c)
	})
	mustMatch(t, ok, err)
}

func TestSkipTill(t *testing.T) {
	c := cursor(`<r><x/>noise<y/><target k="v"/><z/></r>`)
	_, ok, err := TagNoAttr(c, xmlevent.Name("r"), func() (string, error) {
		value, matched, err := SkipTill(c, func(c *xmlevent.Cursor) (string, bool, error) {
			return TagName(c,
				xmlevent.Name("target"),
				func(p *AttrParser) (string, error) { return p.RequireAttr(xmlevent.Name("k")) },
				func(k string) (string, error) { return k, nil },
			)
		})
		if err != nil {
			return "", err
		}
		if !matched || value != "v" {
			return "", errors.New("target not found")
		}
		return value, IgnoreSiblings(c)
	})
	mustMatch(t, ok, err)
}

func TestSkipTillNotFound(t *testing.T) {
	c := cursor(`<r><x/><y/></r>`)
	_, ok, err := TagNoAttr(c, xmlevent.Name("r"), func() (struct{}, error) {
		_, matched, err := SkipTill(c, func(c *xmlevent.Cursor) (struct{}, bool, error) {
			return TagNoAttr(c, xmlevent.Name("missing"), func() (struct{}, error) { return struct{}{}, nil })
		})
		if err != nil {
			return struct{}{}, err
		}
		if matched {
			return struct{}{}, errors.New("unexpected match")
		}
		return struct{}{}, nil
	})
	mustMatch(t, ok, err)
}

func TestSkipSiblings(t *testing.T) {
	c := cursor(`<r><first/><second/><third/></r>`)
	_, ok, err := TagNoAttr(c, xmlevent.Name("r"), func() (struct{}, error) {
		_, matched, err := SkipSiblings(c, func(c *xmlevent.Cursor) (struct{}, bool, error) {
			return TagNoAttr(c, xmlevent.Name("first"), func() (struct{}, error) { return struct{}{}, nil })
		})
		if err != nil {
			return struct{}{}, err
		}
		if !matched {
			return struct{}{}, errors.New("first not matched")
		}
		return struct{}{}, nil
	})
	mustMatch(t, ok, err)
}

func TestTagEndMismatchSurfaces(t *testing.T) {
	// the resolver is tolerant of stray end tags; the combinator
	// enforces matching names.
	c := cursor(`<a><b></a></b>`)
	_, _, err := TagNoAttr(c, xmlevent.Name("a"), func() (struct{}, error) {
		_, _, err := TagNoAttr(c, xmlevent.Name("b"), func() (struct{}, error) { return struct{}{}, nil })
		return struct{}{}, err
	})
	var parseErr *xmlevent.Error
	if !errors.As(err, &parseErr) || parseErr.Kind != xmlevent.ErrorEndTagMismatch {
		t.Fatalf("error = %v, want end-tag mismatch", err)
	}
	if parseErr.Name.Local != "a" {
		t.Fatalf("mismatch name = %v, want the actual end tag a", parseErr.Name)
	}
}
