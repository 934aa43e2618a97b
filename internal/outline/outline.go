// Package outline holds the curriculum outline a document is generated from:
// an ordered list of leaves nested as unit > chapter > section.
package outline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidOutline marks input defects: empty outlines, blank labels,
// broken nesting, or missing page counts where they are required.
var ErrInvalidOutline = errors.New("invalid outline")

// Leaf is the smallest curriculum unit. Pages is nil until estimated.
type Leaf struct {
	Unit    string `json:"unit" yaml:"unit"`
	Chapter string `json:"chapter" yaml:"chapter"`
	Section string `json:"section" yaml:"section"`
	Topic   string `json:"topic" yaml:"topic"`
	Pages   *int   `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// HasPages reports whether the leaf's page count is known.
func (l Leaf) HasPages() bool {
	return l.Pages != nil
}

// PageCount returns the page count, or 0 if unknown.
func (l Leaf) PageCount() int {
	if l.Pages == nil {
		return 0
	}
	return *l.Pages
}

// WithPages returns a copy of the leaf with its page count set.
func (l Leaf) WithPages(n int) Leaf {
	l.Pages = &n
	return l
}

// Outline is an ordered sequence of leaves.
type Outline struct {
	Leaves []Leaf `json:"leaves" yaml:"leaves"`
}

// Validate checks labels, page counts and that every unit, chapter and
// section occupies one contiguous run of leaves.
func (o *Outline) Validate() error {
	if len(o.Leaves) == 0 {
		return fmt.Errorf("%w: no leaves", ErrInvalidOutline)
	}

	closed := make(map[string]bool)
	for i, l := range o.Leaves {
		if strings.TrimSpace(l.Unit) == "" || strings.TrimSpace(l.Chapter) == "" || strings.TrimSpace(l.Section) == "" {
			return fmt.Errorf("%w: leaf %d has a blank unit, chapter or section", ErrInvalidOutline, i+1)
		}
		if strings.TrimSpace(l.Topic) == "" {
			return fmt.Errorf("%w: leaf %d has no topic", ErrInvalidOutline, i+1)
		}
		if l.Pages != nil && *l.Pages < 1 {
			return fmt.Errorf("%w: leaf %d has %d pages", ErrInvalidOutline, i+1, *l.Pages)
		}

		if i == 0 {
			continue
		}
		prev := o.Leaves[i-1]
		for _, scope := range changedScopes(prev, l) {
			closed[scope.of(prev)] = true
			if closed[scope.of(l)] {
				return fmt.Errorf("%w: leaf %d reopens %s %q", ErrInvalidOutline, i+1, scope, scope.label(l))
			}
		}
	}
	return nil
}

// RequirePages fails unless every leaf has a page count.
func (o *Outline) RequirePages() error {
	for i, l := range o.Leaves {
		if !l.HasPages() {
			return fmt.Errorf("%w: leaf %d (%s / %s / %s) has no page count", ErrInvalidOutline, i+1, l.Unit, l.Chapter, l.Section)
		}
	}
	return nil
}

// Topics renders the whole outline as an indented topic list.
func (o *Outline) Topics() string {
	var b strings.Builder
	for _, l := range o.Leaves {
		fmt.Fprintf(&b, "- Unit: %s\n  - Chapter: %s\n    - Section: %s\n      - Topic: %s\n", l.Unit, l.Chapter, l.Section, l.Topic)
	}
	return b.String()
}

// TotalPages sums known page counts.
func (o *Outline) TotalPages() int {
	n := 0
	for _, l := range o.Leaves {
		n += l.PageCount()
	}
	return n
}

type scope string

const (
	scopeUnit    scope = "unit"
	scopeChapter scope = "chapter"
	scopeSection scope = "section"
)

// of returns the identity of the leaf's enclosing node at this scope.
func (s scope) of(l Leaf) string {
	switch s {
	case scopeUnit:
		return "u\x00" + l.Unit
	case scopeChapter:
		return "c\x00" + l.Unit + "\x00" + l.Chapter
	default:
		return "s\x00" + l.Unit + "\x00" + l.Chapter + "\x00" + l.Section
	}
}

func (s scope) label(l Leaf) string {
	switch s {
	case scopeUnit:
		return l.Unit
	case scopeChapter:
		return l.Chapter
	default:
		return l.Section
	}
}

// changedScopes lists the scopes whose identity differs between a and b.
func changedScopes(a, b Leaf) []scope {
	var out []scope
	for _, s := range []scope{scopeUnit, scopeChapter, scopeSection} {
		if s.of(a) != s.of(b) {
			out = append(out, s)
		}
	}
	return out
}
