package drafter

import (
	"fmt"
	"strings"

	"github.com/RafaArmero1993/MentorIA/internal/pagination"
)

// Transcript is the continuity context carried from page to page. It is a
// value: Append returns a new Transcript and leaves the receiver untouched,
// so a run can be replayed or resumed from any page.
//
// Hierarchy labels are written only when they change relative to the
// previous entry, which keeps the transcript from repeating the same unit,
// chapter and section on every page.
type Transcript struct {
	body  string
	last  *pagination.Position
	pages int
}

// Append adds a drafted page.
func (t Transcript) Append(p pagination.Page, content string) Transcript {
	var b strings.Builder
	b.WriteString(t.body)
	if t.pages > 0 {
		b.WriteString("\n\n")
	}

	switch pagination.Diff(t.last, p.Position) {
	case pagination.BoundaryUnit:
		fmt.Fprintf(&b, "Unit: %s\n", p.Unit)
		fallthrough
	case pagination.BoundaryChapter:
		fmt.Fprintf(&b, "Chapter: %s\n", p.Chapter)
		fallthrough
	case pagination.BoundarySection:
		fmt.Fprintf(&b, "Section: %s\n", p.Section)
	}
	fmt.Fprintf(&b, "Page %d:\n%s", p.IndexInSection, strings.TrimSpace(content))

	pos := p.Position
	return Transcript{body: b.String(), last: &pos, pages: t.pages + 1}
}

// String returns the serialized transcript, empty before the first page.
func (t Transcript) String() string { return t.body }

// Pages returns the number of pages appended so far.
func (t Transcript) Pages() int { return t.pages }
