package pagination

import (
	"fmt"

	"github.com/RafaArmero1993/MentorIA/internal/outline"
)

// Page is one output page.
type Page struct {
	Position `yaml:",inline"`

	// Index is 1-based across the document; IndexInSection is 1-based
	// within the section.
	Index          int    `json:"index" yaml:"index"`
	Topic          string `json:"topic" yaml:"topic"`
	IndexInSection int    `json:"index_in_section" yaml:"index_in_section"`
	SectionLength  int    `json:"section_length" yaml:"section_length"`
	Role           Role   `json:"role" yaml:"role"`
}

// Plan expands the outline into its page sequence. Every leaf must already
// have a page count. Adjacent leaves of the same section form one section:
// its pages are numbered through and only its last page ends it.
func Plan(o *outline.Outline) ([]Page, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := o.RequirePages(); err != nil {
		return nil, err
	}

	pages := make([]Page, 0, o.TotalPages())
	start := 0
	for i, leaf := range o.Leaves {
		pos := Position{Unit: leaf.Unit, Chapter: leaf.Chapter, Section: leaf.Section}
		if i > 0 && pages[len(pages)-1].Position != pos {
			closeSection(pages[start:])
			start = len(pages)
		}
		for k := 1; k <= leaf.PageCount(); k++ {
			pages = append(pages, Page{
				Index:          len(pages) + 1,
				Position:       pos,
				Topic:          leaf.Topic,
				IndexInSection: len(pages) - start + 1,
			})
		}
	}
	closeSection(pages[start:])
	AssignRoles(pages)
	return pages, nil
}

func closeSection(section []Page) {
	for i := range section {
		section[i].SectionLength = len(section)
	}
}

// AssignRoles recomputes every page's role from its position relative to the
// previous page.
func AssignRoles(pages []Page) {
	var prev *Position
	for i := range pages {
		p := &pages[i]
		p.Role = RoleFor(Diff(prev, p.Position), p.IndexInSection, p.SectionLength)
		prev = &p.Position
	}
}

// Summary counts pages per role.
func Summary(pages []Page) map[Role]int {
	out := make(map[Role]int)
	for _, p := range pages {
		out[p.Role]++
	}
	return out
}

// Label renders the page's position for logs and prompts.
func (p Page) Label() string {
	return fmt.Sprintf("%s / %s / %s (page %d of %d)", p.Unit, p.Chapter, p.Section, p.IndexInSection, p.SectionLength)
}
