// Package pagination expands an outline with known page counts into the flat,
// ordered page sequence every later stage consumes, tagging each page with
// its structural role.
package pagination

// Role is the structural position of a page within the unit > chapter >
// section hierarchy. Template catalogs are keyed by role.
type Role string

const (
	RoleUnitStart       Role = "unit_start"
	RoleUnitStartEnd    Role = "unit_start_end"
	RoleChapterStart    Role = "chapter_start"
	RoleChapterStartEnd Role = "chapter_start_end"
	RoleSectionStart    Role = "section_start"
	RoleSectionStartEnd Role = "section_start_end"
	RoleSectionEnd      Role = "section_end"
	RoleContinuation    Role = "continuation"
)

// Roles lists every role in hierarchy order.
func Roles() []Role {
	return []Role{
		RoleUnitStart, RoleUnitStartEnd,
		RoleChapterStart, RoleChapterStartEnd,
		RoleSectionStart, RoleSectionStartEnd,
		RoleSectionEnd, RoleContinuation,
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range Roles() {
		if r == known {
			return true
		}
	}
	return false
}

// IsStart reports whether the page opens a unit, chapter or section.
func (r Role) IsStart() bool {
	switch r {
	case RoleUnitStart, RoleUnitStartEnd, RoleChapterStart, RoleChapterStartEnd, RoleSectionStart, RoleSectionStartEnd:
		return true
	}
	return false
}

// IsEnd reports whether the page closes its section.
func (r Role) IsEnd() bool {
	switch r {
	case RoleUnitStartEnd, RoleChapterStartEnd, RoleSectionStartEnd, RoleSectionEnd:
		return true
	}
	return false
}

// Boundary is the highest hierarchy level that changed between two
// adjacent positions.
type Boundary int

const (
	BoundaryNone Boundary = iota
	BoundarySection
	BoundaryChapter
	BoundaryUnit
)

func (b Boundary) String() string {
	switch b {
	case BoundarySection:
		return "section"
	case BoundaryChapter:
		return "chapter"
	case BoundaryUnit:
		return "unit"
	}
	return "none"
}

// Position locates a page in the hierarchy.
type Position struct {
	Unit    string `json:"unit" yaml:"unit"`
	Chapter string `json:"chapter" yaml:"chapter"`
	Section string `json:"section" yaml:"section"`
}

// Diff compares a position with its predecessor. A nil predecessor is the
// start of the document and always counts as a unit boundary. A unit change
// implies chapter and section starts; a chapter change implies a section start.
func Diff(prev *Position, cur Position) Boundary {
	switch {
	case prev == nil || prev.Unit != cur.Unit:
		return BoundaryUnit
	case prev.Chapter != cur.Chapter:
		return BoundaryChapter
	case prev.Section != cur.Section:
		return BoundarySection
	}
	return BoundaryNone
}

// RoleFor derives the role of page index (1-based) out of length pages,
// given the boundary crossed into it.
func RoleFor(b Boundary, index, length int) Role {
	single := length == 1
	if index == 1 {
		switch b {
		case BoundaryUnit:
			if single {
				return RoleUnitStartEnd
			}
			return RoleUnitStart
		case BoundaryChapter:
			if single {
				return RoleChapterStartEnd
			}
			return RoleChapterStart
		case BoundarySection:
			if single {
				return RoleSectionStartEnd
			}
			return RoleSectionStart
		}
	}
	if index == length {
		return RoleSectionEnd
	}
	return RoleContinuation
}
