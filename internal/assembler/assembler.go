// Package assembler renders resolved components into the final document.
package assembler

import (
	"html"
	"strings"

	"github.com/RafaArmero1993/MentorIA/internal/resolver"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

// Document describes the document being assembled.
type Document struct {
	Subject  string
	Level    string
	Language string // html lang attribute, "es" when empty
	CSS      string
}

// Fragment substitutes a resolved component into its HTML fragment.
// Placeholders the fragment does not contain are ignored.
func (d Document) Fragment(r resolver.Resolved) string {
	return strings.NewReplacer(
		templates.PlaceholderContent, r.Content,
		templates.PlaceholderImage, r.Image,
		templates.PlaceholderQR, r.QR,
		templates.PlaceholderSubject, html.EscapeString(d.Subject),
		templates.PlaceholderLevel, html.EscapeString(d.Level),
	).Replace(r.HTML)
}

// Page concatenates the fragments of one page.
func (d Document) Page(components []resolver.Resolved) string {
	var b strings.Builder
	for _, r := range components {
		b.WriteString(d.Fragment(r))
	}
	return b.String()
}

// Assemble renders all pages inside the document shell.
func (d Document) Assemble(pages [][]resolver.Resolved) string {
	lang := d.Language
	if lang == "" {
		lang = "es"
	}

	var b strings.Builder
	b.WriteString(`<!doctype html><html lang="`)
	b.WriteString(html.EscapeString(lang))
	b.WriteString(`"><head><meta charset="utf-8"><style>`)
	b.WriteString(d.CSS)
	b.WriteString(`</style></head><body><div class="dina4">`)
	for _, p := range pages {
		b.WriteString(d.Page(p))
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}
