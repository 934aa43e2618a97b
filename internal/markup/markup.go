// Package markup converts generated HTML fragments to plain text and keeps
// them within the small tag set the document templates accept.
package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Tag sets accepted inside component fragments.
var (
	FragmentTags = []string{"p", "ul", "ol", "li", "b", "i"}
	ExerciseTags = []string{"p", "ul", "ol", "li", "b", "i", "u"}
)

// Synonyms rewritten before filtering.
var tagAliases = map[string]string{
	"strong": "b",
	"em":     "i",
	"ins":    "u",
}

// Elements dropped with their content.
var dropped = map[string]bool{
	"script": true, "style": true, "head": true, "title": true, "iframe": true, "noscript": true,
}

// Elements that end a line in plain text.
var blockElements = map[string]bool{
	"p": true, "li": true, "div": true, "br": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "tr": true,
}

var (
	fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n?(.*?)\\s*```$")
	tagPattern   = regexp.MustCompile(`<\s*/?\s*[a-zA-Z][a-zA-Z0-9]*[^>]*>`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
	whitespace   = regexp.MustCompile(`\s+`)
)

func parseFragment(s string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return nil, fmt.Errorf("parse html fragment: %w", err)
	}
	return nodes, nil
}

// PlainText strips all markup from an HTML fragment. Whitespace runs in text
// collapse to one space, as a browser renders them; only block elements end
// a line.
func PlainText(fragment string) string {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return strings.TrimSpace(tagPattern.ReplaceAllString(fragment, " "))
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(whitespace.ReplaceAllString(n.Data, " "))
			return
		case html.ElementNode:
			if dropped[n.Data] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n")
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	lines := strings.Split(buf.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	out := strings.Join(lines, "\n")
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// Sanitize rebuilds a fragment keeping only the allowed elements, without
// attributes. Disallowed elements are unwrapped; their text survives. Text
// left at the top level is wrapped in a paragraph.
func Sanitize(fragment string, allowed []string) (string, error) {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}
	allow := make(map[string]bool, len(allowed))
	for _, t := range allowed {
		allow[t] = true
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		copyAllowed(root, n, allow)
	}
	wrapLooseText(root, allow)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render html fragment: %w", err)
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func copyAllowed(dst, n *html.Node, allow map[string]bool) {
	switch n.Type {
	case html.TextNode:
		dst.AppendChild(&html.Node{Type: html.TextNode, Data: n.Data})
	case html.ElementNode:
		if dropped[n.Data] {
			return
		}
		name := n.Data
		if alias, ok := tagAliases[name]; ok {
			name = alias
		}
		target := dst
		if allow[name] {
			target = &html.Node{Type: html.ElementNode, Data: name, DataAtom: atom.Lookup([]byte(name))}
			dst.AppendChild(target)
		} else if name == "br" {
			dst.AppendChild(&html.Node{Type: html.TextNode, Data: " "})
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			copyAllowed(target, c, allow)
		}
	}
}

// wrapLooseText puts runs of top-level text and inline elements into <p>,
// when paragraphs are allowed.
func wrapLooseText(root *html.Node, allow map[string]bool) {
	if !allow["p"] {
		return
	}
	var run []*html.Node
	flush := func(before *html.Node) {
		text := ""
		for _, n := range run {
			text += nodeText(n)
		}
		if strings.TrimSpace(text) == "" {
			for _, n := range run {
				root.RemoveChild(n)
			}
			run = nil
			return
		}
		p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
		root.InsertBefore(p, before)
		for _, n := range run {
			root.RemoveChild(n)
			p.AppendChild(n)
		}
		run = nil
	}
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode || (c.Type == html.ElementNode && !isBlock(c.Data)) {
			run = append(run, c)
		} else if len(run) > 0 {
			flush(c)
		}
		c = next
	}
	if len(run) > 0 {
		flush(nil)
	}
}

func isBlock(tag string) bool {
	return tag == "p" || tag == "ul" || tag == "ol" || tag == "li"
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

// Normalize turns a generated reply into a sanitized fragment. Code fences
// are removed and replies written in Markdown are rendered to HTML first.
func Normalize(reply string, allowed []string) (string, error) {
	s := strings.TrimSpace(reply)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if !tagPattern.MatchString(s) {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(s), &buf); err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		s = buf.String()
	}
	return Sanitize(s, allowed)
}
