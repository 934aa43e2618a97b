// Package templates holds the closed component catalog and the page
// templates registered for every role.
//
// A catalog is loaded from a directory holding catalog.yaml, an optional
// style.css and optional preview images under previews/<role>/<name>.png.
// When no directory is configured the embedded default catalog is used.
// Loading checks the catalog for exhaustiveness: every role has at least one
// template, every component type has a canonical component named after it,
// and every template references only known components that may appear on a
// content page.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"gopkg.in/yaml.v3"

	"github.com/RafaArmero1993/MentorIA/internal/pagination"
)

//go:embed default/catalog.yaml default/style.css
var defaultFS embed.FS

const (
	catalogFile = "catalog.yaml"
	styleFile   = "style.css"
)

var (
	// ErrInvalidCatalog reports a catalog that fails the load time checks.
	ErrInvalidCatalog = errors.New("invalid template catalog")

	// ErrUnknownTemplate reports a lookup of a role or template not in the catalog.
	ErrUnknownTemplate = errors.New("unknown template")
)

// Variant is one template of a role.
type Variant struct {
	Name       string
	Components []Component
}

// Candidate is a template offered to the selector.
type Candidate struct {
	Name        string
	Preview     []byte
	PreviewMIME string
}

// Catalog is an immutable, validated template catalog.
type Catalog struct {
	components map[string]Component
	roles      map[pagination.Role][]Variant
	previews   map[string]Candidate // keyed by role/name
	css        string
}

type catalogFileData struct {
	Components map[string]struct {
		Type       Type   `yaml:"type"`
		TextLength int    `yaml:"text_length"`
		HTML       string `yaml:"html"`
	} `yaml:"components"`
	Roles map[string]map[string][]string `yaml:"roles"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(defaultFS, "default")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub, nil)
}

// Load reads a catalog override from dir. An empty dir or one without a
// catalog.yaml yields the embedded catalog.
func Load(dir string, logger *slog.Logger) (*Catalog, error) {
	if dir == "" {
		return Default()
	}
	if _, err := os.Stat(filepath.Join(dir, catalogFile)); errors.Is(err, fs.ErrNotExist) {
		if logger != nil {
			logger.Warn("template directory has no catalog, using embedded catalog", "dir", dir)
		}
		return Default()
	}
	return LoadFS(os.DirFS(dir), logger)
}

// LoadFS reads and validates a catalog from fsys. A missing style.css falls
// back to the embedded stylesheet.
func LoadFS(fsys fs.FS, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := fs.ReadFile(fsys, catalogFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", catalogFile, err)
	}
	var data catalogFileData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, catalogFile, err)
	}

	css, err := fs.ReadFile(fsys, styleFile)
	if errors.Is(err, fs.ErrNotExist) {
		css, err = defaultFS.ReadFile("default/" + styleFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", styleFile, err)
	}

	c := &Catalog{
		components: make(map[string]Component, len(data.Components)),
		roles:      make(map[pagination.Role][]Variant, len(data.Roles)),
		previews:   make(map[string]Candidate),
		css:        strings.TrimSpace(string(css)),
	}
	for name, comp := range data.Components {
		c.components[name] = Component{
			Name:       name,
			Type:       comp.Type,
			TextLength: comp.TextLength,
			HTML:       strings.TrimSpace(comp.HTML),
		}
	}
	if err := c.checkComponents(); err != nil {
		return nil, err
	}

	for roleName, variants := range data.Roles {
		role := pagination.Role(roleName)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidCatalog, roleName)
		}
		names := make([]string, 0, len(variants))
		for name := range variants {
			names = append(names, name)
		}
		sort.Sort(natural.StringSlice(names))

		for _, name := range names {
			refs := variants[name]
			if len(refs) == 0 {
				return nil, fmt.Errorf("%w: template %s/%s has no components", ErrInvalidCatalog, role, name)
			}
			v := Variant{Name: name, Components: make([]Component, 0, len(refs))}
			for _, ref := range refs {
				comp, ok := c.components[ref]
				if !ok {
					return nil, fmt.Errorf("%w: template %s/%s references unknown component %q", ErrInvalidCatalog, role, name, ref)
				}
				if comp.Type.SheetOnly() {
					return nil, fmt.Errorf("%w: template %s/%s uses %s component %q outside its sheet", ErrInvalidCatalog, role, name, comp.Type, ref)
				}
				v.Components = append(v.Components, comp)
			}
			c.roles[role] = append(c.roles[role], v)
		}
	}
	for _, role := range pagination.Roles() {
		if len(c.roles[role]) == 0 {
			return nil, fmt.Errorf("%w: role %s has no templates", ErrInvalidCatalog, role)
		}
	}

	if err := c.loadPreviews(fsys, logger); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) checkComponents() error {
	for _, t := range Types() {
		comp, ok := c.components[string(t)]
		if !ok {
			return fmt.Errorf("%w: no canonical %q component", ErrInvalidCatalog, t)
		}
		if comp.Type != t {
			return fmt.Errorf("%w: canonical component %q has type %q", ErrInvalidCatalog, t, comp.Type)
		}
	}
	for name, comp := range c.components {
		if !comp.Type.Valid() {
			return fmt.Errorf("%w: component %q has unknown type %q", ErrInvalidCatalog, name, comp.Type)
		}
		if comp.Type.HasText() && comp.TextLength <= 0 {
			return fmt.Errorf("%w: text component %q needs a positive text_length", ErrInvalidCatalog, name)
		}
		for _, ph := range comp.Type.Placeholders() {
			if !strings.Contains(comp.HTML, ph) {
				return fmt.Errorf("%w: component %q is missing placeholder %s", ErrInvalidCatalog, name, ph)
			}
		}
	}
	return nil
}

// Roles returns the roles in the catalog, in canonical order.
func (c *Catalog) Roles() []pagination.Role {
	return pagination.Roles()
}

// Variants returns the templates of a role in natural name order.
func (c *Catalog) Variants(role pagination.Role) ([]Variant, error) {
	vs, ok := c.roles[role]
	if !ok {
		return nil, fmt.Errorf("%w: role %q", ErrUnknownTemplate, role)
	}
	return vs, nil
}

// Names returns the template names of a role in natural order.
func (c *Catalog) Names(role pagination.Role) []string {
	vs := c.roles[role]
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Name
	}
	return names
}

// Candidates lists the templates of a role with their previews.
func (c *Catalog) Candidates(role pagination.Role) ([]Candidate, error) {
	vs, err := c.Variants(role)
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, len(vs))
	for i, v := range vs {
		out[i] = c.previews[previewKey(role, v.Name)]
	}
	return out, nil
}

// Specs returns the ordered components of a template.
func (c *Catalog) Specs(role pagination.Role, name string) ([]Component, error) {
	vs, err := c.Variants(role)
	if err != nil {
		return nil, err
	}
	for _, v := range vs {
		if v.Name == name {
			return append([]Component(nil), v.Components...), nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTemplate, role, name)
}

// Component returns a component by name.
func (c *Catalog) Component(name string) (Component, bool) {
	comp, ok := c.components[name]
	return comp, ok
}

// Canonical returns the canonical component of a type.
func (c *Catalog) Canonical(t Type) Component {
	return c.components[string(t)]
}

// Fragment returns the HTML fragment of a component type.
func (c *Catalog) Fragment(t Type) (string, error) {
	comp, ok := c.components[string(t)]
	if !ok {
		return "", fmt.Errorf("%w: component type %q", ErrUnknownTemplate, t)
	}
	return comp.HTML, nil
}

// CSS returns the document stylesheet.
func (c *Catalog) CSS() string {
	return c.css
}

func previewKey(role pagination.Role, name string) string {
	return string(role) + "/" + name
}
