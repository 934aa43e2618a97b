// Package selector picks a template for every drafted page.
package selector

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/drafter"
	"github.com/RafaArmero1993/MentorIA/internal/pagination"
	"github.com/RafaArmero1993/MentorIA/internal/prompts"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/selection"
	"github.com/RafaArmero1993/MentorIA/internal/providers"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

const templateField = "template"

// Catalog lists the template candidates of a role.
type Catalog interface {
	Candidates(role pagination.Role) ([]templates.Candidate, error)
}

// Config configures a Selector.
type Config struct {
	Generator capability.Generator
	Catalog   Catalog
	Prompts   *prompts.Resolver // nil uses the embedded prompts
	Level     string
	Model     string
	Logger    *slog.Logger
}

// Selector chooses one template per page among its role's candidates.
type Selector struct {
	cfg     Config
	prompts *prompts.Resolver
	logger  *slog.Logger
}

// New creates a Selector.
func New(cfg Config) *Selector {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := cfg.Prompts
	if resolver == nil {
		resolver = prompts.NewResolver(logger)
	}
	if !resolver.Registered(selection.UserPromptKey) {
		selection.RegisterPrompts(resolver)
	}
	return &Selector{cfg: cfg, prompts: resolver, logger: logger}
}

// Selection is a drafted page and its chosen template.
type Selection struct {
	drafter.DraftedPage `yaml:",inline"`
	Template            string `json:"template" yaml:"template"`
}

// SelectAll selects a template for every page, stopping at the first failure.
func (s *Selector) SelectAll(ctx context.Context, pages []drafter.DraftedPage) ([]Selection, error) {
	out := make([]Selection, 0, len(pages))
	for _, p := range pages {
		name, err := s.Select(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, Selection{DraftedPage: p, Template: name})
	}
	s.logger.Info("template selection complete", "pages", len(out))
	return out, nil
}

// Select returns the template name for a page. The answer is constrained to
// the role's candidates; anything else is a constraint violation.
func (s *Selector) Select(ctx context.Context, p drafter.DraftedPage) (string, error) {
	cands, err := s.cfg.Catalog.Candidates(p.Role)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", p.Index, err)
	}
	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Name
	}
	if len(names) == 1 {
		return names[0], nil
	}

	data := selection.Data{Level: s.cfg.Level, Content: p.Content, Candidates: names}
	system, err := s.prompts.Render(selection.SystemPromptKey, data)
	if err != nil {
		return "", err
	}
	user, err := s.prompts.Render(selection.UserPromptKey, data)
	if err != nil {
		return "", err
	}

	attachments := make([]providers.Attachment, len(cands))
	for i, c := range cands {
		attachments[i] = providers.Attachment{Name: c.Name, MIME: c.PreviewMIME, Data: c.Preview}
	}

	v, err := s.cfg.Generator.Generate(ctx, capability.Request{
		Key:         selection.UserPromptKey,
		System:      system,
		Prompt:      user,
		Shape:       capability.EnumShape("template_choice", templateField, "Name of the template that best fits the page.", names),
		Attachments: attachments,
		Model:       s.cfg.Model,
		Page:        p.Index,
	})
	if err != nil {
		return "", fmt.Errorf("selecting template for page %d: %w", p.Index, err)
	}

	name := v.Text(templateField)
	if !slices.Contains(names, name) {
		return "", fmt.Errorf("selecting template for page %d: %w", p.Index, &capability.Error{
			Kind: capability.ErrConstraint,
			Key:  selection.UserPromptKey,
			Err:  fmt.Errorf("template %q is not one of %v", name, names),
		})
	}
	s.logger.Debug("selected template", "page", p.Index, "role", p.Role, "template", name)
	return name, nil
}
