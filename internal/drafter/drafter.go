// Package drafter writes the prose of every planned page in order, carrying
// a continuity transcript of everything drafted before.
package drafter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/outline"
	"github.com/RafaArmero1993/MentorIA/internal/pagination"
	"github.com/RafaArmero1993/MentorIA/internal/prompts"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/draft"
)

const contentField = "content"

// Shape is the response shape of a drafted page.
var Shape = capability.TextShape("page_content", contentField, "Content of the page, continuous prose without headings.")

// DraftedPage is a planned page plus its prose.
type DraftedPage struct {
	pagination.Page `yaml:",inline"`
	Content         string `json:"content" yaml:"content"`
	Attempts        int    `json:"attempts" yaml:"attempts"`
}

// Config configures a Drafter.
type Config struct {
	Generator capability.Generator
	Prompts   *prompts.Resolver // nil uses the embedded prompts

	// Policy governs retries of malformed drafts. The zero value retries
	// malformed replies without bound and fails on the first outage.
	Policy capability.RetryPolicy

	Level     string
	Subject   string
	Language  string
	MinWords  int
	MaxWords  int
	WebSearch bool
	Model     string
	Logger    *slog.Logger
}

// Drafter drafts pages sequentially.
type Drafter struct {
	cfg     Config
	prompts *prompts.Resolver
	logger  *slog.Logger
}

// New creates a Drafter.
func New(cfg Config) *Drafter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Policy.Logger == nil {
		cfg.Policy.Logger = logger
	}
	resolver := cfg.Prompts
	if resolver == nil {
		resolver = prompts.NewResolver(logger)
	}
	if !resolver.Registered(draft.UserPromptKey) {
		draft.RegisterPrompts(resolver)
	}
	return &Drafter{cfg: cfg, prompts: resolver, logger: logger}
}

// Draft writes every page of the plan. topics is the document's declared
// topic list, sent unchanged with every request.
func (d *Drafter) Draft(ctx context.Context, topics string, pages []pagination.Page) ([]DraftedPage, error) {
	out := make([]DraftedPage, 0, len(pages))
	var acc Transcript
	for _, p := range pages {
		dp, next, err := d.DraftPage(ctx, topics, acc, p)
		if err != nil {
			return nil, err
		}
		out = append(out, dp)
		acc = next
	}
	d.logger.Info("drafting complete", "pages", len(out))
	return out, nil
}

// DraftOutline drafts the pages planned from o.
func (d *Drafter) DraftOutline(ctx context.Context, o *outline.Outline, pages []pagination.Page) ([]DraftedPage, error) {
	return d.Draft(ctx, o.Topics(), pages)
}

// DraftPage drafts a single page from the transcript of the pages before it
// and returns the page with the transcript extended by it.
func (d *Drafter) DraftPage(ctx context.Context, topics string, acc Transcript, p pagination.Page) (DraftedPage, Transcript, error) {
	data := draft.Data{
		Level:          d.cfg.Level,
		Subject:        d.cfg.Subject,
		Language:       d.cfg.Language,
		Topics:         topics,
		Transcript:     acc.String(),
		Current:        fmt.Sprintf("Unit: %s\nChapter: %s\nSection: %s", p.Unit, p.Chapter, p.Section),
		Topic:          p.Topic,
		IndexInSection: p.IndexInSection,
		SectionLength:  p.SectionLength,
		MinWords:       d.cfg.MinWords,
		MaxWords:       d.cfg.MaxWords,
	}
	system, err := d.prompts.Render(draft.SystemPromptKey, data)
	if err != nil {
		return DraftedPage{}, acc, err
	}
	user, err := d.prompts.Render(draft.UserPromptKey, data)
	if err != nil {
		return DraftedPage{}, acc, err
	}

	req := capability.Request{
		Key:       draft.UserPromptKey,
		System:    system,
		Prompt:    user,
		Shape:     Shape,
		WebSearch: d.cfg.WebSearch,
		Model:     d.cfg.Model,
		Page:      p.Index,
	}

	var content string
	stats, err := d.cfg.Policy.Do(ctx, fmt.Sprintf("draft page %d", p.Index), func(ctx context.Context) error {
		v, err := d.cfg.Generator.Generate(ctx, req)
		if err != nil {
			return err
		}
		text := strings.TrimSpace(v.Text(contentField))
		if text == "" {
			return &capability.Error{Kind: capability.ErrMalformed, Key: req.Key, Err: errors.New("empty page content")}
		}
		content = text
		return nil
	})
	if err != nil {
		return DraftedPage{}, acc, fmt.Errorf("drafting page %d (%s): %w", p.Index, p.Label(), err)
	}

	d.logger.Info("drafted page", "page", p.Index, "role", p.Role, "attempts", stats.Attempts, "words", len(strings.Fields(content)))
	return DraftedPage{Page: p, Content: content, Attempts: stats.Attempts}, acc.Append(p, content), nil
}
