// Package estimator assigns page counts to outline leaves that lack one.
package estimator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/outline"
	"github.com/RafaArmero1993/MentorIA/internal/prompts"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/extension"
)

const extensionField = "extension"

// Shape is the response shape of an estimate.
var Shape = capability.IntegerShape("section_extension", extensionField, "Number of pages the section should have.")

// Config configures an Estimator.
type Config struct {
	Generator capability.Generator
	Prompts   *prompts.Resolver // nil uses the embedded prompts

	// Padding is added to every estimate.
	Padding int

	Level   string
	Subject string
	Model   string
	Logger  *slog.Logger
}

// Estimator fills missing page counts one leaf at a time, in outline order.
type Estimator struct {
	gen     capability.Generator
	prompts *prompts.Resolver
	padding int
	level   string
	subject string
	model   string
	logger  *slog.Logger
}

// New creates an Estimator.
func New(cfg Config) *Estimator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := cfg.Prompts
	if resolver == nil {
		resolver = prompts.NewResolver(logger)
	}
	if !resolver.Registered(extension.UserPromptKey) {
		extension.RegisterPrompts(resolver)
	}
	return &Estimator{
		gen:     cfg.Generator,
		prompts: resolver,
		padding: cfg.Padding,
		level:   cfg.Level,
		subject: cfg.Subject,
		model:   cfg.Model,
		logger:  logger,
	}
}

// Estimate returns a copy of o where every leaf has a page count. Leaves
// that already have one are kept as is. Each request sees only the leaves
// before it. Any failed estimate fails the whole call.
func (e *Estimator) Estimate(ctx context.Context, o *outline.Outline) (*outline.Outline, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	out := &outline.Outline{Leaves: make([]outline.Leaf, 0, len(o.Leaves))}
	estimated := 0
	for i, leaf := range o.Leaves {
		if !leaf.HasPages() {
			pages, err := e.estimateLeaf(ctx, out.Leaves, leaf)
			if err != nil {
				return nil, fmt.Errorf("estimating leaf %d (%s / %s / %s): %w", i+1, leaf.Unit, leaf.Chapter, leaf.Section, err)
			}
			leaf = leaf.WithPages(pages)
			estimated++
			e.logger.Debug("estimated leaf extension", "leaf", i+1, "section", leaf.Section, "pages", pages)
		}
		out.Leaves = append(out.Leaves, leaf)
	}

	e.logger.Info("extension estimation complete", "leaves", len(out.Leaves), "estimated", estimated, "pages", out.TotalPages())
	return out, nil
}

func (e *Estimator) estimateLeaf(ctx context.Context, prior []outline.Leaf, leaf outline.Leaf) (int, error) {
	data := extension.Data{
		Level:    e.level,
		Subject:  e.subject,
		Previous: Transcript(prior),
		Current:  position(leaf),
		Topic:    leaf.Topic,
	}
	system, err := e.prompts.Render(extension.SystemPromptKey, data)
	if err != nil {
		return 0, err
	}
	user, err := e.prompts.Render(extension.UserPromptKey, data)
	if err != nil {
		return 0, err
	}

	v, err := e.gen.Generate(ctx, capability.Request{
		Key:    extension.UserPromptKey,
		System: system,
		Prompt: user,
		Shape:  Shape,
		Model:  e.model,
	})
	if err != nil {
		return 0, err
	}

	n := v.Int(extensionField)
	if n < 1 {
		return 0, &capability.Error{Kind: capability.ErrMalformed, Key: extension.UserPromptKey,
			Err: fmt.Errorf("estimate %d is not a positive page count", n)}
	}
	return n + e.padding, nil
}

// Transcript serializes sized leaves for the next estimate.
func Transcript(leaves []outline.Leaf) string {
	var b strings.Builder
	for _, l := range leaves {
		b.WriteString(position(l))
		fmt.Fprintf(&b, "\n      - Topic: %s\n      - Extension (pages): %d\n", l.Topic, l.PageCount())
	}
	return strings.TrimRight(b.String(), "\n")
}

func position(l outline.Leaf) string {
	return fmt.Sprintf("- Unit: %s\n  - Chapter: %s\n    - Section: %s", l.Unit, l.Chapter, l.Section)
}
