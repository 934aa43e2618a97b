package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RafaArmero1993/MentorIA/internal/assembler"
	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/drafter"
	"github.com/RafaArmero1993/MentorIA/internal/estimator"
	"github.com/RafaArmero1993/MentorIA/internal/outline"
	"github.com/RafaArmero1993/MentorIA/internal/pagination"
	"github.com/RafaArmero1993/MentorIA/internal/resolver"
	"github.com/RafaArmero1993/MentorIA/internal/selector"
)

// ContentRequest asks for a content document.
type ContentRequest struct {
	Subject string           `json:"asignatura" yaml:"asignatura"`
	Level   string           `json:"nivel_academico" yaml:"nivel_academico"`
	Outline *outline.Outline `json:"outline" yaml:"outline"`
}

func (req ContentRequest) validate() error {
	if err := required([]string{"subject", "level"}, req.Subject, req.Level); err != nil {
		return err
	}
	if req.Outline == nil {
		return fmt.Errorf("%w: missing outline", ErrInvalidRequest)
	}
	return req.Outline.Validate()
}

// Plan estimates the outline's missing extensions and paginates it, without
// drafting anything.
func (p *Pipeline) Plan(ctx context.Context, req ContentRequest) (*outline.Outline, []pagination.Page, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}
	o, err := p.newEstimator(req, p.logger).Estimate(ctx, req.Outline)
	if err != nil {
		return nil, nil, err
	}
	pages, err := pagination.Plan(o)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Info("pagination planned", "leaves", len(o.Leaves), "pages", len(pages))
	return o, pages, nil
}

// Generate runs the content flavor end to end and persists the document.
func (p *Pipeline) Generate(ctx context.Context, req ContentRequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	ctx, r, err := p.start(ctx, assets.KindDocument)
	if err != nil {
		return nil, err
	}
	r.logger.Info("content generation started", "subject", req.Subject, "level", req.Level, "leaves", len(req.Outline.Leaves))

	o, err := p.newEstimator(req, r.logger).Estimate(ctx, req.Outline)
	if err != nil {
		return nil, p.fail(ctx, r, 0, fmt.Errorf("estimating extensions: %w", err))
	}
	pages, err := pagination.Plan(o)
	if err != nil {
		return nil, p.fail(ctx, r, 0, err)
	}
	r.logger.Info("pagination planned", "pages", len(pages), "roles", pagination.Summary(pages))

	drafts, err := p.newDrafter(req, r).DraftOutline(ctx, o, pages)
	if err != nil {
		return nil, p.fail(ctx, r, 0, fmt.Errorf("drafting: %w", err))
	}

	selections, err := selector.New(selector.Config{
		Generator: p.cfg.Generator,
		Catalog:   p.cfg.Catalog,
		Prompts:   p.prompts,
		Level:     req.Level,
		Model:     p.cfg.Generation.Models.Select,
		Logger:    r.logger,
	}).SelectAll(ctx, drafts)
	if err != nil {
		return nil, p.fail(ctx, r, 0, fmt.Errorf("selecting templates: %w", err))
	}

	work := make([]resolver.Page, len(selections))
	for i, s := range selections {
		specs, err := p.cfg.Catalog.Specs(s.Role, s.Template)
		if err != nil {
			return nil, p.fail(ctx, r, 0, fmt.Errorf("page %d: %w", s.Index, err))
		}
		work[i] = resolver.Page{Page: s.Page, Draft: s.Content, Template: s.Template, Components: specs}
	}

	resolved, st, err := p.newResolver(r, req.Level, req.Subject).ResolveAll(ctx, work)
	if err != nil {
		return nil, p.fail(ctx, r, st.Audios, fmt.Errorf("resolving components: %w", err))
	}

	doc := assembler.Document{
		Subject:  req.Subject,
		Level:    req.Level,
		Language: p.cfg.Generation.LanguageCode(),
		CSS:      p.cfg.Catalog.CSS(),
	}.Assemble(resolved)

	res, err := p.persist(ctx, r, req.Subject, req.Level, doc, len(pages), st.Audios)
	if err != nil {
		return nil, p.fail(ctx, r, st.Audios, err)
	}
	return res, nil
}

func (p *Pipeline) newEstimator(req ContentRequest, logger *slog.Logger) *estimator.Estimator {
	return estimator.New(estimator.Config{
		Generator: p.cfg.Generator,
		Prompts:   p.prompts,
		Padding:   p.cfg.Generation.ExtraSectionPages,
		Level:     req.Level,
		Subject:   req.Subject,
		Model:     p.cfg.Generation.Models.Estimate,
		Logger:    logger,
	})
}

func (p *Pipeline) newDrafter(req ContentRequest, r *run) *drafter.Drafter {
	g := p.cfg.Generation
	return drafter.New(drafter.Config{
		Generator: p.cfg.Generator,
		Prompts:   p.prompts,
		Policy:    p.policy(r),
		Level:     req.Level,
		Subject:   req.Subject,
		Language:  g.LanguageName(),
		MinWords:  g.DraftMinWords,
		MaxWords:  g.DraftMaxWords,
		WebSearch: g.WebSearch,
		Model:     g.Models.Draft,
		Logger:    r.logger,
	})
}
