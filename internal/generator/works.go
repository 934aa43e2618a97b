package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/RafaArmero1993/MentorIA/internal/assembler"
	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/markup"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/works"
	"github.com/RafaArmero1993/MentorIA/internal/providers"
	"github.com/RafaArmero1993/MentorIA/internal/resolver"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

// MonographChapter labels the chapter slot of every monograph assignment.
const MonographChapter = "Trabajo Monográfico"

var workShape = capability.TextShape("monograph", "trabajo", "The monograph assignment in HTML.")

// WorkRequest asks for a monograph assignment grounded in the learning
// material and in a description of the degree the student plans to study.
type WorkRequest struct {
	Subject   string `json:"asignatura" yaml:"asignatura"`
	Level     string `json:"nivel_academico" yaml:"nivel_academico"`
	Unit      string `json:"unidad" yaml:"unidad"`
	Interests string `json:"intereses" yaml:"intereses"`

	PDF        []byte `json:"-" yaml:"-"`
	PDFName    string `json:"-" yaml:"-"`
	DegreePDF  []byte `json:"-" yaml:"-"`
	DegreeName string `json:"-" yaml:"-"`
}

func (req WorkRequest) validate() error {
	if err := required([]string{"subject", "level", "unit"}, req.Subject, req.Level, req.Unit); err != nil {
		return err
	}
	for _, doc := range []struct {
		what string
		data []byte
	}{{"PDF document", req.PDF}, {"degree PDF", req.DegreePDF}} {
		if len(doc.data) == 0 {
			return fmt.Errorf("%w: missing %s", ErrInvalidRequest, doc.what)
		}
		if _, err := pdfPageCount(doc.data); err != nil {
			return fmt.Errorf("%w: unreadable %s: %v", ErrInvalidRequest, doc.what, err)
		}
	}
	return nil
}

func pdfAttachment(name, fallback string, data []byte) providers.Attachment {
	if name == "" {
		name = fallback
	}
	return providers.Attachment{Name: name, MIME: "application/pdf", Data: data}
}

// Monograph runs the monograph flavor: one long assignment linking the
// material to the student's interests and intended degree. It has no audio
// and is persisted as a work document.
func (p *Pipeline) Monograph(ctx context.Context, req WorkRequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	ctx, r, err := p.start(ctx, assets.KindWork)
	if err != nil {
		return nil, err
	}
	r.logger.Info("monograph generation started", "subject", req.Subject, "level", req.Level, "unit", req.Unit)

	system, err := p.prompts.Render(works.SystemPromptKey, works.SystemData{
		Level:    req.Level,
		Subject:  req.Subject,
		Language: p.cfg.Generation.LanguageName(),
	})
	if err != nil {
		return nil, p.fail(ctx, r, 0, err)
	}
	prompt, err := p.prompts.Render(works.WorkPromptKey, works.WorkData{Unit: req.Unit, Interests: req.Interests})
	if err != nil {
		return nil, p.fail(ctx, r, 0, err)
	}
	attachments := []providers.Attachment{
		pdfAttachment(req.PDFName, "material.pdf", req.PDF),
		pdfAttachment(req.DegreeName, "grado.pdf", req.DegreePDF),
	}

	var html string
	_, err = p.policy(r).Do(ctx, "monograph", func(ctx context.Context) error {
		v, err := p.cfg.Generator.Generate(ctx, capability.Request{
			Key:         works.WorkPromptKey,
			System:      system,
			Prompt:      prompt,
			Shape:       workShape,
			Attachments: attachments,
			Model:       p.cfg.Generation.Models.Draft,
			Page:        1,
		})
		if err != nil {
			return err
		}
		out, err := markup.Normalize(v.Text("trabajo"), markup.ExerciseTags)
		if err != nil {
			return &capability.Error{Kind: capability.ErrMalformed, Key: works.WorkPromptKey, Err: err}
		}
		if markup.PlainText(out) == "" {
			return &capability.Error{Kind: capability.ErrMalformed, Key: works.WorkPromptKey, Err: errors.New("empty assignment")}
		}
		html = out
		return nil
	})
	if err != nil {
		return nil, p.fail(ctx, r, 0, err)
	}

	c := p.cfg.Catalog
	doc := assembler.Document{
		Subject:  req.Subject,
		Level:    req.Level,
		Language: p.cfg.Generation.LanguageCode(),
		CSS:      c.CSS(),
	}.Assemble([][]resolver.Resolved{{
		{Component: c.Canonical(templates.TypeHeader)},
		resolver.Label(c.Canonical(templates.TypeUnit), req.Unit),
		resolver.Label(c.Canonical(templates.TypeChapter), MonographChapter),
		{Component: c.Canonical(templates.TypeWork), Content: html},
	}})

	out, err := p.persist(ctx, r, req.Subject, req.Level, doc, 1, 0)
	if err != nil {
		return nil, p.fail(ctx, r, 0, err)
	}
	return out, nil
}
