package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/RafaArmero1993/MentorIA/internal/assembler"
	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/markup"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/exercises"
	"github.com/RafaArmero1993/MentorIA/internal/providers"
	"github.com/RafaArmero1993/MentorIA/internal/resolver"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

// MaxExercises bounds the exercises of one sheet.
const MaxExercises = 20

// ExercisesChapter labels the chapter slot of every exercise sheet.
const ExercisesChapter = "Ejercicios"

var (
	exerciseShape = capability.TextShape("exercise", "content", "The exercise statement in HTML.")
	hintShape     = capability.TextShape("exercise_hint", "content", "The spoken hint in plain text.")
)

// ExerciseRequest asks for an exercise sheet grounded in a PDF.
type ExerciseRequest struct {
	Subject   string `json:"asignatura" yaml:"asignatura"`
	Level     string `json:"nivel_academico" yaml:"nivel_academico"`
	Unit      string `json:"unidad" yaml:"unidad"`
	Interests string `json:"intereses" yaml:"intereses"`
	Count     int    `json:"numero_ejercicios" yaml:"numero_ejercicios"`

	PDF     []byte `json:"-" yaml:"-"`
	PDFName string `json:"-" yaml:"-"`
}

func (req ExerciseRequest) validate() (int, error) {
	if err := required([]string{"subject", "level", "unit"}, req.Subject, req.Level, req.Unit); err != nil {
		return 0, err
	}
	if req.Count < 1 || req.Count > MaxExercises {
		return 0, fmt.Errorf("%w: exercise count must be between 1 and %d, got %d", ErrInvalidRequest, MaxExercises, req.Count)
	}
	if len(req.PDF) == 0 {
		return 0, fmt.Errorf("%w: missing PDF document", ErrInvalidRequest)
	}
	pages, err := pdfPageCount(req.PDF)
	if err != nil {
		return 0, fmt.Errorf("%w: unreadable PDF: %v", ErrInvalidRequest, err)
	}
	return pages, nil
}

func pdfPageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("document has no pages")
	}
	return n, nil
}

// Exercise is one generated exercise.
type Exercise struct {
	Number  int    `json:"number" yaml:"number"`
	HTML    string `json:"html" yaml:"html"`
	Text    string `json:"text" yaml:"text"`
	Hint    string `json:"hint" yaml:"hint"`
	AudioID string `json:"audio_id" yaml:"audio_id"`
}

// Exercises runs the exercise sheet flavor: Count exercises written one
// after another so none repeats a previous topic, each followed by a QR code
// linking to a spoken hint. The sheet is persisted as an exercise document.
func (p *Pipeline) Exercises(ctx context.Context, req ExerciseRequest) (*Result, error) {
	pdfPages, err := req.validate()
	if err != nil {
		return nil, err
	}
	ctx, r, err := p.start(ctx, assets.KindExercise)
	if err != nil {
		return nil, err
	}
	r.logger.Info("exercise generation started", "subject", req.Subject, "level", req.Level,
		"unit", req.Unit, "exercises", req.Count, "pdf_pages", pdfPages)

	name := req.PDFName
	if name == "" {
		name = "material.pdf"
	}
	pdf := providers.Attachment{Name: name, MIME: "application/pdf", Data: req.PDF}

	system, err := p.prompts.Render(exercises.SystemPromptKey, exercises.SystemData{
		Level:    req.Level,
		Subject:  req.Subject,
		Language: p.cfg.Generation.LanguageName(),
	})
	if err != nil {
		return nil, p.fail(ctx, r, 0, err)
	}

	items := make([]Exercise, 0, req.Count)
	for i := 1; i <= req.Count; i++ {
		ex, err := p.writeExercise(ctx, r, system, pdf, req, items)
		if err != nil {
			return nil, p.fail(ctx, r, 0, fmt.Errorf("exercise %d: %w", i, err))
		}
		items = append(items, ex)
		r.logger.Info("exercise written", "exercise", i)
	}

	res := p.newResolver(r, req.Level, req.Subject)
	qrComp := p.cfg.Catalog.Canonical(templates.TypeQR)
	qrs := make([]resolver.Resolved, len(items))
	var st resolver.State
	for i := range items {
		hint, err := p.writeHint(ctx, system, pdf, req.Level, items[i])
		if err != nil {
			return nil, p.fail(ctx, r, st.Audios, fmt.Errorf("exercise %d hint: %w", i+1, err))
		}
		qrs[i], st, err = res.LinkAudio(ctx, st, qrComp, hint)
		if err != nil {
			return nil, p.fail(ctx, r, st.Audios, fmt.Errorf("exercise %d audio: %w", i+1, err))
		}
		items[i].Hint = hint
		items[i].AudioID = qrs[i].AudioID
	}

	doc := assembler.Document{
		Subject:  req.Subject,
		Level:    req.Level,
		Language: p.cfg.Generation.LanguageCode(),
		CSS:      p.cfg.Catalog.CSS(),
	}.Assemble([][]resolver.Resolved{p.sheet(req.Unit, items, qrs)})

	out, err := p.persist(ctx, r, req.Subject, req.Level, doc, 1, st.Audios)
	if err != nil {
		return nil, p.fail(ctx, r, st.Audios, err)
	}
	return out, nil
}

// sheet lays out the fixed exercise structure: header, unit, chapter, then
// a section label, the exercise and its QR code per exercise.
func (p *Pipeline) sheet(unit string, items []Exercise, qrs []resolver.Resolved) []resolver.Resolved {
	c := p.cfg.Catalog
	out := []resolver.Resolved{
		{Component: c.Canonical(templates.TypeHeader)},
		resolver.Label(c.Canonical(templates.TypeUnit), unit),
		resolver.Label(c.Canonical(templates.TypeChapter), ExercisesChapter),
	}
	for i, ex := range items {
		out = append(out,
			resolver.Label(c.Canonical(templates.TypeSection), fmt.Sprintf("Ejercicio %d:", ex.Number)),
			resolver.Resolved{Component: c.Canonical(templates.TypeExercise), Content: ex.HTML},
			qrs[i],
		)
	}
	return out
}

func (p *Pipeline) writeExercise(ctx context.Context, r *run, system string, pdf providers.Attachment, req ExerciseRequest, prev []Exercise) (Exercise, error) {
	data := exercises.ExerciseData{Unit: req.Unit, Interests: req.Interests}
	for _, ex := range prev {
		data.Previous = append(data.Previous, exercises.Previous{Number: ex.Number, Text: ex.Text})
	}
	prompt, err := p.prompts.Render(exercises.ExercisePromptKey, data)
	if err != nil {
		return Exercise{}, err
	}

	ex := Exercise{Number: len(prev) + 1}
	_, err = p.policy(r).Do(ctx, fmt.Sprintf("exercise %d", ex.Number), func(ctx context.Context) error {
		v, err := p.cfg.Generator.Generate(ctx, capability.Request{
			Key:         exercises.ExercisePromptKey,
			System:      system,
			Prompt:      prompt,
			Shape:       exerciseShape,
			Attachments: []providers.Attachment{pdf},
			Model:       p.cfg.Generation.Models.Draft,
			Page:        ex.Number,
		})
		if err != nil {
			return err
		}
		html, err := markup.Normalize(v.Text("content"), markup.ExerciseTags)
		if err != nil {
			return &capability.Error{Kind: capability.ErrMalformed, Key: exercises.ExercisePromptKey, Err: err}
		}
		text := markup.PlainText(html)
		if text == "" {
			return &capability.Error{Kind: capability.ErrMalformed, Key: exercises.ExercisePromptKey, Err: errors.New("empty exercise")}
		}
		ex.HTML, ex.Text = html, text
		return nil
	})
	return ex, err
}

func (p *Pipeline) writeHint(ctx context.Context, system string, pdf providers.Attachment, level string, ex Exercise) (string, error) {
	prompt, err := p.prompts.Render(exercises.HintPromptKey, exercises.HintData{
		Narrator: p.cfg.Generation.Narrator,
		Level:    level,
		Exercise: ex.Text,
	})
	if err != nil {
		return "", err
	}
	v, err := p.cfg.Generator.Generate(ctx, capability.Request{
		Key:         exercises.HintPromptKey,
		System:      system,
		Prompt:      prompt,
		Shape:       hintShape,
		Attachments: []providers.Attachment{pdf},
		Model:       p.cfg.Generation.Models.Resolve,
		Page:        ex.Number,
	})
	if err != nil {
		return "", err
	}
	return markup.PlainText(v.Text("content")), nil
}

func (p *Pipeline) policy(r *run) capability.RetryPolicy {
	g := p.cfg.Generation
	return capability.RetryPolicy{
		MaxAttempts:    g.DraftMaxAttempts,
		Delay:          g.DraftRetryDelay(),
		MaxUnavailable: g.DraftMaxUnavailable,
		Logger:         r.logger,
	}
}
