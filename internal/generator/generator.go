// Package generator runs complete generation jobs. Content documents turn an
// outline into a paginated, illustrated document. Exercise sheets turn a
// source PDF into exercises with spoken hints. Monograph assignments turn a
// source PDF and a degree description into one long-form project brief. A
// failed or cancelled run leaves nothing behind in the asset store.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/multierr"

	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/config"
	"github.com/RafaArmero1993/MentorIA/internal/docindex"
	"github.com/RafaArmero1993/MentorIA/internal/prompts"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/exercises"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/works"
	"github.com/RafaArmero1993/MentorIA/internal/resolver"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

// MaxDocumentID bounds the numeric document ids handed out.
const MaxDocumentID = 10_000_000

// ErrInvalidRequest marks requests rejected before any capability is called.
var ErrInvalidRequest = errors.New("invalid generation request")

// Config configures a Pipeline.
type Config struct {
	Generator   capability.Generator
	Illustrator capability.Illustrator
	Speaker     capability.Speaker
	Store       assets.Store
	Catalog     *templates.Catalog
	Prompts     *prompts.Resolver // nil uses the embedded prompts
	Index       *docindex.Index   // optional
	Generation  config.GenerationCfg
	// PublicBaseURL is the base of the audio links encoded in QR codes.
	PublicBaseURL string
	Logger        *slog.Logger
}

// Pipeline wires the generation stages together.
type Pipeline struct {
	cfg     Config
	prompts *prompts.Resolver
	logger  *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pr := cfg.Prompts
	if pr == nil {
		pr = prompts.NewResolver(logger)
	}
	if !pr.Registered(exercises.ExercisePromptKey) {
		exercises.RegisterPrompts(pr)
	}
	if !pr.Registered(works.WorkPromptKey) {
		works.RegisterPrompts(pr)
	}
	return &Pipeline{cfg: cfg, prompts: pr, logger: logger}
}

// Result describes a persisted document.
type Result struct {
	ID     string      `json:"document_id" yaml:"document_id"`
	Kind   assets.Kind `json:"kind" yaml:"kind"`
	Name   string      `json:"name" yaml:"name"`
	RunID  string      `json:"run_id" yaml:"run_id"`
	Pages  int         `json:"pages" yaml:"pages"`
	Audios int         `json:"audios" yaml:"audios"`
	Path   string      `json:"path,omitempty" yaml:"path,omitempty"`
}

// run is the bookkeeping of one generation job.
type run struct {
	id     string
	runID  string
	kind   assets.Kind
	logger *slog.Logger
}

func (p *Pipeline) start(ctx context.Context, kind assets.Kind) (context.Context, *run, error) {
	runID := uuid.NewString()
	ctx = capability.WithRunID(ctx, runID)
	id, err := p.newID(ctx)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, &run{
		id:     id,
		runID:  runID,
		kind:   kind,
		logger: p.logger.With("run_id", runID, "document_id", id, "kind", kind),
	}, nil
}

// newID draws a random numeric id no stored sheet of any kind uses, since
// audio is named after it.
func (p *Pipeline) newID(ctx context.Context) (string, error) {
draw:
	for range 100 {
		id := strconv.Itoa(rand.IntN(MaxDocumentID) + 1)
		for _, kind := range assets.Sheets() {
			taken, err := p.cfg.Store.Exists(ctx, kind, id)
			if err != nil {
				return "", fmt.Errorf("checking document id: %w", err)
			}
			if taken {
				continue draw
			}
		}
		return id, nil
	}
	return "", errors.New("no free document id after 100 draws")
}

func (p *Pipeline) newResolver(r *run, level, subject string) *resolver.Resolver {
	g := p.cfg.Generation
	return resolver.New(resolver.Config{
		Generator:     p.cfg.Generator,
		Illustrator:   p.cfg.Illustrator,
		Speaker:       p.cfg.Speaker,
		Store:         p.cfg.Store,
		Prompts:       p.prompts,
		DocumentID:    r.id,
		PublicBaseURL: p.cfg.PublicBaseURL,
		Level:         level,
		Subject:       subject,
		Language:      g.LanguageName(),
		Narrator:      g.Narrator,
		ImageStyle:    g.ImageStyle,
		Model:         g.Models.Resolve,
		Logger:        r.logger,
	})
}

// persist saves the assembled document and indexes it.
func (p *Pipeline) persist(ctx context.Context, r *run, subject, level, doc string, pages, audios int) (*Result, error) {
	if err := p.cfg.Store.Save(ctx, r.kind, r.id, []byte(doc)); err != nil {
		return nil, fmt.Errorf("saving %s %s: %w", r.kind, r.id, err)
	}
	res := &Result{
		ID:     r.id,
		Kind:   r.kind,
		Name:   slug.Make(subject + " " + level),
		RunID:  r.runID,
		Pages:  pages,
		Audios: audios,
	}
	if fs, ok := p.cfg.Store.(*assets.FileStore); ok {
		res.Path, _ = fs.Path(r.kind, r.id)
	}
	if p.cfg.Index != nil {
		err := p.cfg.Index.Put(ctx, docindex.Record{
			ID:      r.id,
			Kind:    string(r.kind),
			Subject: subject,
			Level:   level,
			Slug:    res.Name,
			Pages:   pages,
			Audios:  audios,
			RunID:   r.runID,
		})
		if err != nil {
			return nil, fmt.Errorf("indexing %s %s: %w", r.kind, r.id, err)
		}
	}
	r.logger.Info("document saved", "name", res.Name, "pages", pages, "audios", audios)
	return res, nil
}

// cleanup removes everything a failed run stored: its audio, the document
// and its index entry. It runs even when ctx is cancelled.
func (p *Pipeline) cleanup(ctx context.Context, r *run, audios int) error {
	ctx = context.WithoutCancel(ctx)
	var errs error
	for n := 1; n <= audios; n++ {
		errs = multierr.Append(errs, p.cfg.Store.Delete(ctx, assets.KindAudio, fmt.Sprintf("%s_%d", r.id, n)))
	}
	errs = multierr.Append(errs, p.cfg.Store.Delete(ctx, r.kind, r.id))
	if p.cfg.Index != nil {
		errs = multierr.Append(errs, p.cfg.Index.Delete(ctx, string(r.kind), r.id))
	}
	if errs != nil {
		r.logger.Warn("cleanup incomplete", "error", errs)
	} else {
		r.logger.Info("cleaned up failed run", "audios", audios)
	}
	return errs
}

// fail cleans up after a failed run and returns err. Cleanup errors are
// logged, not returned.
func (p *Pipeline) fail(ctx context.Context, r *run, audios int, err error) error {
	_ = p.cleanup(ctx, r, audios)
	if ctx.Err() != nil {
		r.logger.Warn("generation cancelled", "error", err)
	} else {
		r.logger.Error("generation failed", "error", err)
	}
	return err
}

// required reports the names whose values are blank. names and values pair
// up by position.
func required(names []string, values ...string) error {
	var missing []string
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, names[i])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}
