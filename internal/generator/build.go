package generator

import (
	"fmt"
	"log/slog"

	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/config"
	"github.com/RafaArmero1993/MentorIA/internal/docindex"
	"github.com/RafaArmero1993/MentorIA/internal/home"
	"github.com/RafaArmero1993/MentorIA/internal/llmcall"
	"github.com/RafaArmero1993/MentorIA/internal/prompts"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/components"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/draft"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/exercises"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/extension"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/selection"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/works"
	"github.com/RafaArmero1993/MentorIA/internal/providers"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

// Env holds the long lived dependencies shared by every pipeline.
type Env struct {
	Store    assets.Store
	Catalog  *templates.Catalog
	Index    *docindex.Index
	Recorder *llmcall.Recorder
	Logger   *slog.Logger
}

// OpenEnv prepares the home directory and opens the shared dependencies it
// holds. The returned Env must be closed.
func OpenEnv(cfg *config.Config, h *home.Dir, logger *slog.Logger) (Env, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := h.EnsureExists(); err != nil {
		return Env{}, err
	}

	dir := cfg.Generation.TemplatesDir
	if dir == "" && h.HasTemplates() {
		dir = h.TemplatesDir()
	}
	catalog, err := templates.Load(dir, logger)
	if err != nil {
		return Env{}, fmt.Errorf("loading templates: %w", err)
	}

	index, err := docindex.Open(h.IndexPath())
	if err != nil {
		return Env{}, err
	}

	return Env{
		Store:    assets.NewFileStore(h.AssetRoot()),
		Catalog:  catalog,
		Index:    index,
		Recorder: llmcall.NewRecorder(llmcall.DefaultCapacity),
		Logger:   logger,
	}, nil
}

// Close releases the document index.
func (e Env) Close() error {
	if e.Index == nil {
		return nil
	}
	return e.Index.Close()
}

// NewPrompts returns a resolver with every stage prompt registered and the
// overrides in dir applied.
func NewPrompts(dir string, logger *slog.Logger) (*prompts.Resolver, error) {
	r := prompts.NewResolver(logger)
	extension.RegisterPrompts(r)
	draft.RegisterPrompts(r)
	selection.RegisterPrompts(r)
	components.RegisterPrompts(r)
	exercises.RegisterPrompts(r)
	works.RegisterPrompts(r)
	if _, err := r.LoadOverrides(dir); err != nil {
		return nil, err
	}
	return r, nil
}

// Build creates a Pipeline backed by the default providers of cfg.
func Build(cfg *config.Config, reg *providers.Registry, env Env) (*Pipeline, error) {
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := cfg.Defaults

	llm, err := reg.GetLLM(d.LLMProvider)
	if err != nil {
		return nil, fmt.Errorf("content generation: %w", err)
	}
	tts, err := reg.GetTTS(d.TTSProvider)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	img, err := reg.GetImage(d.ImageProvider)
	if err != nil {
		return nil, fmt.Errorf("illustration: %w", err)
	}

	pr, err := NewPrompts(cfg.Generation.PromptsDir, logger)
	if err != nil {
		return nil, err
	}

	ttsCfg := cfg.TTSProviders[d.TTSProvider]
	return New(Config{
		Generator: capability.NewLLMGenerator(capability.LLMConfig{
			Client:   llm,
			Model:    cfg.LLMProviders[d.LLMProvider].Model,
			Timeout:  cfg.Generation.CallTimeout(),
			Recorder: env.Recorder,
			Logger:   logger,
		}),
		Illustrator: &capability.ProviderIllustrator{Provider: img, Model: cfg.ImageProviders[d.ImageProvider].Model},
		Speaker: &capability.ProviderSpeaker{
			Provider: tts,
			Voice:    config.ResolveEnvVars(ttsCfg.Voice),
			Model:    ttsCfg.Model,
			Format:   ttsCfg.Format,
			Language: cfg.Generation.LanguageCode(),
		},
		Store:         env.Store,
		Catalog:       env.Catalog,
		Prompts:       pr,
		Index:         env.Index,
		Generation:    cfg.Generation,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		Logger:        logger,
	}), nil
}

// Factory builds pipelines from the current configuration, so provider and
// generation changes apply to the next run.
type Factory struct {
	Config   *config.Manager
	Registry *providers.Registry
	Env      Env
}

// Pipeline builds a pipeline for one run.
func (f *Factory) Pipeline() (*Pipeline, error) {
	return Build(f.Config.Get(), f.Registry, f.Env)
}
