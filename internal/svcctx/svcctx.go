// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/config"
	"github.com/RafaArmero1993/MentorIA/internal/docindex"
	"github.com/RafaArmero1993/MentorIA/internal/generator"
	"github.com/RafaArmero1993/MentorIA/internal/home"
	"github.com/RafaArmero1993/MentorIA/internal/llmcall"
	"github.com/RafaArmero1993/MentorIA/internal/providers"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

// PipelineFactory builds a generation pipeline for one request.
type PipelineFactory interface {
	Pipeline() (*generator.Pipeline, error)
}

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Registry  *providers.Registry
	Config    *config.Manager
	Logger    *slog.Logger
	Home      *home.Dir
	Store     assets.Store
	Catalog   *templates.Catalog
	Index     *docindex.Index
	LLMCalls  *llmcall.Recorder
	Pipelines PipelineFactory
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// RegistryFrom extracts the provider registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context, falling back to the default.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// StoreFrom extracts the asset store from context.
func StoreFrom(ctx context.Context) assets.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// CatalogFrom extracts the template catalog from context.
func CatalogFrom(ctx context.Context) *templates.Catalog {
	if s := ServicesFrom(ctx); s != nil {
		return s.Catalog
	}
	return nil
}

// IndexFrom extracts the document index from context.
func IndexFrom(ctx context.Context) *docindex.Index {
	if s := ServicesFrom(ctx); s != nil {
		return s.Index
	}
	return nil
}

// LLMCallsFrom extracts the LLM call recorder from context.
func LLMCallsFrom(ctx context.Context) *llmcall.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.LLMCalls
	}
	return nil
}

// PipelinesFrom extracts the pipeline factory from context.
func PipelinesFrom(ctx context.Context) PipelineFactory {
	if s := ServicesFrom(ctx); s != nil {
		return s.Pipelines
	}
	return nil
}
