// Package resolver materializes the components of each page's template:
// text fragments, worked examples, illustrations and spoken explanations
// linked by QR code.
//
// Two buffers ground the generated content. The text buffer collects the
// plain text of fragments written since the last example on the current
// page and is cleared by every example. The speech buffer collects text and
// examples since the last QR code anywhere in the document; it lives in State
// and is carried from page to page. Images never read either buffer.
package resolver

import (
	"encoding/base64"
	"fmt"
	"html"
	"log/slog"

	"github.com/RafaArmero1993/MentorIA/internal/assets"
	"github.com/RafaArmero1993/MentorIA/internal/capability"
	"github.com/RafaArmero1993/MentorIA/internal/prompts"
	"github.com/RafaArmero1993/MentorIA/internal/prompts/components"
	"github.com/RafaArmero1993/MentorIA/internal/templates"
)

// State is what the resolver carries across pages.
type State struct {
	// Speech is the plain text accumulated since the last QR code.
	Speech string `json:"speech" yaml:"speech"`
	// Audios counts the audio assets emitted so far; it numbers audio ids.
	Audios int `json:"audios" yaml:"audios"`
}

func (s State) withSpeech(text string) State {
	if text == "" {
		return s
	}
	if s.Speech != "" {
		s.Speech += "\n\n"
	}
	s.Speech += text
	return s
}

// Resolved is a component with its concrete values.
type Resolved struct {
	templates.Component `yaml:",inline"`

	// Content replaces #content#: HTML markup, or an escaped label.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
	// Image replaces #base64_image#: a base64 PNG.
	Image string `json:"-" yaml:"-"`
	// QR replaces #qr_image#.
	QR string `json:"-" yaml:"-"`
	// AudioID is the audio asset the QR code links to.
	AudioID string `json:"audio_id,omitempty" yaml:"audio_id,omitempty"`
}

// Config configures a Resolver.
type Config struct {
	Generator   capability.Generator
	Illustrator capability.Illustrator
	Speaker     capability.Speaker
	Store       assets.Store
	Prompts     *prompts.Resolver // nil uses the embedded prompts

	// DocumentID prefixes audio asset ids: {DocumentID}_{n}.
	DocumentID string
	// PublicBaseURL is the base of the audio links encoded in QR codes.
	PublicBaseURL string
	QRSize        int

	Level      string
	Subject    string
	Language   string
	Narrator   string
	ImageStyle string
	Model      string
	Logger     *slog.Logger
}

// Resolver resolves page components. It is not safe for concurrent use on
// the same document; pages must be resolved in order.
type Resolver struct {
	cfg     Config
	prompts *prompts.Resolver
	logger  *slog.Logger
}

// New creates a Resolver.
func New(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := cfg.Prompts
	if resolver == nil {
		resolver = prompts.NewResolver(logger)
	}
	if !resolver.Registered(components.FragmentsPromptKey) {
		components.RegisterPrompts(resolver)
	}
	if cfg.QRSize <= 0 {
		cfg.QRSize = assets.DefaultQRSize
	}
	return &Resolver{cfg: cfg, prompts: resolver, logger: logger}
}

func (r *Resolver) systemPrompt() (string, error) {
	return r.prompts.Render(components.SystemPromptKey, components.SystemData{
		Level:    r.cfg.Level,
		Subject:  r.cfg.Subject,
		Language: r.cfg.Language,
	})
}

// Label resolves a header or hierarchy label component.
func Label(comp templates.Component, label string) Resolved {
	return Resolved{Component: comp, Content: html.EscapeString(label)}
}

func encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func pageErr(page int, what string, err error) error {
	return fmt.Errorf("page %d: %s: %w", page, what, err)
}
