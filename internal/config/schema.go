package config

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Config holds MentorIA configuration.
// Stored at: {home}/config.yaml
type Config struct {
	LLMProviders   map[string]LLMProviderCfg   `mapstructure:"llm_providers" yaml:"llm_providers"`
	TTSProviders   map[string]TTSProviderCfg   `mapstructure:"tts_providers" yaml:"tts_providers"`
	ImageProviders map[string]ImageProviderCfg `mapstructure:"image_providers" yaml:"image_providers"`
	Defaults       DefaultsCfg                 `mapstructure:"defaults" yaml:"defaults"`
	Generation     GenerationCfg               `mapstructure:"generation" yaml:"generation"`
	Server         ServerCfg                   `mapstructure:"server" yaml:"server"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type      string `mapstructure:"type" yaml:"type"`             // "openrouter"
	Model     string `mapstructure:"model" yaml:"model"`           // Default model
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`       // Supports ${ENV_VAR}
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`     // Optional override
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
}

// TTSProviderCfg configures a speech synthesis provider.
type TTSProviderCfg struct {
	Type    string `mapstructure:"type" yaml:"type"` // "elevenlabs", "openai"
	Model   string `mapstructure:"model" yaml:"model"`
	Voice   string `mapstructure:"voice" yaml:"voice"`
	Format  string `mapstructure:"format" yaml:"format"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// ImageProviderCfg configures an illustration provider.
type ImageProviderCfg struct {
	Type    string `mapstructure:"type" yaml:"type"` // "openai"
	Model   string `mapstructure:"model" yaml:"model"`
	Quality string `mapstructure:"quality" yaml:"quality"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg selects which configured provider each capability uses.
type DefaultsCfg struct {
	LLMProvider   string `mapstructure:"llm_provider" yaml:"llm_provider"`
	TTSProvider   string `mapstructure:"tts_provider" yaml:"tts_provider"`
	ImageProvider string `mapstructure:"image_provider" yaml:"image_provider"`
}

// GenerationCfg holds the document generation parameters.
type GenerationCfg struct {
	Language string `mapstructure:"language" yaml:"language"` // BCP-47 tag

	// Pages added on top of every estimated extension.
	ExtraSectionPages int `mapstructure:"extra_section_pages" yaml:"extra_section_pages"`

	DraftMinWords int `mapstructure:"draft_min_words" yaml:"draft_min_words"`
	DraftMaxWords int `mapstructure:"draft_max_words" yaml:"draft_max_words"`
	// 0 retries malformed drafts forever.
	DraftMaxAttempts       int `mapstructure:"draft_max_attempts" yaml:"draft_max_attempts"`
	DraftRetryDelaySeconds int `mapstructure:"draft_retry_delay_seconds" yaml:"draft_retry_delay_seconds"`
	// Consecutive unavailable faults tolerated while drafting (0 = fail on first).
	DraftMaxUnavailable int `mapstructure:"draft_max_unavailable" yaml:"draft_max_unavailable"`

	WebSearch          bool   `mapstructure:"web_search" yaml:"web_search"`
	CallTimeoutSeconds int    `mapstructure:"call_timeout_seconds" yaml:"call_timeout_seconds"`
	ImageStyle         string `mapstructure:"image_style" yaml:"image_style"`

	// Narrator names the voice persona used in spoken explanations and hints.
	Narrator     string `mapstructure:"narrator" yaml:"narrator"`
	TemplatesDir string `mapstructure:"templates_dir" yaml:"templates_dir"`
	PromptsDir   string `mapstructure:"prompts_dir" yaml:"prompts_dir"`

	Models ModelsCfg `mapstructure:"models" yaml:"models"`
}

// ModelsCfg overrides the provider default model per stage. Empty means default.
type ModelsCfg struct {
	Estimate string `mapstructure:"estimate" yaml:"estimate"`
	Draft    string `mapstructure:"draft" yaml:"draft"`
	Select   string `mapstructure:"select" yaml:"select"`
	Resolve  string `mapstructure:"resolve" yaml:"resolve"`
}

// ServerCfg configures the HTTP service.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
	// PublicBaseURL prefixes audio links encoded in QR codes.
	PublicBaseURL string `mapstructure:"public_base_url" yaml:"public_base_url"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Type:      "openrouter",
				Model:     "google/gemini-2.5-flash",
				APIKey:    "${OPENROUTER_API_KEY}",
				RateLimit: 120,
				Enabled:   true,
			},
		},
		TTSProviders: map[string]TTSProviderCfg{
			"elevenlabs": {
				Type:    "elevenlabs",
				Model:   "eleven_multilingual_v2",
				Voice:   "${ELEVENLABS_VOICE_ID}",
				Format:  "mp3_44100_128",
				APIKey:  "${ELEVENLABS_API_KEY}",
				Enabled: true,
			},
			"openai": {
				Type:    "openai",
				Model:   "gpt-4o-mini-tts",
				Voice:   "coral",
				Format:  "mp3",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: false,
			},
		},
		ImageProviders: map[string]ImageProviderCfg{
			"openai": {
				Type:    "openai",
				Model:   "gpt-image-1",
				Quality: "medium",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: true,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider:   "openrouter",
			TTSProvider:   "elevenlabs",
			ImageProvider: "openai",
		},
		Generation: GenerationCfg{
			Language:               "es",
			ExtraSectionPages:      1,
			DraftMinWords:          1000,
			DraftMaxWords:          2000,
			DraftMaxAttempts:       0,
			DraftRetryDelaySeconds: 2,
			DraftMaxUnavailable:    0,
			WebSearch:              true,
			CallTimeoutSeconds:     300,
			ImageStyle:             "Flat educational illustration, soft colors, clean composition.",
			Narrator:               "Luca",
		},
		Server: ServerCfg{
			Host:          "127.0.0.1",
			Port:          "8080",
			PublicBaseURL: "http://127.0.0.1:8080",
		},
	}
}

// Validate checks generation parameters that cannot be fixed by defaults.
func (c *Config) Validate() error {
	g := c.Generation
	if _, err := language.Parse(g.Language); err != nil {
		return fmt.Errorf("generation.language %q: %w", g.Language, err)
	}
	if g.ExtraSectionPages < 0 {
		return fmt.Errorf("generation.extra_section_pages must be >= 0, got %d", g.ExtraSectionPages)
	}
	if g.DraftMinWords <= 0 || g.DraftMaxWords < g.DraftMinWords {
		return fmt.Errorf("generation draft word band [%d, %d] is invalid", g.DraftMinWords, g.DraftMaxWords)
	}
	if g.DraftMaxAttempts < 0 || g.DraftMaxUnavailable < 0 {
		return fmt.Errorf("generation draft retry limits must be >= 0")
	}
	return nil
}

// LanguageCode returns the ISO 639 base language of the configured tag
// ("es-ES" -> "es"), which is what speech providers expect.
func (g GenerationCfg) LanguageCode() string {
	tag, err := language.Parse(g.Language)
	if err != nil {
		return g.Language
	}
	base, _ := tag.Base()
	return base.String()
}

// LanguageName returns the English display name of the language, used in prompts.
func (g GenerationCfg) LanguageName() string {
	tag, err := language.Parse(g.Language)
	if err != nil {
		return g.Language
	}
	base, _ := tag.Base()
	return display.English.Languages().Name(base)
}

// CallTimeout returns the per capability call deadline.
func (g GenerationCfg) CallTimeout() time.Duration {
	return time.Duration(g.CallTimeoutSeconds) * time.Second
}

// DraftRetryDelay returns the pause between malformed draft attempts.
func (g GenerationCfg) DraftRetryDelay() time.Duration {
	return time.Duration(g.DraftRetryDelaySeconds) * time.Second
}
