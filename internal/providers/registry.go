package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the configured LLM, TTS and image providers. It is built
// from config and rebuilt in place when the config file changes.
type Registry struct {
	mu           sync.RWMutex
	llmClients   map[string]LLMClient
	tts          map[string]TTSProvider
	images       map[string]ImageProvider
	fingerprints map[string]string
	logger       *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients:   make(map[string]LLMClient),
		tts:          make(map[string]TTSProvider),
		images:       make(map[string]ImageProvider),
		fingerprints: make(map[string]string),
		logger:       slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
}

// RegisterTTS registers a TTS provider by name.
func (r *Registry) RegisterTTS(name string, provider TTSProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = provider
}

// RegisterImage registers an image provider by name.
func (r *Registry) RegisterImage(name string, provider ImageProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[name] = provider
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// GetTTS returns a TTS provider by name.
func (r *Registry) GetTTS(name string) (TTSProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.tts[name]
	if !ok {
		return nil, fmt.Errorf("TTS provider not found: %s", name)
	}
	return p, nil
}

// GetImage returns an image provider by name.
func (r *Registry) GetImage(name string) (ImageProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.images[name]
	if !ok {
		return nil, fmt.Errorf("image provider not found: %s", name)
	}
	return p, nil
}

// ListLLM returns all registered LLM client names, sorted.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.llmClients)
}

// ListTTS returns all registered TTS provider names, sorted.
func (r *Registry) ListTTS() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.tts)
}

// ListImage returns all registered image provider names, sorted.
func (r *Registry) ListImage() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.images)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegistryConfig defines the providers to instantiate from config, with API
// keys already resolved.
type RegistryConfig struct {
	LLMProviders   map[string]LLMProviderConfig
	TTSProviders   map[string]TTSProviderConfig
	ImageProviders map[string]ImageProviderConfig
}

// LLMProviderConfig configures one chat provider.
type LLMProviderConfig struct {
	Type      string // "openrouter"
	Model     string
	APIKey    string
	BaseURL   string
	RateLimit int // Requests per minute
	Enabled   bool
}

// TTSProviderConfig configures one speech provider.
type TTSProviderConfig struct {
	Type     string // "elevenlabs", "openai"
	Model    string
	Voice    string
	Format   string
	Language string
	APIKey   string
	BaseURL  string
	Enabled  bool
}

// ImageProviderConfig configures one illustration provider.
type ImageProviderConfig struct {
	Type    string // "openai"
	Model   string
	Quality string
	APIKey  string
	BaseURL string
	Enabled bool
}

// NewRegistryFromConfig creates a registry with the enabled providers that
// have API keys.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.Reload(cfg)
	return r
}

// Reload updates the registry based on new configuration. Providers no
// longer configured are dropped, changed ones are recreated.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)

	for name, c := range cfg.LLMProviders {
		if !c.Enabled || c.APIKey == "" {
			continue
		}
		key := "llm/" + name
		want[key] = true
		if fp := fmt.Sprintf("%+v", c); r.fingerprints[key] != fp {
			if client := createLLMClient(c); client != nil {
				r.llmClients[name] = client
				r.fingerprints[key] = fp
				r.logger.Info("registered LLM client", "name", name, "type", c.Type)
			}
		}
	}
	for name, c := range cfg.TTSProviders {
		if !c.Enabled || c.APIKey == "" {
			continue
		}
		key := "tts/" + name
		want[key] = true
		if fp := fmt.Sprintf("%+v", c); r.fingerprints[key] != fp {
			if p := createTTSProvider(c); p != nil {
				r.tts[name] = p
				r.fingerprints[key] = fp
				r.logger.Info("registered TTS provider", "name", name, "type", c.Type)
			}
		}
	}
	for name, c := range cfg.ImageProviders {
		if !c.Enabled || c.APIKey == "" {
			continue
		}
		key := "image/" + name
		want[key] = true
		if fp := fmt.Sprintf("%+v", c); r.fingerprints[key] != fp {
			if p := createImageProvider(c); p != nil {
				r.images[name] = p
				r.fingerprints[key] = fp
				r.logger.Info("registered image provider", "name", name, "type", c.Type)
			}
		}
	}

	for name := range r.llmClients {
		if key := "llm/" + name; !want[key] && r.fingerprints[key] != "" {
			delete(r.llmClients, name)
			delete(r.fingerprints, key)
			r.logger.Info("unregistered LLM client", "name", name)
		}
	}
	for name := range r.tts {
		if key := "tts/" + name; !want[key] && r.fingerprints[key] != "" {
			delete(r.tts, name)
			delete(r.fingerprints, key)
			r.logger.Info("unregistered TTS provider", "name", name)
		}
	}
	for name := range r.images {
		if key := "image/" + name; !want[key] && r.fingerprints[key] != "" {
			delete(r.images, name)
			delete(r.fingerprints, key)
			r.logger.Info("unregistered image provider", "name", name)
		}
	}
}

func createLLMClient(cfg LLMProviderConfig) LLMClient {
	switch cfg.Type {
	case "openrouter":
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			RPM:          cfg.RateLimit,
		})
	default:
		return nil
	}
}

func createTTSProvider(cfg TTSProviderConfig) TTSProvider {
	switch cfg.Type {
	case "elevenlabs":
		return NewElevenLabsTTSClient(ElevenLabsTTSConfig{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Voice:    cfg.Voice,
			Format:   cfg.Format,
			Language: cfg.Language,
		})
	case "openai":
		return NewOpenAITTSClient(OpenAITTSConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Voice:   cfg.Voice,
		})
	default:
		return nil
	}
}

func createImageProvider(cfg ImageProviderConfig) ImageProvider {
	switch cfg.Type {
	case "openai":
		return NewOpenAIImageClient(OpenAIImageConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Quality: cfg.Quality,
		})
	default:
		return nil
	}
}
