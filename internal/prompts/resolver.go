package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"
)

// Resolver resolves prompts with directory overrides.
// Resolution order: override > embedded default
type Resolver struct {
	mu        sync.RWMutex
	embedded  map[string]EmbeddedPrompt
	overrides map[string]string
	parsed    map[string]*template.Template // by text hash
	logger    *slog.Logger
}

// NewResolver creates a new prompt resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		embedded:  make(map[string]EmbeddedPrompt),
		overrides: make(map[string]string),
		parsed:    make(map[string]*template.Template),
		logger:    logger,
	}
}

// Register registers an embedded prompt.
// This should be called during initialization by each stage.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Compute hash if not provided
	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}

	// Extract variables if not provided
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// Registered reports whether key has an embedded default.
func (r *Resolver) Registered(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.embedded[key]
	return ok
}

// SetOverride replaces the text of a registered prompt. The override must
// parse as a template.
func (r *Resolver) SetOverride(key, text string) error {
	if !r.Registered(key) {
		return fmt.Errorf("prompt not found: %s", key)
	}
	if _, err := template.New(key).Option("missingkey=error").Parse(text); err != nil {
		return fmt.Errorf("override for %s does not parse: %w", key, err)
	}
	r.mu.Lock()
	r.overrides[key] = text
	r.mu.Unlock()
	return nil
}

// ClearOverrides drops every override.
func (r *Resolver) ClearOverrides() {
	r.mu.Lock()
	r.overrides = make(map[string]string)
	r.mu.Unlock()
}

// LoadOverrides reads {dir}/{key}.tmpl for every registered key. A missing
// directory is not an error; files for unknown keys are skipped with a warning.
func (r *Resolver) LoadOverrides(dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read prompts dir: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".tmpl" {
			continue
		}
		key := strings.TrimSuffix(e.Name(), ".tmpl")
		if !r.Registered(key) {
			r.logger.Warn("ignoring override for unknown prompt", "key", key, "dir", dir)
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return loaded, fmt.Errorf("failed to read override %s: %w", e.Name(), err)
		}
		if err := r.SetOverride(key, string(data)); err != nil {
			return loaded, err
		}
		loaded++
	}
	if loaded > 0 {
		r.logger.Info("loaded prompt overrides", "count", loaded, "dir", dir)
	}
	return loaded, nil
}

// Resolve returns the override for key if one exists, otherwise the embedded default.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if text, ok := r.overrides[key]; ok {
		return &ResolvedPrompt{
			Key:        key,
			Text:       text,
			Variables:  ExtractVariables(text),
			IsOverride: true,
			Hash:       HashText(text),
		}, nil
	}

	embedded, ok := r.embedded[key]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}
	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Hash:      embedded.Hash,
	}, nil
}

// Render resolves key and executes it with data. Missing fields are errors.
func (r *Resolver) Render(key string, data any) (string, error) {
	resolved, err := r.Resolve(key)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	tmpl, ok := r.parsed[resolved.Hash]
	if !ok {
		tmpl, err = template.New(key).Option("missingkey=error").Parse(resolved.Text)
		if err == nil {
			r.parsed[resolved.Hash] = tmpl
		}
	}
	r.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("prompt %s does not parse: %w", key, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", key, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// GetEmbedded returns the embedded default for a key.
func (r *Resolver) GetEmbedded(key string) (*EmbeddedPrompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.embedded[key]
	return &p, ok
}

// AllEmbedded returns all registered embedded prompts sorted by key.
func (r *Resolver) AllEmbedded() []EmbeddedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EmbeddedPrompt, 0, len(r.embedded))
	for _, p := range r.embedded {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}
