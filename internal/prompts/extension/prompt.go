package extension

import (
	_ "embed"

	"github.com/RafaArmero1993/MentorIA/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPrompt string

// Prompt keys
const (
	SystemPromptKey = "estimator.system"
	UserPromptKey   = "estimator.user"
)

// Data fills both extension prompts.
type Data struct {
	Level    string
	Subject  string
	Previous string // already sized leaves, with their extensions
	Current  string // unit / chapter / section of the leaf being sized
	Topic    string
}

// RegisterPrompts registers the extension prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Extension estimation system prompt - editor sizing sections in pages",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPrompt,
		Description: "Extension estimation user prompt - prior sized leaves plus the leaf to size",
	})
}
