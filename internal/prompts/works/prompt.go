package works

import (
	_ "embed"

	"github.com/RafaArmero1993/MentorIA/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed work.tmpl
var workPrompt string

// Prompt keys
const (
	SystemPromptKey = "works.system"
	WorkPromptKey   = "works.work"
)

// SystemData fills the monograph system prompt.
type SystemData struct {
	Level    string
	Subject  string
	Language string
}

// WorkData fills the monograph prompt.
type WorkData struct {
	Unit      string
	Interests string
}

// RegisterPrompts registers the monograph prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Monograph assignment system prompt",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         WorkPromptKey,
		Text:        workPrompt,
		Description: "Month-long assignment tied to the material and the student's intended degree",
	})
}
