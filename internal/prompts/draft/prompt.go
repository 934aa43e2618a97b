package draft

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
	SystemPromptKey = "drafter.system"
	UserPromptKey   = "drafter.user"
)

// Data fills both drafting prompts.
type Data struct {
	Level          string
	Subject        string
	Language       string
	Topics         string // whole document outline, identical on every call
	Transcript     string // continuity transcript of prior pages
	Current        string // position of the page being written
	Topic          string
	IndexInSection int
	SectionLength  int
	MinWords       int
	MaxWords       int
}

// RegisterPrompts registers the drafting prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Page drafting system prompt",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPrompt,
		Description: "Page drafting user prompt - document topics, continuity transcript and page position",
	})
}
