package selection

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
	SystemPromptKey = "selector.system"
	UserPromptKey   = "selector.user"
)

// Data fills both selection prompts.
type Data struct {
	Level      string
	Content    string   // drafted page text
	Candidates []string // template names, in preview order
}

// RegisterPrompts registers the template selection prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Template selection system prompt",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPrompt,
		Description: "Template selection user prompt - page content plus candidate previews",
	})
}
