package components

import (
	_ "embed"

	"github.com/RafaArmero1993/MentorIA/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed fragments.tmpl
var fragmentsPrompt string

//go:embed example.tmpl
var examplePrompt string

//go:embed explanation.tmpl
var explanationPrompt string

//go:embed image.tmpl
var imagePrompt string

// Prompt keys
const (
	SystemPromptKey      = "resolver.system"
	FragmentsPromptKey   = "resolver.fragments"
	ExamplePromptKey     = "resolver.example"
	ExplanationPromptKey = "resolver.explanation"
	ImagePromptKey       = "resolver.image"
)

// Block is one text fragment to write.
type Block struct {
	Number int
	Field  string
	Length int // characters
}

// SystemData fills the shared system prompt.
type SystemData struct {
	Level    string
	Subject  string
	Language string
}

// FragmentsData fills the fragments prompt.
type FragmentsData struct {
	Content string
	Blocks  []Block
}

// GroundedData fills the example, explanation and image prompts.
type GroundedData struct {
	Level     string
	Narrator  string
	Style     string
	Grounding string
}

// RegisterPrompts registers the component prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Component resolution system prompt",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         FragmentsPromptKey,
		Text:        fragmentsPrompt,
		Description: "Splits a drafted page into sized HTML text blocks",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         ExamplePromptKey,
		Text:        examplePrompt,
		Description: "Worked example grounded in the text written since the last example",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         ExplanationPromptKey,
		Text:        explanationPrompt,
		Description: "Spoken explanation grounded in everything since the last QR code",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         ImagePromptKey,
		Text:        imagePrompt,
		Description: "Illustration prompt with the no-text constraint",
	})
}
