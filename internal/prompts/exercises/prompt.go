package exercises

import (
	_ "embed"

	"github.com/RafaArmero1993/MentorIA/internal/prompts"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed exercise.tmpl
var exercisePrompt string

//go:embed hint.tmpl
var hintPrompt string

// Prompt keys
const (
	SystemPromptKey   = "exercises.system"
	ExercisePromptKey = "exercises.exercise"
	HintPromptKey     = "exercises.hint"
)

// SystemData fills the shared system prompt.
type SystemData struct {
	Level    string
	Subject  string
	Language string
}

// Previous is an exercise already written, as plain text.
type Previous struct {
	Number int
	Text   string
}

// ExerciseData fills the exercise prompt.
type ExerciseData struct {
	Unit      string
	Interests string
	Previous  []Previous
}

// HintData fills the hint prompt.
type HintData struct {
	Narrator string
	Level    string
	Exercise string
}

// RegisterPrompts registers the exercise sheet prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Exercise sheet system prompt",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         ExercisePromptKey,
		Text:        exercisePrompt,
		Description: "Next exercise, avoiding the topics of the previous ones",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         HintPromptKey,
		Text:        hintPrompt,
		Description: "Spoken hint for one exercise, grounded in the source PDF",
	})
}
