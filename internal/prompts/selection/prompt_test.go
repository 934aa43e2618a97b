package selection

import (
	"strings"
	"testing"

	"github.com/RafaArmero1993/MentorIA/internal/prompts"
)

func TestPromptsRender(t *testing.T) {
	r := prompts.NewResolver(nil)
	RegisterPrompts(r)

	out, err := r.Render(UserPromptKey, Data{Level: "4º ESO", Content: "page text", Candidates: []string{"1", "2", "10"}})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, " - 10\n") {
		t.Errorf("candidates not listed:\n%s", out)
	}
	if _, err := r.Render(SystemPromptKey, Data{Level: "4º ESO"}); err != nil {
		t.Errorf("system prompt: %v", err)
	}
}
