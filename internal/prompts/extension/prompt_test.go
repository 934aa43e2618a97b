package extension

import (
	"strings"
	"testing"

	"github.com/RafaArmero1993/MentorIA/internal/prompts"
)

func TestPromptsRender(t *testing.T) {
	r := prompts.NewResolver(nil)
	RegisterPrompts(r)

	first, err := r.Render(UserPromptKey, Data{Level: "4º ESO", Current: "Unit: Cells", Topic: "membranes"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(first, "No section has been sized yet") {
		t.Errorf("first leaf prompt should say nothing was sized:\n%s", first)
	}

	later, err := r.Render(UserPromptKey, Data{Level: "4º ESO", Previous: "Unit: Cells (2 pages)", Current: "Unit: Cells", Topic: "nucleus"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(later, "Unit: Cells (2 pages)") {
		t.Errorf("prior leaves missing:\n%s", later)
	}

	if _, err := r.Render(SystemPromptKey, Data{Level: "4º ESO", Subject: "Biology"}); err != nil {
		t.Errorf("system prompt: %v", err)
	}
}
