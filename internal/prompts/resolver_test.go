package prompts

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r := NewResolver(nil)
	r.Register(EmbeddedPrompt{Key: "stage.user", Text: "Write about {{.Topic}} for {{ .Level }}."})
	return r
}

func TestExtractVariables(t *testing.T) {
	got := ExtractVariables("Hello {{.Name}}, {{ .Count }} items, {{.Name}} again, {{.Page.Topic}}")
	want := []string{"Count", "Name", "Page.Topic"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractVariables() = %v, want %v", got, want)
	}
}

func TestResolver_Render(t *testing.T) {
	r := newTestResolver(t)

	got, err := r.Render("stage.user", map[string]string{"Topic": "cells", "Level": "4º ESO"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "Write about cells for 4º ESO." {
		t.Errorf("Render() = %q", got)
	}

	if _, err := r.Render("stage.user", map[string]string{"Topic": "cells"}); err == nil {
		t.Error("missing variable should fail")
	}
	if _, err := r.Render("unknown", nil); err == nil {
		t.Error("unknown key should fail")
	}
}

func TestResolver_Overrides(t *testing.T) {
	r := newTestResolver(t)

	if err := r.SetOverride("unknown", "x"); err == nil {
		t.Error("override of unregistered key should fail")
	}
	if err := r.SetOverride("stage.user", "{{.Topic"); err == nil {
		t.Error("unparsable override should fail")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "stage.user.tmpl"), []byte("Custom {{.Topic}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "other.tmpl"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := r.LoadOverrides(dir)
	if err != nil || n != 1 {
		t.Fatalf("LoadOverrides() = %d, %v", n, err)
	}

	resolved, err := r.Resolve("stage.user")
	if err != nil {
		t.Fatal(err)
	}
	if !resolved.IsOverride || resolved.Hash != HashText("Custom {{.Topic}}") {
		t.Errorf("unexpected resolution: %+v", resolved)
	}
	got, err := r.Render("stage.user", map[string]string{"Topic": "atoms"})
	if err != nil || got != "Custom atoms" {
		t.Errorf("Render() = %q, %v", got, err)
	}

	r.ClearOverrides()
	if resolved, _ := r.Resolve("stage.user"); resolved.IsOverride {
		t.Error("override should be cleared")
	}

	if n, err := r.LoadOverrides(filepath.Join(dir, "missing")); n != 0 || err != nil {
		t.Errorf("missing dir = %d, %v", n, err)
	}
}

func TestResolver_AllEmbeddedSorted(t *testing.T) {
	r := newTestResolver(t)
	r.Register(EmbeddedPrompt{Key: "a.first", Text: "x"})
	all := r.AllEmbedded()
	if len(all) != 2 || all[0].Key != "a.first" {
		t.Errorf("AllEmbedded() = %v", all)
	}
	if !strings.HasPrefix(all[1].Hash, HashText(all[1].Text)[:8]) {
		t.Error("hash not computed on register")
	}
}
