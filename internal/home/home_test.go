package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-mentoria")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-mentoria" {
			t.Errorf("expected path /tmp/test-mentoria, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		home, _ := os.UserHomeDir()
		if expected := filepath.Join(home, DefaultDirName); dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-mentoria")

	tests := []struct {
		name, got, want string
	}{
		{"ConfigPath", dir.ConfigPath(), "/tmp/test-mentoria/config.yaml"},
		{"IndexPath", dir.IndexPath(), "/tmp/test-mentoria/documents.db"},
		{"AudioDir", dir.AudioDir(), "/tmp/test-mentoria/audio"},
		{"DocumentsDir", dir.DocumentsDir(), "/tmp/test-mentoria/documents"},
		{"ExercisesDir", dir.ExercisesDir(), "/tmp/test-mentoria/exercises"},
		{"WorksDir", dir.WorksDir(), "/tmp/test-mentoria/works"},
		{"TemplatesDir", dir.TemplatesDir(), "/tmp/test-mentoria/templates"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %s, want %s", tt.name, tt.got, tt.want)
		}
	}
}

func TestDir_EnsureExists(t *testing.T) {
	dir, err := New(filepath.Join(t.TempDir(), "mentoria-test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	for _, sub := range []string{dir.AudioDir(), dir.DocumentsDir(), dir.ExercisesDir(), dir.WorksDir()} {
		if _, err := os.Stat(sub); err != nil {
			t.Errorf("%s should exist after EnsureExists", sub)
		}
	}
}

func TestDir_ConfigAndTemplates(t *testing.T) {
	dir, _ := New(t.TempDir())

	if dir.ConfigExists() || dir.HasTemplates() {
		t.Fatal("fresh home should have no config or templates")
	}
	if err := os.WriteFile(dir.ConfigPath(), []byte("server: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dir.TemplatesDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir.TemplatesDir(), "catalog.yaml"), []byte("roles: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !dir.ConfigExists() || !dir.HasTemplates() {
		t.Error("config and templates should be detected")
	}
}
