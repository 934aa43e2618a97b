package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the MentorIA home directory.
	DefaultDirName = ".mentoria"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// IndexFileName is the SQLite index of generated documents.
	IndexFileName = "documents.db"
)

// Dir represents the MentorIA home directory structure:
//
//	~/.mentoria/
//	  config.yaml
//	  documents.db
//	  audio/        synthesized explanations served behind QR links
//	  documents/    assembled content documents
//	  exercises/    assembled exercise sheets
//	  works/        assembled monograph assignments
//	  templates/    optional catalog override
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.mentoria).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}
	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// IndexPath returns the path to the document index database.
func (d *Dir) IndexPath() string {
	return filepath.Join(d.path, IndexFileName)
}

// AudioDir returns the directory for generated audio files.
func (d *Dir) AudioDir() string {
	return filepath.Join(d.path, "audio")
}

// DocumentsDir returns the directory for assembled content documents.
func (d *Dir) DocumentsDir() string {
	return filepath.Join(d.path, "documents")
}

// ExercisesDir returns the directory for assembled exercise sheets.
func (d *Dir) ExercisesDir() string {
	return filepath.Join(d.path, "exercises")
}

// WorksDir returns the directory for assembled monograph assignments.
func (d *Dir) WorksDir() string {
	return filepath.Join(d.path, "works")
}

// TemplatesDir returns the directory checked for a template catalog override.
func (d *Dir) TemplatesDir() string {
	return filepath.Join(d.path, "templates")
}

// AssetRoot returns the root under which asset kinds get their own folders.
func (d *Dir) AssetRoot() string {
	return d.path
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.AudioDir(), d.DocumentsDir(), d.ExercisesDir(), d.WorksDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// HasTemplates reports whether a catalog override is installed.
func (d *Dir) HasTemplates() bool {
	_, err := os.Stat(filepath.Join(d.TemplatesDir(), "catalog.yaml"))
	return err == nil
}
