// Package assets persists generated audio and documents and encodes the QR
// codes that link printed pages to their audio.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Kind is a class of stored asset.
type Kind string

const (
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
	KindExercise Kind = "exercise"
	KindWork     Kind = "work"
)

// Sheets lists the kinds that hold assembled HTML.
func Sheets() []Kind {
	return []Kind{KindDocument, KindExercise, KindWork}
}

// ErrNotFound is returned for assets that do not exist.
var ErrNotFound = errors.New("asset not found")

// Store persists assets by kind and id. Save replaces any existing asset.
type Store interface {
	Save(ctx context.Context, kind Kind, id string, data []byte) error
	Load(ctx context.Context, kind Kind, id string) ([]byte, error)
	Exists(ctx context.Context, kind Kind, id string) (bool, error)
	Delete(ctx context.Context, kind Kind, id string) error
}

func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid asset id %q", id)
	}
	return nil
}

// FileStore keeps assets on disk, one directory per kind:
//
//	{root}/audio/{id}.mp3
//	{root}/documents/Document_{id}.html
//	{root}/exercises/Exercise_{id}.html
//	{root}/works/Work_{id}.html
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at root.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Path returns the file path of an asset.
func (s *FileStore) Path(kind Kind, id string) (string, error) {
	if err := validID(id); err != nil {
		return "", err
	}
	switch kind {
	case KindAudio:
		return filepath.Join(s.root, "audio", id+".mp3"), nil
	case KindDocument:
		return filepath.Join(s.root, "documents", "Document_"+id+".html"), nil
	case KindExercise:
		return filepath.Join(s.root, "exercises", "Exercise_"+id+".html"), nil
	case KindWork:
		return filepath.Join(s.root, "works", "Work_"+id+".html"), nil
	}
	return "", fmt.Errorf("unknown asset kind %q", kind)
}

// Save deletes any existing asset and writes the new one.
func (s *FileStore) Save(ctx context.Context, kind Kind, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Path(kind, id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads an asset.
func (s *FileStore) Load(ctx context.Context, kind Kind, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Path(kind, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return data, err
}

// Exists reports whether an asset is stored.
func (s *FileStore) Exists(_ context.Context, kind Kind, id string) (bool, error) {
	path, err := s.Path(kind, id)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes an asset. Deleting a missing asset is not an error.
func (s *FileStore) Delete(_ context.Context, kind Kind, id string) error {
	path, err := s.Path(kind, id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStore keeps assets in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func memKey(kind Kind, id string) string { return string(kind) + "/" + id }

func (m *MemoryStore) Save(ctx context.Context, kind Kind, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[memKey(kind, id)] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, kind Kind, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.items[memKey(kind, id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Exists(_ context.Context, kind Kind, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[memKey(kind, id)]
	return ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, kind Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, memKey(kind, id))
	return nil
}

// IDs returns the stored ids of a kind, sorted.
func (m *MemoryStore) IDs(kind Kind) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := string(kind) + "/"
	var ids []string
	for k := range m.items {
		if id, ok := strings.CutPrefix(k, prefix); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
