package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File persists each key as a document under a directory. This is the
// on-device backend: no daemon required, survives restarts.
type File struct {
	dir string
}

// NewFile creates the directory if needed and returns a file-backed store.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("kvstore: directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kvstore: create dir: %w", err)
	}
	return &File{dir: dir}, nil
}

// Get reads the document for key.
func (f *File) Get(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("kvstore: read %s: %w", key, err)
	}
	return string(data), nil
}

// Set writes the document atomically via a temp file rename.
func (f *File) Set(_ context.Context, key, value string) error {
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return fmt.Errorf("kvstore: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, f.path(key)); err != nil {
		return fmt.Errorf("kvstore: commit %s: %w", key, err)
	}
	return nil
}

// Remove deletes the document for key.
func (f *File) Remove(_ context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("kvstore: remove %s: %w", key, err)
	}
	return nil
}

func (f *File) path(key string) string {
	// Keys contain only [a-z_:] in practice; replace separators so the
	// key maps to a flat file name.
	name := strings.NewReplacer(":", "_", "/", "_").Replace(key) + ".json"
	return filepath.Join(f.dir, name)
}
