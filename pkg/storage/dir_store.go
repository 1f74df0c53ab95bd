package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirStore keeps one file per resource inside a directory.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Dir() string {
	return s.dir
}

func (s *DirStore) path(name ResourceName) string {
	return filepath.Join(s.dir, string(name)+RESOURCE_FILE_EXT)
}

func (s *DirStore) ReadResource(name ResourceName) ([]byte, error) {
	raw, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s in %s", ErrResourceNotFound, name, s.dir)
	}
	if err != nil {
		return nil, fmt.Errorf("read resource %s: %w", name, err)
	}
	return raw, nil
}

// WriteResource replaces the resource file atomically.
func (s *DirStore) WriteResource(name ResourceName, raw []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, string(name)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write resource %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close resource %s: %w", name, err)
	}
	return os.Rename(tmp.Name(), s.path(name))
}
