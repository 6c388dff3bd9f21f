package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
)

// FileStore reads and overwrites a catalog document on the local filesystem
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store reads and writes
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the whole file, or returns ErrDocumentNotFound if it does not exist
func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", s.path, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return data, nil
}

// Info reports the file's size and modification time. Files carry no revision.
func (s *FileStore) Info(ctx context.Context) (*DocumentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stat, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", s.path, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("failed to stat catalog file: %w", err)
	}

	return &DocumentInfo{
		Name:    filepath.Base(s.path),
		Size:    int(stat.Size()),
		SavedAt: stat.ModTime().UTC(),
	}, nil
}

// Save replaces the file atomically by writing a sibling temp file and
// renaming it over the target
func (s *FileStore) Save(ctx context.Context, revision string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set catalog file mode: %w", err)
	}

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close catalog file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}

	log.Printf("Saved catalog revision %s to %s (%d bytes)", revision, s.path, len(doc))
	return nil
}
