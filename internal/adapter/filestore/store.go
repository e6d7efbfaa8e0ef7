// Package filestore persists the single current snapshot document.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// StorageError wraps a failed snapshot read or write.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("snapshot %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// File is a single-slot snapshot store backed by one file. Each write
// replaces the previous document atomically.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a store at path. The parent directory is created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file location.
func (f *File) Path() string { return f.path }

// Read returns the stored document, or nil with no error when nothing has
// been written yet.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Path: f.path, Err: err}
	}
	return data, nil
}

// Write replaces the stored document via a temp file and rename.
func (f *File) Write(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.writeAtomic(doc); err != nil {
		return &StorageError{Op: "write", Path: f.path, Err: err}
	}
	return nil
}

func (f *File) writeAtomic(doc []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, f.path)
}

// Memory is an in-process snapshot store for tests and ephemeral runs.
type Memory struct {
	mu  sync.RWMutex
	doc []byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Read(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc == nil {
		return nil, nil
	}
	out := make([]byte, len(m.doc))
	copy(out, m.doc)
	return out, nil
}

func (m *Memory) Write(_ context.Context, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = append([]byte(nil), doc...)
	return nil
}
