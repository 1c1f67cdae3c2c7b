// Package fsutil provides a small filesystem abstraction so the artifact
// cache can be tested against an in-memory implementation.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSystem abstracts the operations the cache layer needs. Use OS for
// production and NewMemory for tests.
type FileSystem interface {
	// ReadFile reads the named file and returns its contents.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm os.FileMode) error

	// MkdirAll creates a directory and all necessary parents.
	MkdirAll(path string, perm os.FileMode) error

	// Exists reports whether a file or directory exists.
	Exists(name string) bool

	// Remove removes the named file.
	Remove(name string) error
}

// OS implements FileSystem using the os package.
type OS struct{}

func (OS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

func (OS) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (OS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (OS) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func (OS) Remove(name string) error { return os.Remove(name) }

// Memory is an in-memory FileSystem for tests. Directories are implicit.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *Memory {
	return &Memory{files: map[string][]byte{}}
}

func (m *Memory) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(name)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, os.ErrNotExist)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) WriteFile(name string, data []byte, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.files[filepath.Clean(name)] = stored
	return nil
}

func (m *Memory) MkdirAll(string, os.FileMode) error { return nil }

func (m *Memory) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(name)]
	return ok
}

func (m *Memory) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := filepath.Clean(name)
	if _, ok := m.files[key]; !ok {
		return fmt.Errorf("remove %s: %w", name, os.ErrNotExist)
	}
	delete(m.files, key)
	return nil
}
