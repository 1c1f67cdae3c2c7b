// Package cache is a keyed artifact cache for expensive derived artifacts
// (mixing models, forward matrices). Population policy lives in one place:
// GetOrCompute loads an artifact when its file exists and otherwise
// computes and stores it. Callers must treat the cache as pure memoization
// and invalidate keys when the inputs behind them (mesh, decay parameters)
// change.
package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log"
	"path/filepath"
	"regexp"

	"github.com/cortical-data/scalp.sim/internal/fsutil"
)

// keyPattern constrains cache keys to safe file-name characters.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Store is a directory of gob-encoded artifacts.
type Store struct {
	dir string
	fs  fsutil.FileSystem
}

// New returns a Store rooted at dir on the real filesystem.
func New(dir string) *Store {
	return NewWithFS(dir, fsutil.OS{})
}

// NewWithFS returns a Store using the given filesystem.
func NewWithFS(dir string, fs fsutil.FileSystem) *Store {
	return &Store{dir: dir, fs: fs}
}

// path maps a key to its on-disk location.
func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".gob")
}

// Invalidate removes a cached artifact. Missing keys are not an error.
func (s *Store) Invalidate(key string) error {
	if !s.fs.Exists(s.path(key)) {
		return nil
	}
	return s.fs.Remove(s.path(key))
}

// GetOrCompute loads the artifact stored under key, or runs compute and
// stores its result. The artifact type must be gob-encodable.
func GetOrCompute[T any](s *Store, key string, compute func() (T, error)) (T, error) {
	var zero T
	if !keyPattern.MatchString(key) {
		return zero, fmt.Errorf("cache key %q contains unsafe characters", key)
	}

	path := s.path(key)
	if s.fs.Exists(path) {
		data, err := s.fs.ReadFile(path)
		if err != nil {
			return zero, fmt.Errorf("read cached artifact %s: %w", key, err)
		}
		var out T
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&out); err != nil {
			// A corrupt cache entry is recomputed, not fatal.
			log.Printf("cache: artifact %s is corrupt (%v); recomputing", key, err)
		} else {
			return out, nil
		}
	}

	out, err := compute()
	if err != nil {
		return zero, err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(out); err != nil {
		return zero, fmt.Errorf("encode artifact %s: %w", key, err)
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return zero, fmt.Errorf("create cache dir: %w", err)
	}
	if err := s.fs.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return zero, fmt.Errorf("store artifact %s: %w", key, err)
	}
	return out, nil
}
