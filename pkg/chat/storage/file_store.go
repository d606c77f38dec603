package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every key in one JSON object on disk.
type FileStore struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read storage file: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.values); err != nil {
			return nil, fmt.Errorf("parse storage file %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.flushLocked()
}

// flushLocked writes to a temp file and renames it over the old one.
func (s *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write storage: %w", err)
	}
	return os.Rename(tmp, s.path)
}
