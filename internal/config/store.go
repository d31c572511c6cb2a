package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is the key-value document store the manager persists collections
// into. Get decodes the stored value for key into out and reports whether the
// key existed; Update replaces the value wholesale.
type Store interface {
	Get(key string, out any) (bool, error)
	Update(key string, value any) error
}

// MemoryStore keeps documents in memory. Zero value is ready to use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]json.RawMessage)}
}

func (s *MemoryStore) Get(key string, out any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.docs[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decode stored value for %q: %w", key, err)
	}
	return true, nil
}

func (s *MemoryStore) Update(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}
	s.mu.Lock()
	if s.docs == nil {
		s.docs = make(map[string]json.RawMessage)
	}
	s.docs[key] = raw
	s.mu.Unlock()
	return nil
}

// FileStore persists the whole document map as one JSON file. Writes go
// through a temp file and rename so a crash cannot leave a torn config.
type FileStore struct {
	mu   sync.Mutex
	path string
	docs map[string]json.RawMessage
}

// NewFileStore loads (or initializes) the JSON document at path.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, docs: make(map[string]json.RawMessage)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read config store: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.docs); err != nil {
			return nil, fmt.Errorf("parse config store %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *FileStore) Get(key string, out any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.docs[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("decode stored value for %q: %w", key, err)
	}
	return true, nil
}

func (s *FileStore) Update(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = raw
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace config store: %w", err)
	}
	return nil
}
