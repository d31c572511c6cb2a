package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SecretStore holds credential material separately from the main
// configuration document. Get reports presence explicitly so an empty secret
// and a missing one are distinguishable.
type SecretStore interface {
	Store(key, value string) error
	Get(key string) (string, bool, error)
	Delete(key string) error
}

// MemorySecretStore is an in-memory SecretStore for tests.
type MemorySecretStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemorySecretStore returns an empty in-memory secret store.
func NewMemorySecretStore() *MemorySecretStore {
	return &MemorySecretStore{secrets: make(map[string]string)}
}

func (s *MemorySecretStore) Store(key, value string) error {
	s.mu.Lock()
	if s.secrets == nil {
		s.secrets = make(map[string]string)
	}
	s.secrets[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemorySecretStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	value, ok := s.secrets[key]
	s.mu.RUnlock()
	return value, ok, nil
}

func (s *MemorySecretStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.secrets, key)
	s.mu.Unlock()
	return nil
}

// FileSecretStore persists secrets as a JSON file with 0600 permissions.
type FileSecretStore struct {
	mu      sync.Mutex
	path    string
	secrets map[string]string
}

// NewFileSecretStore loads (or initializes) the secret file at path.
func NewFileSecretStore(path string) (*FileSecretStore, error) {
	s := &FileSecretStore{path: path, secrets: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read secret store: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.secrets); err != nil {
			return nil, fmt.Errorf("parse secret store %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *FileSecretStore) Store(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key] = value
	return s.flushLocked()
}

func (s *FileSecretStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	value, ok := s.secrets[key]
	s.mu.Unlock()
	return value, ok, nil
}

func (s *FileSecretStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.secrets[key]; !ok {
		return nil
	}
	delete(s.secrets, key)
	return s.flushLocked()
}

func (s *FileSecretStore) flushLocked() error {
	data, err := json.MarshalIndent(s.secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("encode secret store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create secret directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write secret store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace secret store: %w", err)
	}
	return nil
}
