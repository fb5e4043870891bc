package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the bearer token between CLI invocations.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a single user-readable file.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore returns a store writing to path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load returns the stored token, or "" when none is saved.
func (s *FileTokenStore) Load() (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// Save writes token with owner-only permissions.
func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Clear removes the token file if present.
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the token in memory.
type MemoryTokenStore struct {
	token string
}

func (s *MemoryTokenStore) Load() (string, error) { return s.token, nil }
func (s *MemoryTokenStore) Save(token string) error {
	s.token = token
	return nil
}
func (s *MemoryTokenStore) Clear() error {
	s.token = ""
	return nil
}
