// Package prefs persists small display preferences between sessions.
package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

const (
	// ThemeKey stores "dark" or "light".
	ThemeKey = "chromaseek.theme"

	ThemeDark  = "dark"
	ThemeLight = "light"

	fileName  = "prefs.json"
	configDir = "chromaseek"
)

// Store is a string key/value file. The whole file is rewritten on Set.
type Store struct {
	path string
	mu   sync.Mutex
}

// DefaultPath places the file under the user config directory.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = filepath.Join(os.TempDir(), "chromaseek-config")
	}
	return filepath.Join(base, configDir, fileName)
}

// Open returns a store backed by path, or DefaultPath when path is empty.
// The file is created lazily on the first Set.
func Open(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// Path reports the backing file.
func (s *Store) Path() string {
	return s.path
}

// Get returns the stored value and whether it exists.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *Store) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	values := map[string]string{}
	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}
