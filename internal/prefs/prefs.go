// Package prefs persists small client preferences as a YAML key/value file.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/starford/murmur/internal/storage"
)

// Store reads and writes one YAML file through a storage provider.
type Store struct {
	fs   storage.Provider
	file string
	mu   sync.Mutex
}

// Open returns a preference store backed by file inside fs. The file is
// created on the first Set.
func Open(fs storage.Provider, file string) *Store {
	return &Store{fs: fs, file: file}
}

// Get returns the value stored under key, or "" when it is not set.
func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return "", err
	}
	return m[key], nil
}

// Set stores value under key and writes the file before returning.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		return err
	}
	m[key] = value

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}
	if err := s.fs.Write(s.file, data); err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	return nil
}

func (s *Store) load() (map[string]string, error) {
	data, err := s.fs.Read(s.file)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("prefs: %w", err)
	}
	m := map[string]string{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("prefs: decode %s: %w", s.file, err)
	}
	return m, nil
}
