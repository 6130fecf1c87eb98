package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Fixed keys under which the two credentials are persisted. Absence of
// either leaves the service unconfigured and all data operations disabled.
const (
	KeyDatabaseURL = "knowbase_db_url"
	KeyAPIKey      = "knowbase_api_key"
)

// Settings holds the two opaque credential strings — the hosted database URL
// and the LLM API key — backed by a durable key-value file reloaded at
// startup. It is the single source of the "configured" flag every
// orchestrator operation checks before touching the network.
type Settings struct {
	mu   sync.RWMutex
	path string
	kv   map[string]string
}

// LoadSettings reads the settings file at path. A missing file is not an
// error: the service simply starts unconfigured.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{
		path: path,
		kv:   make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := json.Unmarshal(data, &s.kv); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return s, nil
}

// Update stores both credentials and persists them under the fixed keys.
func (s *Settings) Update(databaseURL, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[KeyDatabaseURL] = databaseURL
	s.kv[KeyAPIKey] = apiKey
	return s.save()
}

func (s *Settings) save() error {
	data, err := json.MarshalIndent(s.kv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

func (s *Settings) DatabaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kv[KeyDatabaseURL]
}

func (s *Settings) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kv[KeyAPIKey]
}

// Configured reports whether both credentials are present.
func (s *Settings) Configured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kv[KeyDatabaseURL] != "" && s.kv[KeyAPIKey] != ""
}
