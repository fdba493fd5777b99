// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/utk7arsh/PageMind/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the on-disk PageMind configuration.
type Config struct {
	Version string `toml:"version"`

	Endpoint EndpointConfig `toml:"endpoint"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
}

// EndpointConfig describes the remote chat-completion endpoint.
type EndpointConfig struct {
	// BaseURL is the API root, e.g. https://api.openai.com/v1
	BaseURL string `toml:"base_url"`
	// DefaultModel is used until the user picks a model in the panel.
	DefaultModel string `toml:"default_model"`
	// MaxTokens caps the response length per request.
	MaxTokens int `toml:"max_tokens"`
}

// UIConfig contains panel appearance settings.
type UIConfig struct {
	// Theme selects the markdown render style: "auto", "dark", "light".
	Theme string `toml:"theme"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`
	// Path overrides the default log file location (empty = default).
	Path string `toml:"path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Version: "1",
		Endpoint: EndpointConfig{
			BaseURL:      "https://api.openai.com/v1",
			DefaultModel: "gpt-4o-mini",
			MaxTokens:    1024,
		},
		UI: UIConfig{
			Theme: "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ErrInvalidConfig wraps all validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Endpoint.BaseURL != "" {
		u, err := url.Parse(c.Endpoint.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: endpoint.base_url %q is not a valid http(s) URL", ErrInvalidConfig, c.Endpoint.BaseURL)
		}
	}
	if c.Endpoint.MaxTokens < 0 {
		return fmt.Errorf("%w: endpoint.max_tokens must be >= 0", ErrInvalidConfig)
	}
	switch c.UI.Theme {
	case "", "auto", "dark", "light":
	default:
		return fmt.Errorf("%w: ui.theme %q (want auto, dark, or light)", ErrInvalidConfig, c.UI.Theme)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}

// applyDefaults fills zero values from the defaults.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Endpoint.BaseURL == "" {
		c.Endpoint.BaseURL = def.Endpoint.BaseURL
	}
	if c.Endpoint.DefaultModel == "" {
		c.Endpoint.DefaultModel = def.Endpoint.DefaultModel
	}
	if c.Endpoint.MaxTokens == 0 {
		c.Endpoint.MaxTokens = def.Endpoint.MaxTokens
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// applyEnvOverrides applies PAGEMIND_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PAGEMIND_BASE_URL"); v != "" {
		c.Endpoint.BaseURL = v
	}
	if v := os.Getenv("PAGEMIND_MODEL"); v != "" {
		c.Endpoint.DefaultModel = v
	}
	if v := os.Getenv("PAGEMIND_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store owns the configuration directory. It is safe for concurrent use
// and always answers with the current values.
type Store struct {
	mu  sync.RWMutex
	dir string
	cfg Config

	keys *Keystore
}

// DefaultDir returns ~/.pagemind.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pagemind"), nil
}

// Open loads (or initializes) the configuration under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	s := &Store{
		dir:  dir,
		keys: NewKeystore(dir),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the configuration directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the config file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, "config.toml")
}

// Config returns a copy of the current configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// reload reads the config file from disk, falling back to defaults when
// it does not exist. Env overrides are applied last.
func (s *Store) reload() error {
	cfg := Config{}

	data, err := os.ReadFile(s.Path())
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", s.Path(), err)
		}
	case os.IsNotExist(err):
		cfg = DefaultConfig()
	default:
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Save persists the current configuration atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(s.Path(), buf.Bytes(), 0600)
}

// Update applies fn to a copy of the config, validates the result, and
// persists it.
func (s *Store) Update(fn func(*Config)) error {
	s.mu.Lock()
	next := s.cfg
	fn(&next)
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cfg = next
	s.mu.Unlock()
	return s.Save()
}

// =============================================================================
// CREDENTIAL ACCESS
// =============================================================================

// Credential returns the stored API key, or "" when none is set.
// Callers read it fresh per request so key changes apply immediately.
func (s *Store) Credential() (string, error) {
	return s.keys.Credential()
}

// SetCredential stores (or clears, with "") the API key.
func (s *Store) SetCredential(key string) error {
	return s.keys.SetCredential(key)
}
