// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// the MediGuide client.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file location (in order of precedence):
//   - ~/.mediguide/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete client configuration.
type Config struct {
	// General settings
	Version string `toml:"version"`

	// Gateway (backend API) configuration
	Gateway GatewayConfig `toml:"gateway"`

	// Chat behavior configuration
	Chat ChatConfig `toml:"chat"`

	// Local storage configuration
	Storage StorageConfig `toml:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging"`
}

// GatewayConfig contains backend API configuration.
type GatewayConfig struct {
	// BaseURL is the backend API root, including the /api prefix.
	BaseURL string `toml:"base_url"`
	// TimeoutSecs is the per-request timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs"`
	// RequestsPerMinute caps outgoing sends; 0 disables pacing.
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// ChatConfig contains conversation behavior tuning.
type ChatConfig struct {
	// MinContextChars is the minimum synthesized-context length below which
	// the specialist lookup falls back to the latest exchange.
	MinContextChars int `toml:"min_context_chars"`
	// ContextReplyPrefix is how many characters of the latest assistant
	// reply the fallback context includes.
	ContextReplyPrefix int `toml:"context_reply_prefix"`
}

// StorageConfig contains local cache configuration.
type StorageConfig struct {
	// Dir overrides the data directory (empty = ~/.mediguide).
	Dir string `toml:"dir"`
	// MaxConversations caps the local conversation cache; 0 = unlimited.
	MaxConversations int `toml:"max_conversations"`
	// FeedCacheEnabled controls the local article cache database.
	FeedCacheEnabled bool `toml:"feed_cache_enabled"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// ShowTimestamps displays message timestamps in the chat view
	ShowTimestamps bool `toml:"show_timestamps"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode"`
}

// LoggingConfig contains logger configuration.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error
	Level string `toml:"level"`
	// Path overrides the log file location (empty = <data dir>/mediguide.log).
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultBaseURL is the production backend API root.
const DefaultBaseURL = "https://mediguide-backend-pg59.onrender.com/api"

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Gateway: GatewayConfig{
			BaseURL:           DefaultBaseURL,
			TimeoutSecs:       15,
			RequestsPerMinute: 0,
		},

		Chat: ChatConfig{
			MinContextChars:    20,
			ContextReplyPrefix: 100,
		},

		Storage: StorageConfig{
			Dir:              "",
			MaxConversations: 200,
			FeedCacheEnabled: true,
		},

		UI: UIConfig{
			Theme:          "dark",
			ShowTimestamps: true,
			CompactMode:    false,
		},

		Logging: LoggingConfig{
			Level: "info",
			Path:  "",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// DataDir returns the MediGuide data directory path.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".mediguide"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDataDir ensures the data directory exists with private permissions.
func EnsureDataDir() error {
	dir, err := DataDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ResolveDataDir returns the effective data directory, honoring the
// storage.dir override.
func (c *Config) ResolveDataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	return DataDir()
}

// ResolveLogPath returns the effective log file path.
func (c *Config) ResolveLogPath() (string, error) {
	if c.Logging.Path != "" {
		return c.Logging.Path, nil
	}
	dir, err := c.ResolveDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "mediguide.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation. A missing file is not an error; defaults apply.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# MediGuide configuration file")
	fmt.Fprintln(file, "# Generated by mediguide - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Gateway.BaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "gateway.base_url",
			Message: "must not be empty",
		})
	} else if u, err := url.Parse(c.Gateway.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "gateway.base_url",
			Message: fmt.Sprintf("invalid URL '%s'", c.Gateway.BaseURL),
		})
	}

	if c.Gateway.TimeoutSecs < 1 || c.Gateway.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "gateway.timeout_secs",
			Message: fmt.Sprintf("must be 1-300 seconds, got %d", c.Gateway.TimeoutSecs),
		})
	}

	if c.Gateway.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "gateway.requests_per_minute",
			Message: "must be non-negative",
		})
	}

	if c.Chat.MinContextChars < 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.min_context_chars",
			Message: "must be non-negative",
		})
	}

	if c.Chat.ContextReplyPrefix < 1 {
		errs = append(errs, ValidationError{
			Field:   "chat.context_reply_prefix",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Chat.ContextReplyPrefix),
		})
	}

	if c.Storage.MaxConversations < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.max_conversations",
			Message: "must be non-negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = defaults.Gateway.BaseURL
	}
	if c.Gateway.TimeoutSecs == 0 {
		c.Gateway.TimeoutSecs = defaults.Gateway.TimeoutSecs
	}
	if c.Chat.MinContextChars == 0 {
		c.Chat.MinContextChars = defaults.Chat.MinContextChars
	}
	if c.Chat.ContextReplyPrefix == 0 {
		c.Chat.ContextReplyPrefix = defaults.Chat.ContextReplyPrefix
	}
	if c.Storage.MaxConversations == 0 {
		c.Storage.MaxConversations = defaults.Storage.MaxConversations
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MEDIGUIDE_API_URL: overrides gateway.base_url
//   - MEDIGUIDE_TIMEOUT_SECS: overrides gateway.timeout_secs
//   - MEDIGUIDE_DATA_DIR: overrides storage.dir
//   - MEDIGUIDE_THEME: overrides ui.theme
//   - MEDIGUIDE_LOG_LEVEL: overrides logging.level
func (c *Config) ApplyEnvOverrides() {
	if apiURL := os.Getenv("MEDIGUIDE_API_URL"); apiURL != "" {
		c.Gateway.BaseURL = apiURL
	}

	if timeout := os.Getenv("MEDIGUIDE_TIMEOUT_SECS"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil && secs > 0 {
			c.Gateway.TimeoutSecs = secs
		}
	}

	if dir := os.Getenv("MEDIGUIDE_DATA_DIR"); dir != "" {
		c.Storage.Dir = dir
	}

	if theme := os.Getenv("MEDIGUIDE_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	if level := os.Getenv("MEDIGUIDE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
