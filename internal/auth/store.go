// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth persists login credentials between runs.
//
// Credentials live in a single JSON file with 0600 permissions under the
// data directory. The store is safe for concurrent use and doubles as the
// gateway's token source.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mediguide/mediguide-tui/internal/gateway"
	"github.com/mediguide/mediguide-tui/internal/util"
)

// credentialsFile is the file name under the data directory.
const credentialsFile = "credentials.json"

// Credentials is the persisted login state.
type Credentials struct {
	Token string       `json:"token"`
	User  gateway.User `json:"user"`
}

// Store holds the current credentials and persists changes to disk.
type Store struct {
	path string

	mu    sync.RWMutex
	creds *Credentials
}

// NewStore creates a store backed by <dataDir>/credentials.json and loads
// any existing credentials. A missing file is not an error.
func NewStore(dataDir string) (*Store, error) {
	s := &Store{
		path: filepath.Join(dataDir, credentialsFile),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		// A corrupt credentials file means re-login, not a crash.
		return nil
	}
	if creds.Token == "" {
		return nil
	}

	s.creds = &creds
	return nil
}

// Save stores new credentials and writes them to disk.
func (s *Store) Save(creds Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := util.AtomicWriteFilePrivate(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	s.mu.Lock()
	s.creds = &creds
	s.mu.Unlock()
	return nil
}

// Clear removes credentials from memory and disk. Called on logout and when
// the backend reports the session expired.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// Token implements gateway.TokenSource. Returns empty when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.Token
}

// Current returns the logged-in user, or nil when logged out.
func (s *Store) Current() *gateway.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return nil
	}
	user := s.creds.User
	return &user
}

// LoggedIn reports whether credentials are present.
func (s *Store) LoggedIn() bool {
	return s.Token() != ""
}
