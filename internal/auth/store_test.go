// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediguide/mediguide-tui/internal/gateway"
)

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.False(t, store.LoggedIn())
	assert.Empty(t, store.Token())
	assert.Nil(t, store.Current())

	creds := Credentials{
		Token: "jwt-abc",
		User:  gateway.User{ID: "u1", PhoneNumber: "5551234567"},
	}
	require.NoError(t, store.Save(creds))

	assert.True(t, store.LoggedIn())
	assert.Equal(t, "jwt-abc", store.Token())
	assert.Equal(t, "u1", store.Current().ID)

	// Credentials file must be private.
	info, err := os.Stat(filepath.Join(dir, "credentials.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A fresh store picks up the persisted credentials.
	reloaded, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "jwt-abc", reloaded.Token())
	assert.Equal(t, "5551234567", reloaded.Current().PhoneNumber)
}

func TestStoreClear(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(Credentials{Token: "jwt"}))

	require.NoError(t, store.Clear())
	assert.False(t, store.LoggedIn())

	_, statErr := os.Stat(filepath.Join(dir, "credentials.json"))
	assert.True(t, os.IsNotExist(statErr))

	// Clearing an already-clear store is fine.
	require.NoError(t, store.Clear())
}

func TestStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.json"), []byte("{not json"), 0600))

	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.False(t, store.LoggedIn())
}
