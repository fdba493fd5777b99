// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// KEYSTORE TESTS
// =============================================================================

func TestKeystore_RoundTrip(t *testing.T) {
	k := NewKeystore(t.TempDir())

	require.NoError(t, k.SetCredential("sk-test-1234567890"))

	got, err := k.Credential()
	require.NoError(t, err)
	assert.Equal(t, "sk-test-1234567890", got)
	assert.True(t, k.HasCredential())
}

func TestKeystore_MissingCredential(t *testing.T) {
	k := NewKeystore(t.TempDir())

	got, err := k.Credential()
	require.NoError(t, err)
	assert.Empty(t, got, "missing credential reads as empty, not as an error")
	assert.False(t, k.HasCredential())
}

func TestKeystore_EmptyDeletes(t *testing.T) {
	k := NewKeystore(t.TempDir())

	require.NoError(t, k.SetCredential("sk-delete-me"))
	require.NoError(t, k.SetCredential(""))

	got, err := k.Credential()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, k.HasCredential())
}

func TestKeystore_EncryptedAtRest(t *testing.T) {
	dir := t.TempDir()
	k := NewKeystore(dir)

	secret := "sk-very-secret-credential"
	require.NoError(t, k.SetCredential(secret))

	raw, err := os.ReadFile(filepath.Join(dir, "credential.enc"))
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), secret), "credential must not appear in plaintext on disk")

	// Key and credential files are private.
	for _, name := range []string{"keystore", "credential.enc"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), name)
	}
}

func TestKeystore_Overwrite(t *testing.T) {
	k := NewKeystore(t.TempDir())

	require.NoError(t, k.SetCredential("first"))
	require.NoError(t, k.SetCredential("second"))

	got, err := k.Credential()
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestKeystore_CorruptKeyFile(t *testing.T) {
	dir := t.TempDir()
	k := NewKeystore(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "keystore"), []byte("short"), 0600))

	err := k.SetCredential("sk-whatever")
	assert.Error(t, err, "a corrupt key file must not be silently replaced")
}
