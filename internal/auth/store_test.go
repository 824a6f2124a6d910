// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fleetdeck/internal/model"
)

// =============================================================================
// ROUND TRIP
// =============================================================================

func TestFileStore_SaveLoad(t *testing.T) {
	store := NewFileStore(t.TempDir())

	in := &StoredCredential{
		Token:     "tok-42",
		ExpiresAt: time.Now().Add(2 * time.Hour).Truncate(time.Millisecond),
		Profile:   model.Profile{Username: "ops", Email: "a@b.com", Role: model.RoleAdmin},
	}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, in.Token, out.Token)
	assert.True(t, in.ExpiresAt.Equal(out.ExpiresAt), "expiry should survive the millisecond encoding")
	assert.Equal(t, in.Profile, out.Profile)
}

func TestFileStore_LoadEmpty(t *testing.T) {
	store := NewFileStore(t.TempDir())

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred, "absent credential is not an error")
}

func TestFileStore_ClearIsIdempotent(t *testing.T) {
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Save(&StoredCredential{
		Token:     "t",
		ExpiresAt: time.Now(),
		Profile:   model.Profile{Username: "u"},
	}))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

// =============================================================================
// MALFORMED DATA
// =============================================================================

func TestFileStore_MalformedExpiry(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save(&StoredCredential{
		Token:     "t",
		ExpiresAt: time.Now().Add(time.Hour),
		Profile:   model.Profile{Username: "u"},
	}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "expires_at"), []byte("not-a-number"), 0o600))

	cred, err := store.Load()
	require.NoError(t, err, "malformed data reads as absent, not as an error")
	assert.Nil(t, cred)
}

func TestFileStore_MalformedProfile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save(&StoredCredential{
		Token:     "t",
		ExpiresAt: time.Now().Add(time.Hour),
		Profile:   model.Profile{Username: "u"},
	}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "profile.json"), []byte("{truncated"), 0o600))

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestFileStore_MissingTokenOnly(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save(&StoredCredential{
		Token:     "t",
		ExpiresAt: time.Now().Add(time.Hour),
		Profile:   model.Profile{Username: "u"},
	}))

	require.NoError(t, os.Remove(filepath.Join(dir, "token")))

	cred, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, cred, "a partial entry is treated as absent")
}

// =============================================================================
// PERMISSIONS AND FORMAT
// =============================================================================

func TestFileStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}

	dir := filepath.Join(t.TempDir(), "session")
	store := NewFileStore(dir)
	require.NoError(t, store.Save(&StoredCredential{
		Token:     "secret",
		ExpiresAt: time.Now(),
		Profile:   model.Profile{Username: "u"},
	}))

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	for _, name := range []string{"token", "expires_at", "profile.json"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), name)
	}
}

func TestFileStore_ExpiryIsDecimalMillis(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	at := time.UnixMilli(1_700_000_000_123)
	require.NoError(t, store.Save(&StoredCredential{
		Token:     "t",
		ExpiresAt: at,
		Profile:   model.Profile{Username: "u"},
	}))

	raw, err := os.ReadFile(filepath.Join(dir, "expires_at"))
	require.NoError(t, err)
	assert.Equal(t, "1700000000123", string(raw))
}
