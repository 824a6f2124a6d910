// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/fleetdeck/internal/model"
	"github.com/jeranaias/fleetdeck/internal/util"
)

// =============================================================================
// STORED CREDENTIAL
// =============================================================================

// StoredCredential is the minimal session artifact persisted between runs
// in bearer mode: the opaque token, its absolute expiry, and the cached
// profile shown while the session is restored.
type StoredCredential struct {
	Token     string
	ExpiresAt time.Time
	Profile   model.Profile
}

// CredentialStore persists session artifacts across restarts.
// Load returns (nil, nil) when nothing usable is stored; malformed
// persisted state is treated as absent, never as an error.
type CredentialStore interface {
	Save(cred *StoredCredential) error
	Load() (*StoredCredential, error)
	Clear() error
}

// =============================================================================
// FILE STORE
// =============================================================================

// Fixed entry names under the session directory. Absence of any required
// entry means "no session".
const (
	tokenFile   = "token"
	expiryFile  = "expires_at"
	profileFile = "profile.json"
)

// FileStore keeps the three credential entries as individual files with
// owner-only permissions, written atomically.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// DefaultStoreDir returns the default session state directory.
func DefaultStoreDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".fleetdeck", "session"), nil
}

// Save persists the credential. The expiry is encoded as decimal
// milliseconds since epoch.
func (f *FileStore) Save(cred *StoredCredential) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return err
	}

	if err := util.AtomicWriteFile(filepath.Join(f.dir, tokenFile), []byte(cred.Token), 0600); err != nil {
		return err
	}

	millis := strconv.FormatInt(cred.ExpiresAt.UnixMilli(), 10)
	if err := util.AtomicWriteFile(filepath.Join(f.dir, expiryFile), []byte(millis), 0600); err != nil {
		return err
	}

	data, err := json.Marshal(cred.Profile)
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(filepath.Join(f.dir, profileFile), data, 0600)
}

// Load reads the stored credential. Missing or malformed entries yield
// (nil, nil): corrupted state from a crash or an incompatible prior version
// is logged and treated as no session.
func (f *FileStore) Load() (*StoredCredential, error) {
	token, err := os.ReadFile(filepath.Join(f.dir, tokenFile))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("session store: unreadable token entry: %v", err)
		}
		return nil, nil
	}

	rawExpiry, err := os.ReadFile(filepath.Join(f.dir, expiryFile))
	if err != nil {
		return nil, nil
	}
	millis, err := strconv.ParseInt(strings.TrimSpace(string(rawExpiry)), 10, 64)
	if err != nil {
		log.Printf("session store: malformed expiry %q, discarding session", rawExpiry)
		return nil, nil
	}

	rawProfile, err := os.ReadFile(filepath.Join(f.dir, profileFile))
	if err != nil {
		return nil, nil
	}
	var profile model.Profile
	if err := json.Unmarshal(rawProfile, &profile); err != nil {
		log.Printf("session store: malformed cached profile, discarding session: %v", err)
		return nil, nil
	}

	cred := &StoredCredential{
		Token:     strings.TrimSpace(string(token)),
		ExpiresAt: time.UnixMilli(millis),
		Profile:   profile,
	}
	if cred.Token == "" {
		return nil, nil
	}
	return cred, nil
}

// Clear removes all stored entries. Idempotent; safe when nothing is stored.
func (f *FileStore) Clear() error {
	for _, name := range []string{tokenFile, expiryFile, profileFile} {
		if err := os.Remove(filepath.Join(f.dir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
