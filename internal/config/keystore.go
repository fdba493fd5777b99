// Copyright (c) 2025 PageMind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/utk7arsh/PageMind/internal/util"
)

// =============================================================================
// KEYSTORE
// =============================================================================

// Keystore holds the API credential encrypted at rest. The encryption
// key lives next to it in a 0600 file; this is the file-based fallback
// tier of key storage, which is the only tier PageMind ships.
type Keystore struct {
	mu  sync.Mutex
	dir string
}

// NewKeystore creates a keystore rooted at dir.
func NewKeystore(dir string) *Keystore {
	return &Keystore{dir: dir}
}

func (k *Keystore) keyPath() string {
	return filepath.Join(k.dir, "keystore")
}

func (k *Keystore) credPath() string {
	return filepath.Join(k.dir, "credential.enc")
}

// loadOrCreateKey returns the 32-byte encryption key, generating one on
// first use.
func (k *Keystore) loadOrCreateKey() ([]byte, error) {
	key, err := os.ReadFile(k.keyPath())
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("keystore file is corrupt (%d bytes)", len(key))
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	if err := util.AtomicWriteFile(k.keyPath(), key, 0600); err != nil {
		return nil, fmt.Errorf("failed to write keystore: %w", err)
	}
	return key, nil
}

// SetCredential encrypts and stores the API key. An empty key deletes
// the credential record.
func (k *Keystore) SetCredential(credential string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if credential == "" {
		if err := os.Remove(k.credPath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credential: %w", err)
		}
		return nil
	}

	key, err := k.loadOrCreateKey()
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("failed to init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Nonce is prepended to the sealed box.
	sealed := aead.Seal(nonce, nonce, []byte(credential), nil)
	return util.AtomicWriteFile(k.credPath(), sealed, 0600)
}

// Credential decrypts and returns the stored API key, or "" when none
// is stored.
func (k *Keystore) Credential() (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	sealed, err := os.ReadFile(k.credPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read credential: %w", err)
	}

	key, err := k.loadOrCreateKey()
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return "", fmt.Errorf("credential record is corrupt")
	}
	nonce, box := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}
	return string(plain), nil
}

// HasCredential reports whether a credential record exists.
func (k *Keystore) HasCredential() bool {
	_, err := os.Stat(k.credPath())
	return err == nil
}
