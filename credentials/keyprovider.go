package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "minv"
	keyringUser    = "encryption-key"
	keyLength      = 32

	// EnvEncryptionKey lets CI and headless environments supply the
	// hex-encoded encryption key without an OS keyring.
	EnvEncryptionKey = "MINV_ENCRYPTION_KEY"
)

// ErrKeyringUnavailable indicates the OS keyring could not be reached.
var ErrKeyringUnavailable = fmt.Errorf("system keyring unavailable")

// KeyProvider supplies the AES key used to encrypt credentials at rest.
type KeyProvider interface {
	// GetKey returns the encryption key, generating and storing one on
	// first use.
	GetKey() ([]byte, error)

	// ResetKey removes the stored key. Existing credentials become
	// unreadable.
	ResetKey() error

	// Description identifies where the key is held, for status output.
	Description() string
}

// KeyringKeyProvider stores the encryption key in the OS keyring. If the
// MINV_ENCRYPTION_KEY environment variable is set it takes precedence,
// which keeps headless CI runs working without a keyring daemon.
type KeyringKeyProvider struct{}

// NewKeyringKeyProvider creates a keyring-backed key provider.
func NewKeyringKeyProvider() *KeyringKeyProvider {
	return &KeyringKeyProvider{}
}

func (p *KeyringKeyProvider) GetKey() ([]byte, error) {
	if env := os.Getenv(EnvEncryptionKey); env != "" {
		key, err := hex.DecodeString(env)
		if err != nil {
			return nil, fmt.Errorf("%s is not valid hex: %w", EnvEncryptionKey, err)
		}
		if len(key) != keyLength {
			return nil, fmt.Errorf("%s must decode to %d bytes, got %d", EnvEncryptionKey, keyLength, len(key))
		}
		return key, nil
	}

	stored, err := keyring.Get(keyringService, keyringUser)
	if err == nil {
		key, decErr := hex.DecodeString(stored)
		if decErr != nil || len(key) != keyLength {
			return nil, fmt.Errorf("stored encryption key is corrupt")
		}
		return key, nil
	}
	if err != keyring.ErrNotFound {
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}

	key := make([]byte, keyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("unable to generate encryption key: %w", err)
	}
	if err := keyring.Set(keyringService, keyringUser, hex.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return key, nil
}

func (p *KeyringKeyProvider) ResetKey() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

func (p *KeyringKeyProvider) Description() string {
	if os.Getenv(EnvEncryptionKey) != "" {
		return "environment (" + EnvEncryptionKey + ")"
	}
	return "OS keyring"
}

// StaticKeyProvider holds a fixed key in memory. Intended for tests.
type StaticKeyProvider struct {
	Key []byte
}

func (p *StaticKeyProvider) GetKey() ([]byte, error) {
	if len(p.Key) != keyLength {
		return nil, fmt.Errorf("static key must be %d bytes", keyLength)
	}
	return p.Key, nil
}

func (p *StaticKeyProvider) ResetKey() error { return nil }

func (p *StaticKeyProvider) Description() string { return "static key" }
