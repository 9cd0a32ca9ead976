// Package credentials manages secure storage of the Stripe API key.
// The key is encrypted at rest with AES-GCM; the encryption key itself
// lives in the OS keyring (see keyprovider.go).
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultCredentialsDir is the directory under $HOME where credentials are stored.
	DefaultCredentialsDir = ".minv"

	// CredentialsFileName is the name of the credentials file.
	CredentialsFileName = "credentials.yaml"

	// EnvAPIKey is the environment variable checked before stored credentials.
	EnvAPIKey = "STRIPE_SECRET_KEY"
)

var (
	// ErrNoCredentials indicates no credentials are stored.
	ErrNoCredentials = fmt.Errorf("no credentials found")

	// ErrEncryptionFailed indicates encryption or decryption failed.
	ErrEncryptionFailed = fmt.Errorf("encryption operation failed")
)

// Credentials holds the stored API key. The key is encrypted before
// being written to disk.
type Credentials struct {
	APIKey string `yaml:"api_key"`
}

// Store manages credential persistence.
type Store struct {
	credentialsDir string
	keyProvider    KeyProvider
	encryptionKey  []byte
}

// NewStore creates a credential store rooted at ~/.minv using the OS keyring
// for the encryption key.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("unable to determine home directory: %w", err)
	}
	return NewStoreWithProvider(filepath.Join(homeDir, DefaultCredentialsDir), NewKeyringKeyProvider())
}

// NewStoreWithProvider creates a credential store with an explicit directory
// and key provider. Used by tests and non-keyring environments.
func NewStoreWithProvider(dir string, provider KeyProvider) (*Store, error) {
	key, err := provider.GetKey()
	if err != nil {
		return nil, fmt.Errorf("unable to obtain encryption key: %w", err)
	}
	return &Store{
		credentialsDir: dir,
		keyProvider:    provider,
		encryptionKey:  key,
	}, nil
}

// credentialsPath returns the full path to the credentials file.
func (s *Store) credentialsPath() string {
	return filepath.Join(s.credentialsDir, CredentialsFileName)
}

// Save encrypts and persists the credentials.
func (s *Store) Save(creds *Credentials) error {
	if creds == nil || creds.APIKey == "" {
		return fmt.Errorf("api key is required")
	}

	encrypted, err := s.encrypt(creds.APIKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	onDisk := Credentials{APIKey: encrypted}
	data, err := yaml.Marshal(&onDisk)
	if err != nil {
		return fmt.Errorf("unable to marshal credentials: %w", err)
	}

	if err := os.MkdirAll(s.credentialsDir, 0700); err != nil {
		return fmt.Errorf("unable to create credentials directory: %w", err)
	}
	if err := os.WriteFile(s.credentialsPath(), data, 0600); err != nil {
		return fmt.Errorf("unable to write credentials file: %w", err)
	}
	return nil
}

// Load reads and decrypts stored credentials. Returns ErrNoCredentials if
// nothing has been saved.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.credentialsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	var onDisk Credentials
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return nil, fmt.Errorf("unable to parse credentials file: %w", err)
	}

	apiKey, err := s.decrypt(onDisk.APIKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return &Credentials{APIKey: apiKey}, nil
}

// Delete removes stored credentials. Deleting when nothing is stored is not
// an error.
func (s *Store) Delete() error {
	err := os.Remove(s.credentialsPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to remove credentials file: %w", err)
	}
	return nil
}

// Exists reports whether a credentials file is present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.credentialsPath())
	return err == nil
}

// GetActiveKey returns the API key to use: the STRIPE_SECRET_KEY environment
// variable if set, otherwise the stored credentials.
func (s *Store) GetActiveKey() (string, error) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key, nil
	}
	creds, err := s.Load()
	if err != nil {
		return "", err
	}
	return creds.APIKey, nil
}

// encrypt encrypts plaintext with AES-GCM and returns base64 ciphertext.
func (s *Store) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt reverses encrypt.
func (s *Store) decrypt(encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// MaskAPIKey returns a display-safe form of an API key, keeping the Stripe
// prefix and the last four characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(none)"
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	prefix := ""
	if i := strings.LastIndex(key[:len(key)-4], "_"); i >= 0 && i <= 8 {
		prefix = key[:i+1]
	}
	return prefix + "..." + key[len(key)-4:]
}
