// Package credential persists session secrets. KeyringStore keeps them in
// the OS keyring; MemoryStore keeps them in process memory.
package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/99designs/keyring"

	"github.com/nhle/inbox-copilot/internal/model"
)

const serviceName = "inbox-copilot"

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("credential not found")

// KeyringStore stores values in the system keyring. The keyring is opened
// lazily on first use.
type KeyringStore struct {
	cfg keyring.Config

	once sync.Once
	ring keyring.Keyring
	err  error
}

// NewKeyringStore configures a keyring-backed store. An empty
// cfg.Backend lets the platform default win.
func NewKeyringStore(cfg model.KeyringConfig) *KeyringStore {
	backends := []keyring.BackendType{
		keyring.KeychainBackend,
		keyring.SecretServiceBackend,
		keyring.WinCredBackend,
		keyring.PassBackend,
		keyring.FileBackend,
	}
	if cfg.Backend != "" {
		backends = []keyring.BackendType{keyring.BackendType(cfg.Backend)}
	}

	fileDir := cfg.FileDir
	if fileDir == "" {
		fileDir = "~/.config/inbox-copilot/credentials"
	}

	return &KeyringStore{
		cfg: keyring.Config{
			ServiceName:              serviceName,
			AllowedBackends:          backends,
			FileDir:                  fileDir,
			FilePasswordFunc:         keyring.FixedStringPrompt("inbox-copilot-file-key"),
			KeychainTrustApplication: true,
		},
	}
}

func (s *KeyringStore) open() (keyring.Keyring, error) {
	s.once.Do(func() {
		s.ring, s.err = keyring.Open(s.cfg)
		if s.err != nil {
			s.err = fmt.Errorf("opening keyring: %w", s.err)
		}
	})
	return s.ring, s.err
}

// Get retrieves a value by key from the system keyring.
func (s *KeyringStore) Get(key string) (string, error) {
	ring, err := s.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a value by key in the system keyring.
func (s *KeyringStore) Set(key, value string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Clear removes a value from the system keyring. Clearing a missing key
// is not an error.
func (s *KeyringStore) Clear(key string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !isMissingFile(err) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// isMissingFile reports the file backend's error for an absent item.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
