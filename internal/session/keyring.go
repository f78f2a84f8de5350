package session

import (
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName = "taskmate"

	// tokenKey is the keyring entry holding the session access token.
	tokenKey = "session-token"
)

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/taskmate/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("taskmate-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// TokenStore persists the session access token in the system keyring
// so a sign-in survives application restarts.
type TokenStore struct{}

// Load retrieves the stored access token. A missing entry returns an
// empty token with no error.
func (TokenStore) Load() (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(tokenKey)
	if err != nil {
		if err == keyring.ErrKeyNotFound {
			return "", nil
		}
		return "", fmt.Errorf("getting session token: %w", err)
	}
	return string(item.Data), nil
}

// Save stores the access token.
func (TokenStore) Save(token string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  tokenKey,
		Data: []byte(token),
	})
	if err != nil {
		return fmt.Errorf("setting session token: %w", err)
	}
	return nil
}

// Clear removes the stored access token. A missing entry is not an error.
func (TokenStore) Clear() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(tokenKey)
	if err != nil && err != keyring.ErrKeyNotFound {
		return fmt.Errorf("deleting session token: %w", err)
	}
	return nil
}
