package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials means the account is missing required fields.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCredentialsNotFound means no stored credentials match the name.
	ErrCredentialsNotFound = errors.New("credentials not found")
)

// Account holds one saved set of platform credentials: the session cookie and
// authorization token copied from a logged-in browser session.
type Account struct {
	Name          string    `json:"name"`
	Cookie        string    `json:"cookie"`
	Authorization string    `json:"authorization"`
	LastModified  time.Time `json:"last_modified"`
}

// CredentialStore stores and retrieves saved credentials.
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(name string) (*Account, error)
	Delete(name string) error
	Exists(name string) bool
}

// Manager layers credential stores: the system keychain when available, with
// environment variables as the fallback.
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with the available backends.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over explicit stores, used in tests.
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them.
func (m *Manager) Store(account *Account) error {
	if account == nil || account.Name == "" {
		return ErrInvalidCredentials
	}
	if account.Cookie == "" || account.Authorization == "" {
		return ErrInvalidCredentials
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(account); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them.
func (m *Manager) Retrieve(name string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(name); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// Delete removes credentials from every store that has them.
func (m *Manager) Delete(name string) error {
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
	}
	return nil
}

// MaskSecret shortens a secret for log output.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
