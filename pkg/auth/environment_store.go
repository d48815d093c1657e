package auth

import (
	"errors"
	"os"
)

// EnvironmentStore reads credentials from BOOSTY_COOKIE and
// BOOSTY_AUTHORIZATION. Read-only; Store and Delete are rejected.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed store.
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables.
func (e *EnvironmentStore) Store(account *Account) error {
	return errors.New("cannot store credentials in environment variables")
}

// Retrieve returns credentials from the environment regardless of name.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	cookie := os.Getenv("BOOSTY_COOKIE")
	authorization := os.Getenv("BOOSTY_AUTHORIZATION")

	if cookie == "" || authorization == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Name:          name,
		Cookie:        cookie,
		Authorization: authorization,
	}, nil
}

// Delete is not supported for environment variables.
func (e *EnvironmentStore) Delete(name string) error {
	return errors.New("cannot delete credentials from environment variables")
}

// Exists reports whether both environment variables are set.
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv("BOOSTY_COOKIE") != "" && os.Getenv("BOOSTY_AUTHORIZATION") != ""
}
