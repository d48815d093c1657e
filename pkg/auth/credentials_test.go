package auth

import (
	"errors"
	"testing"
)

func TestManagerWithMockStore(t *testing.T) {
	store := NewMockStore()
	manager := NewManagerWithStores(store)

	account := &Account{
		Name:          "main",
		Cookie:        "cookie-value-long-enough",
		Authorization: "auth-value-long-enough",
	}

	if err := manager.Store(account); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if account.LastModified.IsZero() {
		t.Error("store should stamp LastModified")
	}

	got, err := manager.Retrieve("main")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if got.Cookie != account.Cookie {
		t.Errorf("cookie mismatch: %q", got.Cookie)
	}

	if err := manager.Delete("main"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := manager.Retrieve("main"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("expected ErrCredentialsNotFound, got %v", err)
	}
}

func TestManagerRejectsIncompleteAccounts(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore())

	cases := []*Account{
		nil,
		{Name: "", Cookie: "c", Authorization: "a"},
		{Name: "x", Cookie: "", Authorization: "a"},
		{Name: "x", Cookie: "c", Authorization: ""},
	}
	for _, account := range cases {
		if err := manager.Store(account); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials for %+v, got %v", account, err)
		}
	}
}

func TestManagerFallsThroughStores(t *testing.T) {
	failing := NewMockStore()
	failing.StoreError = errors.New("keychain locked")
	failing.RetrieveError = errors.New("keychain locked")
	working := NewMockStore()

	manager := NewManagerWithStores(failing, working)

	account := &Account{
		Name:          "main",
		Cookie:        "cookie-value-long-enough",
		Authorization: "auth-value-long-enough",
	}
	if err := manager.Store(account); err != nil {
		t.Fatalf("store should fall through to the working store: %v", err)
	}
	if working.Count() != 1 {
		t.Error("account not stored in fallback store")
	}

	if _, err := manager.Retrieve("main"); err != nil {
		t.Fatalf("retrieve should fall through: %v", err)
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("BOOSTY_COOKIE", "cookie-from-env")
	t.Setenv("BOOSTY_AUTHORIZATION", "auth-from-env")

	store := NewEnvironmentStore()
	account, err := store.Retrieve("anything")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if account.Cookie != "cookie-from-env" || account.Authorization != "auth-from-env" {
		t.Errorf("unexpected account: %+v", account)
	}

	if err := store.Store(account); err == nil {
		t.Error("environment store must be read-only")
	}
}

func TestMaskSecret(t *testing.T) {
	if got := MaskSecret("short"); got != "****" {
		t.Errorf("got %q", got)
	}
	if got := MaskSecret("abcdefghijkl"); got != "abcd...ijkl" {
		t.Errorf("got %q", got)
	}
}
