//go:build integration && darwin

package keychain

import (
	"testing"
)

// Integration tests use real macOS Keychain.
// Run with: go test -tags integration ./internal/keychain/
//
// Requires an unlocked login Keychain and an interactive session
// (first run may prompt for Keychain access approval).

func integrationStore(t *testing.T) *Store {
	t.Helper()
	s := New("com.lockbox.test", "", NewSystemBackend())
	t.Cleanup(func() {
		if err := s.RemoveAll(); err != nil {
			t.Logf("cleanup: %v", err)
		}
	})
	return s
}

func TestKeychainSetAndGet(t *testing.T) {
	s := integrationStore(t)

	if err := Set(s, "test/integration-set-get", "hello-keychain"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, ok, err := Get[string](s, "test/integration-set-get")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || val != "hello-keychain" {
		t.Errorf("expected 'hello-keychain', got %q (found=%v)", val, ok)
	}
}

func TestKeychainOverwrite(t *testing.T) {
	s := integrationStore(t)
	key := "test/integration-overwrite"

	if err := Set(s, key, "first"); err != nil {
		t.Fatalf("Set first: %v", err)
	}
	if err := Set(s, key, "second"); err != nil {
		t.Fatalf("Set second: %v", err)
	}

	val, _, err := Get[string](s, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "second" {
		t.Errorf("expected 'second', got %q", val)
	}
}

func TestKeychainDelete(t *testing.T) {
	s := integrationStore(t)
	key := "test/integration-delete"

	Set(s, key, "to-delete")
	if err := s.Remove(key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.HasValue(key) {
		t.Error("expected secret to be gone after Remove")
	}
	if err := s.Remove(key); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestKeychainRemoveAll(t *testing.T) {
	s := integrationStore(t)
	keys := []string{"test/integration-all-a", "test/integration-all-b"}

	for _, k := range keys {
		if err := Set(s, k, "val"); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	if err := s.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	for _, k := range keys {
		if s.HasValue(k) {
			t.Errorf("expected %q to be removed", k)
		}
	}
}
