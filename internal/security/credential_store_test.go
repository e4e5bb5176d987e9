package security

import (
	"testing"
)

func TestMemorySecretStore(t *testing.T) {
	store := NewMemorySecretStore()

	if _, ok := store.Get("conn-1"); ok {
		t.Error("expected no secret before Put")
	}

	if err := store.Put("conn-1", "hunter2"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	secret, ok := store.Get("conn-1")
	if !ok || secret != "hunter2" {
		t.Errorf("Get = %q, %v; want hunter2, true", secret, ok)
	}

	// Put replaces the prior value
	if err := store.Put("conn-1", "newpass"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if secret, _ := store.Get("conn-1"); secret != "newpass" {
		t.Errorf("expected replaced secret, got %q", secret)
	}

	store.Delete("conn-1")
	if _, ok := store.Get("conn-1"); ok {
		t.Error("expected secret gone after Delete")
	}

	// Deleting an absent key is a no-op
	store.Delete("conn-unknown")
}

func TestEncryptedSecretStore(t *testing.T) {
	masterKey := []byte("12345678901234567890123456789012")
	store, err := NewEncryptedSecretStore(masterKey)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.Put("conn-1", "hunter2"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	secret, ok := store.Get("conn-1")
	if !ok || secret != "hunter2" {
		t.Errorf("Get = %q, %v; want hunter2, true", secret, ok)
	}

	store.Delete("conn-1")
	if _, ok := store.Get("conn-1"); ok {
		t.Error("expected secret gone after Delete")
	}
}

func TestEncryptedSecretStoreRejectsShortKey(t *testing.T) {
	if _, err := NewEncryptedSecretStore([]byte("too short")); err == nil {
		t.Error("expected error for short master key")
	}
}

func TestCredentialVaultRoundTrip(t *testing.T) {
	vault, err := NewCredentialVault([]byte("12345678901234567890123456789012"))
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}

	sealed, err := vault.Encrypt([]byte("secret payload"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if sealed == "secret payload" {
		t.Error("ciphertext should not equal plaintext")
	}

	plaintext, err := vault.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if string(plaintext) != "secret payload" {
		t.Errorf("round trip mismatch: %q", plaintext)
	}

	// Same plaintext seals to different ciphertexts (random nonce)
	sealed2, err := vault.Encrypt([]byte("secret payload"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if sealed == sealed2 {
		t.Error("expected distinct ciphertexts for repeated plaintext")
	}
}

func TestCredentialVaultRejectsTamperedCiphertext(t *testing.T) {
	vault, err := NewCredentialVault([]byte("12345678901234567890123456789012"))
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}

	if _, err := vault.Decrypt("not-base64!!"); err == nil {
		t.Error("expected error for malformed ciphertext")
	}
}
