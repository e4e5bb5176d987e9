package security

import "sync"

// SecretStore holds connection secrets keyed by connection id. The connection
// registry only ever persists a has_secret flag; the secret itself lives here.
// The interface allows the backing to become durable (e.g. an external secrets
// manager) without touching callers.
type SecretStore interface {
	// Put stores the secret for a connection id, replacing any prior value
	Put(id, secret string) error

	// Get returns the secret for a connection id, if present
	Get(id string) (string, bool)

	// Delete removes the secret for a connection id
	Delete(id string)
}

// memorySecretStore keeps plaintext secrets in process memory only.
type memorySecretStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemorySecretStore creates an in-memory secret store
func NewMemorySecretStore() SecretStore {
	return &memorySecretStore{secrets: make(map[string]string)}
}

func (s *memorySecretStore) Put(id, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[id] = secret
	return nil
}

func (s *memorySecretStore) Get(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[id]
	return secret, ok
}

func (s *memorySecretStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, id)
}

// encryptedSecretStore seals each secret with the AES-256-GCM vault before
// holding it, so plaintext never sits at rest in memory.
type encryptedSecretStore struct {
	vault  *CredentialVault
	mu     sync.RWMutex
	sealed map[string]string
}

// NewEncryptedSecretStore creates a secret store backed by a credential vault
func NewEncryptedSecretStore(masterKey []byte) (SecretStore, error) {
	vault, err := NewCredentialVault(masterKey)
	if err != nil {
		return nil, err
	}
	return &encryptedSecretStore{
		vault:  vault,
		sealed: make(map[string]string),
	}, nil
}

func (s *encryptedSecretStore) Put(id, secret string) error {
	sealed, err := s.vault.Encrypt([]byte(secret))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed[id] = sealed
	return nil
}

func (s *encryptedSecretStore) Get(id string) (string, bool) {
	s.mu.RLock()
	sealed, ok := s.sealed[id]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}

	plaintext, err := s.vault.Decrypt(sealed)
	if err != nil {
		return "", false
	}
	return string(plaintext), true
}

func (s *encryptedSecretStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sealed, id)
}
