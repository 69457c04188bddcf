package store

import (
	"sync"

	"polychat/internal/domain"
)

// MemorySecretStore keeps secrets in process memory. Used in tests and for
// throwaway sessions.
type MemorySecretStore struct {
	mu sync.RWMutex
	m  map[domain.UserID][]byte
}

// NewMemorySecretStore returns an empty MemorySecretStore.
func NewMemorySecretStore() *MemorySecretStore {
	return &MemorySecretStore{m: make(map[domain.UserID][]byte)}
}

// Get returns a copy of the secret stored for uid.
func (s *MemorySecretStore) Get(uid domain.UserID) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[uid]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put stores a copy of secret under uid, replacing any previous value.
func (s *MemorySecretStore) Put(uid domain.UserID, secret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[uid] = append([]byte(nil), secret...)
	return nil
}

// Delete removes the secret for uid.
func (s *MemorySecretStore) Delete(uid domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, uid)
	return nil
}

// Compile-time assertion that MemorySecretStore implements domain.SecretStore.
var _ domain.SecretStore = (*MemorySecretStore)(nil)
