package store

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"polychat/internal/domain"
)

const secretFileSuffix = ".key.enc"

// SecretFileStore persists one passphrase-sealed file per user under dir.
type SecretFileStore struct {
	dir        string
	passphrase string
	params     ScryptParams
	mu         sync.Mutex
}

// NewSecretFileStore returns a SecretFileStore rooted at dir. The directory
// is created on first write.
func NewSecretFileStore(dir, passphrase string, params ScryptParams) *SecretFileStore {
	return &SecretFileStore{dir: dir, passphrase: passphrase, params: params}
}

// Get reads and unseals the secret for uid.
func (s *SecretFileStore) Get(uid domain.UserID) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok, err := readSecretFile(s.path(uid))
	if err != nil || !ok {
		return nil, false, err
	}
	pt, err := open(s.passphrase, b, uid.String())
	if err != nil {
		return nil, false, err
	}
	return pt, true, nil
}

// Put seals secret and atomically replaces the file for uid.
func (s *SecretFileStore) Put(uid domain.UserID, secret []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create secret dir: %w", err)
	}
	blob, err := seal(s.passphrase, secret, uid.String(), s.params)
	if err != nil {
		return err
	}
	return replaceSecretFile(s.path(uid), blob, 0o600)
}

// Delete removes the file for uid.
func (s *SecretFileStore) Delete(uid domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return removeSecretFile(s.path(uid))
}

// path hex-encodes uid so any identity-provider id is a safe file name.
func (s *SecretFileStore) path(uid domain.UserID) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(uid))+secretFileSuffix)
}

// Compile-time assertion that SecretFileStore implements domain.SecretStore.
var _ domain.SecretStore = (*SecretFileStore)(nil)
