package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"

	"polychat/internal/domain"
)

var bucketSecrets = []byte("secrets")

// BoltSecretStore keeps passphrase-sealed secrets in a single bolt database.
type BoltSecretStore struct {
	db         *bolt.DB
	passphrase string
	params     ScryptParams
}

// OpenBoltSecretStore opens or creates the database at path.
func OpenBoltSecretStore(path, passphrase string, params ScryptParams) (*BoltSecretStore, error) {
	db, err := bolt.Open(filepath.Clean(path), 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open secret db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketSecrets)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init secret db: %w", err)
	}
	return &BoltSecretStore{db: db, passphrase: passphrase, params: params}, nil
}

// Close releases the database file lock.
func (s *BoltSecretStore) Close() error { return s.db.Close() }

// Get reads and unseals the secret for uid.
func (s *BoltSecretStore) Get(uid domain.UserID) ([]byte, bool, error) {
	var blob []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketSecrets)
		if bk == nil {
			return bolt.ErrBucketNotFound
		}
		if v := bk.Get([]byte(uid)); v != nil {
			// v is only valid for the life of the transaction.
			blob = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if blob == nil {
		return nil, false, nil
	}
	pt, err := open(s.passphrase, blob, uid.String())
	if err != nil {
		return nil, false, err
	}
	return pt, true, nil
}

// Put seals secret and stores it under uid.
func (s *BoltSecretStore) Put(uid domain.UserID, secret []byte) error {
	if uid == "" {
		return fmt.Errorf("%w: empty user id", domain.ErrInvalidIdentifier)
	}
	blob, err := seal(s.passphrase, secret, uid.String(), s.params)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketSecrets)
		if bk == nil {
			return bolt.ErrBucketNotFound
		}
		return bk.Put([]byte(uid), blob)
	})
}

// Delete removes the secret for uid.
func (s *BoltSecretStore) Delete(uid domain.UserID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketSecrets)
		if bk == nil {
			return bolt.ErrBucketNotFound
		}
		return bk.Delete([]byte(uid))
	})
}

// Compile-time assertion that BoltSecretStore implements domain.SecretStore.
var _ domain.SecretStore = (*BoltSecretStore)(nil)
