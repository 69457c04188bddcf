package keystore

import (
	"crypto/ecdh"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"polychat/internal/crypto"
	"polychat/internal/domain"
	"polychat/internal/util/memzero"
)

// Service generates, persists and loads user key pairs.
type Service struct {
	secrets domain.SecretStore
	strict  bool
	log     zerolog.Logger

	// mu serialises load-or-create so two callers never both create.
	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithStrict makes LoadOrCreatePrivateKey fail with domain.ErrKeyNotFound
// instead of creating a key.
func WithStrict(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// WithLogger sets the logger. Key material is never logged.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New returns a key store service backed by secrets.
func New(secrets domain.SecretStore, opts ...Option) *Service {
	s := &Service{secrets: secrets, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateAndRegister creates a fresh key pair for uid, stores the private
// half and returns the public half. An existing key is overwritten; the
// caller is responsible for republishing the returned record.
func (s *Service) GenerateAndRegister(uid domain.UserID) (domain.PublicKeyRecord, error) {
	if uid == "" {
		return domain.PublicKeyRecord{}, fmt.Errorf("%w: empty user id", domain.ErrInvalidIdentifier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	priv, err := s.generate(uid)
	if err != nil {
		return domain.PublicKeyRecord{}, err
	}
	rec, err := crypto.ExportPublicKey(priv.PublicKey())
	if err != nil {
		return domain.PublicKeyRecord{}, err
	}
	s.log.Info().Str("user_id", uid.String()).Msg("generated key pair")
	return rec, nil
}

// LoadOrCreatePrivateKey returns the stored key for uid, creating and
// storing one if none exists. created reports which happened.
func (s *Service) LoadOrCreatePrivateKey(uid domain.UserID) (*ecdh.PrivateKey, bool, error) {
	if uid == "" {
		return nil, false, fmt.Errorf("%w: empty user id", domain.ErrInvalidIdentifier)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	priv, err := s.load(uid)
	if err == nil {
		return priv, false, nil
	}
	if !errors.Is(err, domain.ErrKeyNotFound) {
		return nil, false, err
	}
	if s.strict {
		return nil, false, fmt.Errorf("%w for user %s", domain.ErrKeyNotFound, uid)
	}

	priv, err = s.generate(uid)
	if err != nil {
		return nil, false, err
	}
	s.log.Warn().Str("user_id", uid.String()).Msg("no local key found; created a new key pair")
	return priv, true, nil
}

// LoadPrivateKey returns the stored key for uid. It never creates one.
func (s *Service) LoadPrivateKey(uid domain.UserID) (*ecdh.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	priv, err := s.load(uid)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w for user %s", domain.ErrKeyNotFound, uid)
	}
	return priv, err
}

// PublicKey returns the public record for uid's stored key.
func (s *Service) PublicKey(uid domain.UserID) (domain.PublicKeyRecord, error) {
	priv, err := s.LoadPrivateKey(uid)
	if err != nil {
		return domain.PublicKeyRecord{}, err
	}
	return crypto.ExportPublicKey(priv.PublicKey())
}

// StorePrivateKey replaces uid's stored key with priv.
func (s *Service) StorePrivateKey(uid domain.UserID, priv *ecdh.PrivateKey) error {
	if uid == "" {
		return fmt.Errorf("%w: empty user id", domain.ErrInvalidIdentifier)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store(uid, priv)
}

// DeleteKey removes uid's private key from local storage.
func (s *Service) DeleteKey(uid domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.secrets.Delete(uid); err != nil {
		return fmt.Errorf("delete local key: %w", err)
	}
	s.log.Info().Str("user_id", uid.String()).Msg("deleted local key")
	return nil
}

// load returns the bare domain.ErrKeyNotFound when nothing is stored.
func (s *Service) load(uid domain.UserID) (*ecdh.PrivateKey, error) {
	raw, ok, err := s.secrets.Get(uid)
	if err != nil {
		return nil, fmt.Errorf("read local key: %w", err)
	}
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	defer memzero.Zero(raw)

	priv, err := crypto.UnmarshalPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("stored key for %s: %w", uid, err)
	}
	return priv, nil
}

func (s *Service) generate(uid domain.UserID) (*ecdh.PrivateKey, error) {
	priv, err := crypto.GenerateP256()
	if err != nil {
		return nil, err
	}
	if err := s.store(uid, priv); err != nil {
		return nil, err
	}
	return priv, nil
}

func (s *Service) store(uid domain.UserID, priv *ecdh.PrivateKey) error {
	raw, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	if err := s.secrets.Put(uid, raw); err != nil {
		return fmt.Errorf("store local key: %w", err)
	}
	return nil
}

// Compile-time assertion that Service implements domain.KeyStore.
var _ domain.KeyStore = (*Service)(nil)
