package identity

import (
	"context"
	"crypto/ecdh"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"polychat/internal/crypto"
	"polychat/internal/domain"
	"polychat/internal/protocol/conversation"
)

const (
	// maxUsernameLength bounds the public handle.
	maxUsernameLength = 32
)

var (
	// ErrInvalidUsername is returned when a username is empty, too long or
	// contains whitespace.
	ErrInvalidUsername = fmt.Errorf(
		"invalid username (must be 1-%d characters with no whitespace)",
		maxUsernameLength,
	)
)

// Service registers users and keeps the public key on their profile in step
// with the private key held in local secret storage.
//
// The local private key is authoritative. Every operation that creates or
// replaces it publishes the matching public key in the same call, and rolls
// the local key back if publishing fails.
type Service struct {
	keys     domain.KeyStore
	profiles domain.ProfileStore
	log      zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New returns an identity service backed by the given key and profile stores.
func New(keys domain.KeyStore, profiles domain.ProfileStore, opts ...Option) *Service {
	s := &Service{keys: keys, profiles: profiles, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates uid's key pair and publishes a profile carrying the
// public half.
//
// Steps:
//  1. Validate uid and username, and reject a username held by another user.
//  2. Generate a key pair and store the private half locally.
//  3. Publish the profile. On failure the previous local key is restored.
func (s *Service) Register(
	ctx context.Context,
	uid domain.UserID,
	username domain.Username,
	lang domain.Language,
) (domain.UserProfile, error) {
	if err := conversation.ValidateUserID(uid); err != nil {
		return domain.UserProfile{}, err
	}
	username = domain.Username(strings.TrimSpace(username.String()))
	if !isValidUsername(username) {
		return domain.UserProfile{}, ErrInvalidUsername
	}
	if lang == "" {
		lang = domain.DefaultLanguage
	}

	existing, found, err := s.profiles.FindProfileByUsername(ctx, username)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if found && existing.UserID != uid {
		return domain.UserProfile{}, fmt.Errorf("%w: %s", domain.ErrUsernameTaken, username)
	}

	var profile domain.UserProfile
	err = s.replaceKey(uid, func(rec domain.PublicKeyRecord) error {
		prev, _, err := s.profiles.GetProfile(ctx, uid)
		if err != nil {
			return err
		}
		profile = domain.UserProfile{
			UserID:        uid,
			Username:      username,
			PublicKey:     rec,
			PreferredLang: lang,
			CreatedAt:     prev.CreatedAt,
		}
		return s.profiles.PutProfile(ctx, profile)
	})
	if err != nil {
		return domain.UserProfile{}, err
	}

	s.log.Info().
		Str("user_id", uid.String()).
		Str("username", username.String()).
		Msg("registered user")
	return profile, nil
}

// Rotate replaces uid's key pair and republishes the public half. Messages
// encrypted under the old key can no longer be decrypted by either party.
func (s *Service) Rotate(ctx context.Context, uid domain.UserID) (domain.PublicKeyRecord, error) {
	profile, err := s.Profile(ctx, uid)
	if err != nil {
		return domain.PublicKeyRecord{}, err
	}

	var out domain.PublicKeyRecord
	err = s.replaceKey(uid, func(rec domain.PublicKeyRecord) error {
		profile.PublicKey = rec
		out = rec
		return s.profiles.PutProfile(ctx, profile)
	})
	if err != nil {
		return domain.PublicKeyRecord{}, err
	}
	s.log.Info().Str("user_id", uid.String()).Msg("rotated key pair")
	return out, nil
}

// Verify checks that the key published on uid's profile matches the local
// private key.
func (s *Service) Verify(ctx context.Context, uid domain.UserID) error {
	local, err := s.keys.PublicKey(uid)
	if err != nil {
		return err
	}
	profile, err := s.Profile(ctx, uid)
	if err != nil {
		return err
	}
	if profile.PublicKey != local {
		return fmt.Errorf("%w for user %s", domain.ErrKeyMismatch, uid)
	}
	return nil
}

// Fingerprint returns a short fingerprint of uid's local public key.
func (s *Service) Fingerprint(uid domain.UserID) (domain.Fingerprint, error) {
	rec, err := s.keys.PublicKey(uid)
	if err != nil {
		return "", err
	}
	return crypto.FingerprintRecord(rec)
}

// ProfileFingerprint returns a short fingerprint of the key published on
// uid's profile, for out-of-band comparison with the peer's own Fingerprint.
func (s *Service) ProfileFingerprint(ctx context.Context, uid domain.UserID) (domain.Fingerprint, error) {
	profile, err := s.Profile(ctx, uid)
	if err != nil {
		return "", err
	}
	if !profile.CanReceive() {
		return "", fmt.Errorf("%w: %s", domain.ErrRecipientUnavailable, uid)
	}
	return crypto.FingerprintRecord(profile.PublicKey)
}

// PublishKey sets rec as the public key on uid's profile, creating a bare
// profile if none exists.
func (s *Service) PublishKey(ctx context.Context, uid domain.UserID, rec domain.PublicKeyRecord) error {
	if _, err := crypto.ImportPublicKey(rec); err != nil {
		return err
	}
	profile, found, err := s.profiles.GetProfile(ctx, uid)
	if err != nil {
		return err
	}
	if !found {
		profile = domain.UserProfile{UserID: uid, PreferredLang: domain.DefaultLanguage}
	}
	profile.PublicKey = rec
	if err := s.profiles.PutProfile(ctx, profile); err != nil {
		return err
	}
	s.log.Info().Str("user_id", uid.String()).Msg("published public key")
	return nil
}

// Profile returns uid's profile or domain.ErrProfileNotFound.
func (s *Service) Profile(ctx context.Context, uid domain.UserID) (domain.UserProfile, error) {
	profile, found, err := s.profiles.GetProfile(ctx, uid)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if !found {
		return domain.UserProfile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, uid)
	}
	return profile, nil
}

// FindByUsername looks a profile up by its public handle.
func (s *Service) FindByUsername(ctx context.Context, username domain.Username) (domain.UserProfile, error) {
	username = domain.Username(strings.TrimSpace(username.String()))
	profile, found, err := s.profiles.FindProfileByUsername(ctx, username)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if !found {
		return domain.UserProfile{}, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, username)
	}
	return profile, nil
}

// SetPreferredLanguage updates the default language on uid's profile.
func (s *Service) SetPreferredLanguage(ctx context.Context, uid domain.UserID, lang domain.Language) error {
	if lang == "" {
		lang = domain.DefaultLanguage
	}
	profile, err := s.Profile(ctx, uid)
	if err != nil {
		return err
	}
	profile.PreferredLang = lang
	return s.profiles.PutProfile(ctx, profile)
}

// DeleteAccount removes uid's profile and then the local private key.
// Conversations and their envelopes are left in place.
func (s *Service) DeleteAccount(ctx context.Context, uid domain.UserID) error {
	if err := s.profiles.DeleteProfile(ctx, uid); err != nil {
		return err
	}
	if err := s.keys.DeleteKey(uid); err != nil {
		return err
	}
	s.log.Info().Str("user_id", uid.String()).Msg("deleted account")
	return nil
}

// replaceKey generates a new key for uid and calls publish with its public
// half. If publish fails the previous local key, or its absence, is restored.
func (s *Service) replaceKey(uid domain.UserID, publish func(domain.PublicKeyRecord) error) error {
	prev, err := s.keys.LoadPrivateKey(uid)
	if err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		return err
	}

	rec, err := s.keys.GenerateAndRegister(uid)
	if err != nil {
		return err
	}
	if err := publish(rec); err != nil {
		if rbErr := s.restore(uid, prev); rbErr != nil {
			s.log.Error().Err(rbErr).Str("user_id", uid.String()).Msg("restore previous key")
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

func (s *Service) restore(uid domain.UserID, prev *ecdh.PrivateKey) error {
	if prev == nil {
		return s.keys.DeleteKey(uid)
	}
	return s.keys.StorePrivateKey(uid, prev)
}

// isValidUsername enforces a basic handle policy.
func isValidUsername(u domain.Username) bool {
	if u == "" || len(u) > maxUsernameLength {
		return false
	}
	return !strings.ContainsAny(u.String(), " \t\r\n")
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
