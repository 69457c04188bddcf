package domain

import "errors"

var (
	// ErrKeyGeneration is returned when a key pair cannot be produced.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrKeyNotFound is returned when no local private key exists for a user
	// and implicit creation is not allowed.
	ErrKeyNotFound = errors.New("local private key not found")

	// ErrInvalidKey is returned for malformed key material or a curve other
	// than P-256.
	ErrInvalidKey = errors.New("invalid key")

	// ErrAuthenticationFailure is the only error decryption reports. Tampered
	// ciphertext, a wrong key and a corrupted nonce are indistinguishable.
	ErrAuthenticationFailure = errors.New("message authentication failed")

	// ErrRecipientUnavailable is returned when the recipient has not
	// published a public key.
	ErrRecipientUnavailable = errors.New("recipient has no registered public key")

	// ErrDeliveryFailure wraps a failed write to the shared store.
	ErrDeliveryFailure = errors.New("message delivery failed")

	// ErrInvalidIdentifier is returned for an empty user id or one holding the
	// conversation id separator.
	ErrInvalidIdentifier = errors.New("invalid user identifier")

	// ErrConversationNotFound is returned when a conversation record is missing.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrNotParticipant is returned when a user acts on a conversation they
	// are not part of.
	ErrNotParticipant = errors.New("user is not a participant in this conversation")

	// ErrProfileNotFound is returned when no profile exists for a user id or
	// username.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrUsernameTaken is returned by registration for a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrKeyMismatch is returned when the published public key differs from
	// the one derived from the local private key.
	ErrKeyMismatch = errors.New("published public key does not match local private key")
)
