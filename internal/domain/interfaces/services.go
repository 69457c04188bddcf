package interfaces

import (
	"context"
	"crypto/ecdh"

	domaintypes "polychat/internal/domain/types"
)

// KeyStore owns each user's long-term key pair in local secret storage.
type KeyStore interface {
	GenerateAndRegister(uid domaintypes.UserID) (domaintypes.PublicKeyRecord, error)
	LoadOrCreatePrivateKey(uid domaintypes.UserID) (key *ecdh.PrivateKey, created bool, err error)
	LoadPrivateKey(uid domaintypes.UserID) (*ecdh.PrivateKey, error)
	PublicKey(uid domaintypes.UserID) (domaintypes.PublicKeyRecord, error)
	// StorePrivateKey replaces uid's key with priv. Used to roll back a
	// generation whose public half could not be published.
	StorePrivateKey(uid domaintypes.UserID, priv *ecdh.PrivateKey) error
	DeleteKey(uid domaintypes.UserID) error
}

// IdentityService registers users and keeps their published key in step with
// the locally held one.
type IdentityService interface {
	Register(
		ctx context.Context,
		uid domaintypes.UserID,
		username domaintypes.Username,
		lang domaintypes.Language,
	) (domaintypes.UserProfile, error)
	Rotate(ctx context.Context, uid domaintypes.UserID) (domaintypes.PublicKeyRecord, error)
	Verify(ctx context.Context, uid domaintypes.UserID) error
	Fingerprint(uid domaintypes.UserID) (domaintypes.Fingerprint, error)
	PublishKey(ctx context.Context, uid domaintypes.UserID, rec domaintypes.PublicKeyRecord) error
	Profile(ctx context.Context, uid domaintypes.UserID) (domaintypes.UserProfile, error)
	FindByUsername(ctx context.Context, username domaintypes.Username) (domaintypes.UserProfile, error)
	SetPreferredLanguage(ctx context.Context, uid domaintypes.UserID, lang domaintypes.Language) error
	DeleteAccount(ctx context.Context, uid domaintypes.UserID) error
}

// MessageService opens conversations and sends, decrypts and deletes messages.
type MessageService interface {
	OpenOrCreate(
		ctx context.Context,
		a, b domaintypes.UserID,
		lang domaintypes.Language,
	) (domaintypes.Conversation, error)
	Send(
		ctx context.Context,
		id domaintypes.ConversationID,
		sender, recipient domaintypes.UserID,
		plaintext []byte,
	) (domaintypes.Envelope, error)
	DecryptIncoming(
		env domaintypes.Envelope,
		me domaintypes.UserID,
		peer domaintypes.PublicKeyRecord,
	) ([]byte, error)
	DeleteMessage(ctx context.Context, id domaintypes.ConversationID, msg domaintypes.MessageID) error
	Conversations(ctx context.Context, me domaintypes.UserID) ([]domaintypes.ConversationSummary, error)
}

// Translator turns already-decrypted text into another language.
type Translator interface {
	Translate(ctx context.Context, text string, target domaintypes.Language) (string, error)
}
