package interfaces

import (
	"context"

	domaintypes "polychat/internal/domain/types"
)

// SecretStore is local, device-only key-value storage for private key
// material, keyed by user id. Get reports ok=false when nothing is stored.
type SecretStore interface {
	Get(uid domaintypes.UserID) (secret []byte, ok bool, err error)
	Put(uid domaintypes.UserID, secret []byte) error
	Delete(uid domaintypes.UserID) error
}

// ProfileStore reads and writes user profiles in the shared document store.
type ProfileStore interface {
	PutProfile(ctx context.Context, profile domaintypes.UserProfile) error
	GetProfile(ctx context.Context, uid domaintypes.UserID) (domaintypes.UserProfile, bool, error)
	FindProfileByUsername(
		ctx context.Context,
		username domaintypes.Username,
	) (domaintypes.UserProfile, bool, error)
	DeleteProfile(ctx context.Context, uid domaintypes.UserID) error
}

// ConversationStore holds conversation metadata records.
type ConversationStore interface {
	// CreateConversation writes conv only if no record with conv.ID exists.
	// created is false when another writer got there first.
	CreateConversation(ctx context.Context, conv domaintypes.Conversation) (created bool, err error)
	GetConversation(
		ctx context.Context,
		id domaintypes.ConversationID,
	) (domaintypes.Conversation, bool, error)
	SetLanguage(
		ctx context.Context,
		id domaintypes.ConversationID,
		uid domaintypes.UserID,
		lang domaintypes.Language,
	) error
	// ListConversations returns every conversation uid takes part in,
	// newest first.
	ListConversations(ctx context.Context, uid domaintypes.UserID) ([]domaintypes.Conversation, error)
}

// MessageLog is the per-conversation append-only envelope log.
type MessageLog interface {
	// AppendEnvelope stores env and returns it with ID, Timestamp and Seq
	// assigned by the store. The write is all-or-nothing.
	AppendEnvelope(ctx context.Context, env domaintypes.Envelope) (domaintypes.Envelope, error)
	ListEnvelopes(
		ctx context.Context,
		id domaintypes.ConversationID,
		since domaintypes.Cursor,
	) ([]domaintypes.Envelope, error)
	// Subscribe delivers envelopes appended after since until ctx is done,
	// then closes the channel.
	Subscribe(
		ctx context.Context,
		id domaintypes.ConversationID,
		since domaintypes.Cursor,
	) (<-chan domaintypes.Envelope, error)
	DeleteEnvelope(ctx context.Context, id domaintypes.ConversationID, msg domaintypes.MessageID) error
}

// DocumentStore is the full shared store surface.
type DocumentStore interface {
	ProfileStore
	ConversationStore
	MessageLog
}
