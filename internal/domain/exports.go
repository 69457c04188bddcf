package domain

import (
	interfaces "polychat/internal/domain/interfaces"
	types "polychat/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	UserID              = types.UserID
	Username            = types.Username
	Fingerprint         = types.Fingerprint
	ConversationID      = types.ConversationID
	MessageID           = types.MessageID
	Language            = types.Language
	PublicKeyRecord     = types.PublicKeyRecord
	SharedKey           = types.SharedKey
	UserProfile         = types.UserProfile
	Conversation        = types.Conversation
	ConversationSummary = types.ConversationSummary
	Cursor              = types.Cursor
	Envelope            = types.Envelope
	DecryptedMessage    = types.DecryptedMessage
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	SecretStore       = interfaces.SecretStore
	ProfileStore      = interfaces.ProfileStore
	ConversationStore = interfaces.ConversationStore
	MessageLog        = interfaces.MessageLog
	DocumentStore     = interfaces.DocumentStore
	KeyStore          = interfaces.KeyStore
	IdentityService   = interfaces.IdentityService
	MessageService    = interfaces.MessageService
	Translator        = interfaces.Translator
)

// Re-exported constants.
const (
	CurveP256       = types.CurveP256
	DefaultLanguage = types.DefaultLanguage
	UnreadableText  = types.UnreadableText

	TranslationUnavailable = types.TranslationUnavailable
)
