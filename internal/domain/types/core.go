package types

// UserID is the stable identifier handed out by the identity provider.
type UserID string

// String returns the string form of the user identifier.
func (u UserID) String() string { return string(u) }

// Username is the public, searchable handle on a profile.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// ConversationID identifies a two-party conversation.
type ConversationID string

// String returns the string form of the conversation identifier.
func (id ConversationID) String() string { return string(id) }

// MessageID identifies one envelope inside a conversation's message log.
type MessageID string

// String returns the string form of the message identifier.
func (id MessageID) String() string { return string(id) }

// Language is a translation target code such as "en" or "hi".
type Language string

// String returns the string form of the language code.
func (l Language) String() string { return string(l) }

// DefaultLanguage is assigned to a participant who has not chosen one.
const DefaultLanguage Language = "en"
