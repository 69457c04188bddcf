package types

import "time"

// Cursor is a position in a conversation's message log. Seq values are
// assigned by the store and strictly increase per conversation; a cursor
// selects envelopes with Seq greater than it.
type Cursor uint64

// Envelope is the persisted, store-opaque form of one encrypted message.
// Ciphertext and Nonce are standard base64 text.
type Envelope struct {
	ID             MessageID      `json:"id"`
	ConversationID ConversationID `json:"conversationId"`
	SenderID       UserID         `json:"sender"`
	Ciphertext     string         `json:"ciphertext"`
	Nonce          string         `json:"iv"`
	Timestamp      time.Time      `json:"timestamp"`
	Seq            Cursor         `json:"seq"`
}

// DecryptedMessage is an envelope after local decryption. Err is set, and
// Text holds UnreadableText, when the envelope could not be opened.
type DecryptedMessage struct {
	ID          MessageID `json:"id"`
	SenderID    UserID    `json:"sender"`
	Text        string    `json:"text"`
	Translation string    `json:"translation,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Seq         Cursor    `json:"seq"`
	Err         error     `json:"-"`
}

// UnreadableText is shown in place of a message that failed to decrypt.
const UnreadableText = "[Encryption Error]"

// TranslationUnavailable is shown in place of a translation that failed.
const TranslationUnavailable = "[Translation unavailable]"
