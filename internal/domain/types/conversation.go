package types

import "time"

// Conversation is the metadata record for a two-party thread.
type Conversation struct {
	ID           ConversationID      `json:"id"`
	Participants [2]UserID           `json:"participants"`
	Prefs        map[UserID]Language `json:"prefs"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// Has reports whether uid takes part in the conversation.
func (c Conversation) Has(uid UserID) bool {
	return c.Participants[0] == uid || c.Participants[1] == uid
}

// Peer returns the other participant, or "" if uid is not a participant.
func (c Conversation) Peer(uid UserID) UserID {
	switch uid {
	case c.Participants[0]:
		return c.Participants[1]
	case c.Participants[1]:
		return c.Participants[0]
	}
	return ""
}

// LanguageFor returns uid's language preference, falling back to DefaultLanguage.
func (c Conversation) LanguageFor(uid UserID) Language {
	if l, ok := c.Prefs[uid]; ok && l != "" {
		return l
	}
	return DefaultLanguage
}

// ConversationSummary is a conversation as listed for one participant.
// PeerUsername is empty when the peer has no profile.
type ConversationSummary struct {
	Conversation
	Peer         UserID   `json:"peer"`
	PeerUsername Username `json:"peerUsername,omitempty"`
}
