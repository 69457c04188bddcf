package types

import "time"

// UserProfile is the shared, world-readable record for a user.
type UserProfile struct {
	UserID        UserID          `json:"uid"`
	Username      Username        `json:"username"`
	PublicKey     PublicKeyRecord `json:"publicKeyJwk"`
	PreferredLang Language        `json:"preferredLang"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// CanReceive reports whether messages can be encrypted to this user.
func (p UserProfile) CanReceive() bool { return !p.PublicKey.IsZero() }
