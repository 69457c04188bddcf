package conversation

import (
	"fmt"
	"strings"

	"polychat/internal/domain"
)

// Separator joins the two participant ids.
const Separator = "_"

// IDFor returns the conversation id for users a and b.
func IDFor(a, b domain.UserID) (domain.ConversationID, error) {
	if err := ValidateUserID(a); err != nil {
		return "", err
	}
	if err := ValidateUserID(b); err != nil {
		return "", err
	}
	if a == b {
		return "", fmt.Errorf("%w: a conversation needs two distinct users", domain.ErrInvalidIdentifier)
	}
	if b < a {
		a, b = b, a
	}
	return domain.ConversationID(string(a) + Separator + string(b)), nil
}

// Participants splits id back into its two user ids, lower id first.
func Participants(id domain.ConversationID) (domain.UserID, domain.UserID, error) {
	a, b, ok := strings.Cut(string(id), Separator)
	if !ok {
		return "", "", fmt.Errorf("%w: malformed conversation id %q", domain.ErrInvalidIdentifier, id)
	}
	want, err := IDFor(domain.UserID(a), domain.UserID(b))
	if err != nil {
		return "", "", err
	}
	if want != id {
		return "", "", fmt.Errorf("%w: conversation id %q is not canonical", domain.ErrInvalidIdentifier, id)
	}
	return domain.UserID(a), domain.UserID(b), nil
}

// ValidateUserID rejects ids that cannot appear in a conversation id.
func ValidateUserID(uid domain.UserID) error {
	if uid == "" {
		return fmt.Errorf("%w: empty user id", domain.ErrInvalidIdentifier)
	}
	if strings.Contains(string(uid), Separator) {
		return fmt.Errorf("%w: user id %q contains %q", domain.ErrInvalidIdentifier, uid, Separator)
	}
	return nil
}
