package docstore

import (
	"errors"
	"net/http"

	"polychat/internal/domain"
)

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// CreateResult is the response to POST /conversations.
type CreateResult struct {
	Created bool `json:"created"`
}

// LanguageBody is the request body of PUT /conversations/{id}/prefs/{uid}.
type LanguageBody struct {
	Lang domain.Language `json:"lang"`
}

var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrConversationNotFound, "conversation_not_found", http.StatusNotFound},
	{domain.ErrProfileNotFound, "profile_not_found", http.StatusNotFound},
	{domain.ErrNotParticipant, "not_participant", http.StatusForbidden},
	{domain.ErrUsernameTaken, "username_taken", http.StatusConflict},
	{domain.ErrInvalidIdentifier, "invalid_identifier", http.StatusBadRequest},
}

// ErrorStatus maps a store error to an HTTP status and a stable code.
func ErrorStatus(err error) (int, string) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, ""
}

// ErrorFromCode returns the sentinel for code, or nil if code is unknown.
func ErrorFromCode(code string) error {
	for _, e := range errorCodes {
		if e.code == code {
			return e.err
		}
	}
	return nil
}
