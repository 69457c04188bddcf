package crypto

import "encoding/base64"

// Encode returns standard base64 encoding without newlines. It is the
// text form used for ciphertext and nonces in stored envelopes.
func Encode(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// Decode reverses Encode exactly.
func Decode(s string) ([]byte, error) { return base64.StdEncoding.DecodeString(s) }

// ToBase64URL encodes bytes to URL-safe base64 without padding.
func ToBase64URL(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

// FromBase64URL decodes URL-safe base64 without padding.
func FromBase64URL(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }
