// Package translate is an HTTP client for a LibreTranslate-compatible
// translation service.
//
// Only already-decrypted text is sent, and only when the reader has asked for
// a language other than English. Callers treat every error as "no
// translation available" and keep showing the original text.
package translate
