package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"

	"polychat/internal/domain"
)

// Sealed is the text-safe output of Encrypt.
type Sealed struct {
	Ciphertext string
	Nonce      string
}

// Encrypt seals plaintext under key with AES-256-GCM and a fresh random
// nonce. ad is authenticated but not encrypted and may be nil.
//
// IMPORTANT: a nonce must never be reused with the same key; callers must not
// cache or replay the returned Nonce.
func Encrypt(key *domain.SharedKey, plaintext, ad []byte) (Sealed, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return Sealed{}, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return Sealed{}, fmt.Errorf("generate nonce: %w", err)
	}
	ct := gcm.Seal(nil, nonce, plaintext, ad)
	return Sealed{Ciphertext: Encode(ct), Nonce: Encode(nonce)}, nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any failure, including
// undecodable text or a nonce of the wrong size, is reported as
// domain.ErrAuthenticationFailure.
func Decrypt(key *domain.SharedKey, ciphertext, nonce string, ad []byte) ([]byte, error) {
	ct, err := Decode(ciphertext)
	if err != nil {
		return nil, domain.ErrAuthenticationFailure
	}
	iv, err := Decode(nonce)
	if err != nil || len(iv) != NonceSize {
		return nil, domain.ErrAuthenticationFailure
	}
	if len(ct) < TagSize {
		return nil, domain.ErrAuthenticationFailure
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, domain.ErrAuthenticationFailure
	}
	pt, err := gcm.Open(nil, iv, ct, ad)
	if err != nil {
		return nil, domain.ErrAuthenticationFailure
	}
	return pt, nil
}

func newGCM(key *domain.SharedKey) (cipher.AEAD, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: nil message key", domain.ErrInvalidKey)
	}
	block, err := aes.NewCipher(key.Slice())
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}
