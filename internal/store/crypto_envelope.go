package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"polychat/internal/util/memzero"
)

const (
	// The current supported version of the sealed blob format.
	sealedFormatVersion = 1
	saltSize            = 16
)

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// sealed blob has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted secret")

// ScryptParams are the cost parameters for passphrase key derivation.
type ScryptParams struct {
	N, R, P int
}

// DefaultScryptParams returns the cost used for on-disk secrets. It is also
// the highest cost a stored blob may ask for.
func DefaultScryptParams() ScryptParams { return ScryptParams{N: 1 << 15, R: 8, P: 1} }

// valid reports whether p is a usable cost no higher than the default.
func (p ScryptParams) valid() bool {
	limit := DefaultScryptParams()
	return p.N > 1 && p.N&(p.N-1) == 0 && p.N <= limit.N &&
		p.R > 0 && p.R <= limit.R &&
		p.P > 0 && p.P <= limit.P
}

// sealedBlob is the JSON structure holding the ciphertext and KDF parameters.
type sealedBlob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// seal derives a key from passphrase and encrypts raw into a JSON blob.
// label is bound as associated data so a blob cannot be moved to another slot.
func seal(passphrase string, raw []byte, label string, params ScryptParams) ([]byte, error) {
	if !params.valid() {
		return nil, fmt.Errorf("scrypt parameters %+v out of range", params)
	}
	var salt [saltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	aead, err := sealingAEAD(passphrase, salt[:], params)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte // zero nonce; salt-bound key is unique per blob
	ct := aead.Seal(nil, nonce[:], raw, sealAD(salt[:], label))

	return json.Marshal(sealedBlob{
		V:      sealedFormatVersion,
		Salt:   salt[:],
		N:      params.N,
		R:      params.R,
		P:      params.P,
		Cipher: ct,
	})
}

// open reverses seal.
func open(passphrase string, b []byte, label string) ([]byte, error) {
	var bl sealedBlob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, fmt.Errorf("decode sealed secret: %w", err)
	}
	if bl.V != sealedFormatVersion {
		return nil, fmt.Errorf("unsupported sealed secret version %d", bl.V)
	}
	if len(bl.Salt) != saltSize {
		return nil, ErrWrongPassphrase
	}
	params := ScryptParams{N: bl.N, R: bl.R, P: bl.P}
	if !params.valid() {
		return nil, fmt.Errorf("%w: scrypt parameters out of range", ErrWrongPassphrase)
	}
	aead, err := sealingAEAD(passphrase, bl.Salt, params)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], bl.Cipher, sealAD(bl.Salt, label))
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

func sealingAEAD(passphrase string, salt []byte, params ScryptParams) (cipher.AEAD, error) {
	pass := []byte(passphrase)
	key, err := scrypt.Key(pass, salt, params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		memzero.Zero(pass)
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	// chacha20poly1305.New copies the key.
	defer memzero.ZeroAll(pass, key)
	return chacha20poly1305.New(key)
}

func sealAD(salt []byte, label string) []byte {
	ad := make([]byte, 0, len(salt)+len(label))
	ad = append(ad, salt...)
	return append(ad, label...)
}
