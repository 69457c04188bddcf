package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"polychat/internal/domain"
	"polychat/internal/util/memzero"
)

// randReader is the random source for key and nonce generation. Tests may
// swap it to simulate an unavailable primitive.
var randReader io.Reader = rand.Reader

// GenerateP256 returns a fresh P-256 ECDH private key.
func GenerateP256() (*ecdh.PrivateKey, error) {
	priv, err := ecdh.P256().GenerateKey(randReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKeyGeneration, err)
	}
	return priv, nil
}

// ExportPublicKey converts pub to its publishable record form.
func ExportPublicKey(pub *ecdh.PublicKey) (domain.PublicKeyRecord, error) {
	if pub == nil || pub.Curve() != ecdh.P256() {
		return domain.PublicKeyRecord{}, fmt.Errorf("%w: not a P-256 public key", domain.ErrInvalidKey)
	}
	raw := pub.Bytes()
	return domain.PublicKeyRecord{
		Curve: domain.CurveP256,
		X:     ToBase64URL(raw[1 : 1+coordSize]),
		Y:     ToBase64URL(raw[1+coordSize:]),
	}, nil
}

// ImportPublicKey parses and validates rec. The point must lie on P-256.
func ImportPublicKey(rec domain.PublicKeyRecord) (*ecdh.PublicKey, error) {
	if rec.Curve != domain.CurveP256 {
		return nil, fmt.Errorf("%w: unsupported curve %q", domain.ErrInvalidKey, rec.Curve)
	}
	x, err := FromBase64URL(rec.X)
	if err != nil || len(x) != coordSize {
		return nil, fmt.Errorf("%w: bad x coordinate", domain.ErrInvalidKey)
	}
	y, err := FromBase64URL(rec.Y)
	if err != nil || len(y) != coordSize {
		return nil, fmt.Errorf("%w: bad y coordinate", domain.ErrInvalidKey)
	}

	raw := make([]byte, 0, uncompressedPointSize)
	raw = append(raw, 0x04)
	raw = append(raw, x...)
	raw = append(raw, y...)
	pub, err := ecdh.P256().NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKey, err)
	}
	return pub, nil
}

// privateKeyBlob is the JSON layout of a private key in local secret storage.
type privateKeyBlob struct {
	Curve string `json:"crv"`
	D     string `json:"d"`
	X     string `json:"x"`
	Y     string `json:"y"`
}

// MarshalPrivateKey serialises priv for local secret storage only.
func MarshalPrivateKey(priv *ecdh.PrivateKey) ([]byte, error) {
	if priv == nil || priv.Curve() != ecdh.P256() {
		return nil, fmt.Errorf("%w: not a P-256 private key", domain.ErrInvalidKey)
	}
	rec, err := ExportPublicKey(priv.PublicKey())
	if err != nil {
		return nil, err
	}
	d := priv.Bytes()
	defer memzero.Zero(d)

	return json.Marshal(privateKeyBlob{
		Curve: rec.Curve,
		D:     ToBase64URL(d),
		X:     rec.X,
		Y:     rec.Y,
	})
}

// UnmarshalPrivateKey reverses MarshalPrivateKey. The stored public
// coordinates must match the ones derived from d.
func UnmarshalPrivateKey(b []byte) (*ecdh.PrivateKey, error) {
	var blob privateKeyBlob
	if err := json.Unmarshal(b, &blob); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKey, err)
	}
	if blob.Curve != domain.CurveP256 {
		return nil, fmt.Errorf("%w: unsupported curve %q", domain.ErrInvalidKey, blob.Curve)
	}
	d, err := FromBase64URL(blob.D)
	if err != nil {
		return nil, fmt.Errorf("%w: bad private scalar", domain.ErrInvalidKey)
	}
	defer memzero.Zero(d)

	priv, err := ecdh.P256().NewPrivateKey(d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKey, err)
	}
	rec, err := ExportPublicKey(priv.PublicKey())
	if err != nil {
		return nil, err
	}
	if rec.X != blob.X || rec.Y != blob.Y {
		return nil, fmt.Errorf("%w: stored public key does not match private scalar", domain.ErrInvalidKey)
	}
	return priv, nil
}
