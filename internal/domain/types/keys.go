package types

// CurveP256 is the only curve name accepted in a PublicKeyRecord.
const CurveP256 = "P-256"

// PublicKeyRecord is the exported public half of a user's key pair, attached
// to their profile. X and Y are the affine coordinates, base64url without
// padding, as in a JWK.
type PublicKeyRecord struct {
	Curve string `json:"crv"`
	X     string `json:"x"`
	Y     string `json:"y"`
}

// IsZero reports whether no key has been recorded.
func (r PublicKeyRecord) IsZero() bool { return r.Curve == "" && r.X == "" && r.Y == "" }

// SharedKey is a symmetric message key derived from one party's private key
// and the other party's public key. It is never serialised.
type SharedKey [32]byte

// Slice returns the key as a []byte.
func (k *SharedKey) Slice() []byte { return k[:] }
