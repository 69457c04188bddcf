package agreement

import (
	"crypto/ecdh"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"polychat/internal/crypto"
	"polychat/internal/domain"
	"polychat/internal/util/memzero"
)

// Info is the HKDF context string for direct-message keys.
const Info = "polychat:dm:v1"

// Derive computes the message key for myPriv and peerPub.
func Derive(myPriv *ecdh.PrivateKey, peerPub *ecdh.PublicKey) (domain.SharedKey, error) {
	var key domain.SharedKey
	if myPriv == nil || peerPub == nil {
		return key, fmt.Errorf("%w: missing key", domain.ErrInvalidKey)
	}
	if myPriv.Curve() != ecdh.P256() || peerPub.Curve() != ecdh.P256() {
		return key, fmt.Errorf("%w: keys must be on P-256", domain.ErrInvalidKey)
	}

	secret, err := myPriv.ECDH(peerPub)
	if err != nil {
		return key, fmt.Errorf("%w: %v", domain.ErrInvalidKey, err)
	}
	defer memzero.Zero(secret)

	r := hkdf.New(sha256.New, secret, nil, []byte(Info))
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return domain.SharedKey{}, fmt.Errorf("derive message key: %w", err)
	}
	return key, nil
}

// DeriveFromRecord imports peer and then calls Derive.
func DeriveFromRecord(myPriv *ecdh.PrivateKey, peer domain.PublicKeyRecord) (domain.SharedKey, error) {
	peerPub, err := crypto.ImportPublicKey(peer)
	if err != nil {
		return domain.SharedKey{}, err
	}
	return Derive(myPriv, peerPub)
}

// Wipe zeroes k in place.
func Wipe(k *domain.SharedKey) {
	if k == nil {
		return
	}
	memzero.Zero(k[:])
}
