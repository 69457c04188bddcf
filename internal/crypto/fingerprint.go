package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"polychat/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars).
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:10])
}

// FingerprintRecord fingerprints the uncompressed point behind rec.
func FingerprintRecord(rec domain.PublicKeyRecord) (domain.Fingerprint, error) {
	pub, err := ImportPublicKey(rec)
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(Fingerprint(pub.Bytes())), nil
}
