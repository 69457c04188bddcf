// Package crypto exposes the minimal primitives used by polychat.
//
// Contents
//
//   - P-256 key generation, public key export/import as a PublicKeyRecord, and
//     private key (un)marshalling for local secret storage (GenerateP256,
//     ExportPublicKey, ImportPublicKey, MarshalPrivateKey, UnmarshalPrivateKey)
//   - AES-256-GCM message encryption with a fresh random nonce per call
//     (Encrypt, Decrypt)
//   - Text-safe base64 encoding of binary outputs (Encode, Decode)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Decrypt reports every failure as domain.ErrAuthenticationFailure so that a
// caller cannot tell a wrong key from tampered data. Callers should treat
// derived keys as sensitive and wipe them with memzero when done.
package crypto
