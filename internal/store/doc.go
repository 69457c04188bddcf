// Package store provides local secret storage for private key material.
//
// Each implementation satisfies domain.SecretStore:
//   - MemorySecretStore keeps secrets in process memory.
//   - SecretFileStore writes one sealed file per user, replaced atomically.
//   - BoltSecretStore keeps sealed values in a single bolt database.
//
// The file and bolt stores seal every value with a key derived from the
// user's passphrase (scrypt) under ChaCha20-Poly1305, binding the
// user id as associated data. All methods are safe for concurrent use.
package store
