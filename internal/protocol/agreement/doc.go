// Package agreement derives the symmetric message key shared by two users.
//
// # Overview
//
// Each user holds one static P-256 key pair. For a pair of users A and B the
// message key is
//
//	K = HKDF-SHA-256(ikm = ECDH(privA, pubB), salt = nil, info = Info)
//
// ECDH is symmetric, so B computes the same K from privB and pubA. The raw
// ECDH output is wiped as soon as HKDF has consumed it.
//
// # Errors
//
// domain.ErrInvalidKey is returned for nil keys, keys on another curve and
// malformed public key records.
//
// # Lifetime
//
// K is derived per operation and never cached or persisted. Callers wipe it
// with Wipe when the encrypt or decrypt call that needed it returns.
package agreement
