// Package keystore owns each user's long-term P-256 key pair.
//
// Private keys live only in the injected domain.SecretStore. Callers get the
// public half as a PublicKeyRecord, or the private key itself for a single
// derive operation.
//
// Load-or-create is explicit: LoadOrCreatePrivateKey reports whether a key
// was created so the caller can republish the public half, and a Service
// built WithStrict never creates keys implicitly.
package keystore
