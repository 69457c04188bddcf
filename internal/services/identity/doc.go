// Package identity registers users and manages the public key published on
// their profile.
//
// It generates key pairs through the domain.KeyStore, publishes them via the
// domain.ProfileStore, and can verify, rotate or fingerprint them.
package identity
