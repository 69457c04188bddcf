// Package message implements end-to-end encrypted direct messaging between
// two users on top of an untrusted shared document store.
//
// Each pair of users shares one symmetric message key derived from their
// static P-256 keys. The key is derived per operation and wiped afterwards;
// it is never stored or sent. The store only ever sees envelopes holding
// base64 ciphertext and nonce.
//
// History and Watch decrypt on the reader's device and may translate peer
// messages through a domain.Translator. Translation sees plaintext only
// after local decryption.
package message
