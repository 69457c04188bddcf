// Package main runs the in-memory HTTP document store used by polychat during
// development and tests. It holds user profiles, conversations and encrypted
// message envelopes; see docstore.Server for the routes.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Responses are JSON. Errors carry {"error": msg, "code": code}.
//   - Message lists accept ?wait= so clients can long-poll for new envelopes.
//   - Each request is logged as one JSON line (method, path, status, bytes,
//     duration).
//   - Browser origins listed in --cors-origins (DOCSTORE_CORS_ORIGINS) get
//     CORS headers.
//   - The listen address defaults to :8080 (flag --addr or DOCSTORE_ADDR).
//
// The store never sees plaintext or private keys; it only holds ciphertext
// and published public keys.
package main
