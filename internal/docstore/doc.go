// Package docstore is an in-memory implementation of the shared document
// store: user profiles, conversation records and per-conversation envelope
// logs.
//
// Memory backs the development server in cmd/docstore and the service tests.
// It never sees plaintext; envelopes are stored exactly as the sender built
// them, plus the id, timestamp and sequence number the store assigns.
package docstore
