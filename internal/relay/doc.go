// Package relay provides an HTTP implementation of domain.DocumentStore,
// talking to the document store served by cmd/docstore.
//
// The store is untrusted: it holds public profiles, conversation records and
// encrypted envelopes, and never sees plaintext or private keys.
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Error replies carrying a known code are mapped back to the
// matching domain sentinel; other non-2xx statuses are returned as errors
// with the method, path and status text. Subscribe is implemented by long
// polling with exponential back-off on failure.
package relay
