// Package observability builds the zerolog loggers shared by the CLI and the
// document store server.
package observability
