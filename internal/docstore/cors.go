package docstore

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSOptions allows browser clients served from origins to call the store.
func CORSOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}
}

// WithCORS wraps h for origins. With no origins h is returned unchanged.
func WithCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return h
	}
	return cors.New(CORSOptions(origins)).Handler(h)
}
