package app

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"polychat/internal/docstore"
	"polychat/internal/domain"
	"polychat/internal/relay"
	identitysvc "polychat/internal/services/identity"
	keystoresvc "polychat/internal/services/keystore"
	messagesvc "polychat/internal/services/message"
	"polychat/internal/store"
	"polychat/internal/translate"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Secrets  domain.SecretStore
	Docs     domain.DocumentStore
	Keys     *keystoresvc.Service
	Identity *identitysvc.Service
	Messages *messagesvc.Service
	HTTP     *http.Client

	closers []io.Closer
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config, log zerolog.Logger) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}

	w := &Wire{HTTP: cfg.HTTP}
	if w.HTTP == nil {
		w.HTTP = http.DefaultClient
	}

	// Local secret storage
	switch cfg.Secrets {
	case SecretsBolt:
		bs, err := store.OpenBoltSecretStore(filepath.Join(cfg.Home, "secrets.db"), cfg.Passphrase, store.DefaultScryptParams())
		if err != nil {
			return nil, err
		}
		w.Secrets = bs
		w.closers = append(w.closers, bs)
	case SecretsMemory:
		w.Secrets = store.NewMemorySecretStore()
	default:
		w.Secrets = store.NewSecretFileStore(filepath.Join(cfg.Home, "keys"), cfg.Passphrase, store.DefaultScryptParams())
	}

	// Shared document store
	if cfg.StoreURL == MemoryStoreURL {
		w.Docs = docstore.NewMemory()
	} else {
		rc := relay.NewHTTP(cfg.StoreURL, log.With().Str("component", "relay").Logger())
		if cfg.HTTP != nil {
			rc.HTTP = cfg.HTTP
		}
		w.Docs = rc
	}

	// High-level services
	w.Keys = keystoresvc.New(w.Secrets,
		keystoresvc.WithStrict(cfg.StrictKeys),
		keystoresvc.WithLogger(log.With().Str("component", "keystore").Logger()),
	)
	w.Identity = identitysvc.New(w.Keys, w.Docs,
		identitysvc.WithLogger(log.With().Str("component", "identity").Logger()),
	)

	msgOpts := []messagesvc.Option{
		messagesvc.WithLogger(log.With().Str("component", "message").Logger()),
		messagesvc.WithParallelism(cfg.Parallelism),
	}
	if cfg.TranslateURL != "" {
		tc := translate.New(cfg.TranslateURL, cfg.TranslateAPIKey)
		if cfg.HTTP != nil {
			tc.HTTP = cfg.HTTP
		}
		msgOpts = append(msgOpts, messagesvc.WithTranslator(tc))
	}
	w.Messages = messagesvc.New(w.Keys, w.Identity, w.Docs, w.Docs, msgOpts...)

	return w, nil
}

// Close releases stores that hold files open.
func (w *Wire) Close() error {
	var errs []error
	for _, c := range w.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
	}
	w.closers = nil
	return errors.Join(errs...)
}
