package app

import (
	"os"

	"github.com/rs/zerolog"

	"polychat/internal/domain"
	"polychat/internal/observability"
)

// App is what CLI commands act on: the configured user plus the wired
// services.
type App struct {
	*Wire
	Cfg Config
	Log zerolog.Logger
}

// New builds the logger and the dependency graph for cfg.
func New(cfg Config, version string) (*App, error) {
	log := observability.NewLogger("polychat", version, os.Stderr, cfg.LogLevel, observability.LogFormat(cfg.LogFormat))
	w, err := NewWire(cfg, log)
	if err != nil {
		return nil, err
	}
	return &App{Wire: w, Cfg: cfg, Log: log}, nil
}

// Me returns the configured user id or an error naming the missing setting.
func (a *App) Me() (domain.UserID, error) {
	if a.Cfg.User == "" {
		return "", errMissingUser
	}
	return a.Cfg.User, nil
}
