package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"polychat/internal/docstore"
	"polychat/internal/observability"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var addr, level, origins string
	cmd := &cobra.Command{
		Use:          "docstore",
		Short:        "In-memory document store for polychat",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := observability.NewLogger("docstore", version, os.Stdout, level, observability.FormatJSON)
			srv := &http.Server{
				Addr:              addr,
				Handler:           docstore.WithCORS(docstore.NewServer(docstore.NewMemory(), log), splitList(origins)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				<-cmd.Context().Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("shutdown")
				}
			}()

			log.Info().Str("addr", addr).Msg("document store listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			log.Info().Msg("document store stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envOr("DOCSTORE_ADDR", ":8080"), "listen address")
	cmd.Flags().StringVar(&origins, "cors-origins", envOr("DOCSTORE_CORS_ORIGINS", ""), "comma-separated browser origins allowed to call the store")
	cmd.Flags().StringVar(&level, "log-level", envOr("DOCSTORE_LOG_LEVEL", "info"), "log level")
	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
