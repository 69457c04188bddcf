package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"polychat/internal/app"
	"polychat/internal/domain"
)

var (
	cfg    app.Config
	appCtx *app.App
)

// Execute runs the CLI with ctx as the root command context.
func Execute(ctx context.Context, version string) error {
	root, err := newRootCmd(version)
	if err != nil {
		return err
	}
	return root.ExecuteContext(ctx)
}

func newRootCmd(version string) (*cobra.Command, error) {
	loaded, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg = loaded
	appCtx = nil

	var user string
	root := &cobra.Command{
		Use:           "polychat",
		Short:         "End-to-end encrypted direct messages with optional translation",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.User = domain.UserID(user)
			a, err := app.New(cfg, version)
			if err != nil {
				return err
			}
			appCtx = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx == nil {
				return nil
			}
			return appCtx.Close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.Home, "home", cfg.Home, "local data dir (env POLYCHAT_HOME)")
	pf.StringVarP(&user, "user", "u", cfg.User.String(), "your user id from the identity provider (env POLYCHAT_USER)")
	pf.StringVarP(&cfg.Passphrase, "passphrase", "p", cfg.Passphrase, "passphrase protecting local keys (env POLYCHAT_PASSPHRASE)")
	pf.StringVar(&cfg.Secrets, "secrets", cfg.Secrets, "local key storage: file, bolt or memory (env POLYCHAT_SECRETS)")
	pf.StringVar(&cfg.StoreURL, "store", cfg.StoreURL, "document store base URL, or mem:// (env POLYCHAT_STORE_URL)")
	pf.StringVar(&cfg.TranslateURL, "translate", cfg.TranslateURL, "translation service base URL (env POLYCHAT_TRANSLATE_URL)")
	pf.BoolVar(&cfg.StrictKeys, "strict-keys", cfg.StrictKeys, "never create a key implicitly when sending (env POLYCHAT_STRICT_KEYS)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (env POLYCHAT_LOG_LEVEL)")

	root.AddCommand(
		initCmd(),
		registerCmd(),
		fingerprintCmd(),
		rotateCmd(),
		verifyCmd(),
		openCmd(),
		chatsCmd(),
		sendCmd(),
		historyCmd(),
		watchCmd(),
		deleteCmd(),
		langCmd(),
		deleteAccountCmd(),
	)
	return root, nil
}

// resolvePeer accepts a user id, or @username to look one up.
func resolvePeer(ctx context.Context, arg string) (domain.UserID, error) {
	if name, ok := strings.CutPrefix(arg, "@"); ok {
		p, err := appCtx.Identity.FindByUsername(ctx, domain.Username(name))
		if err != nil {
			return "", err
		}
		return p.UserID, nil
	}
	if arg == "" {
		return "", fmt.Errorf("%w: empty peer", domain.ErrInvalidIdentifier)
	}
	return domain.UserID(arg), nil
}

// conversationWith opens (or creates) the conversation between the
// configured user and peerArg.
func conversationWith(ctx context.Context, peerArg string, lang domain.Language) (domain.UserID, domain.UserID, domain.Conversation, error) {
	me, err := appCtx.Me()
	if err != nil {
		return "", "", domain.Conversation{}, err
	}
	peer, err := resolvePeer(ctx, peerArg)
	if err != nil {
		return "", "", domain.Conversation{}, err
	}
	conv, err := appCtx.Messages.OpenOrCreate(ctx, me, peer, lang)
	if err != nil {
		return "", "", domain.Conversation{}, err
	}
	return me, peer, conv, nil
}
