package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"polychat/internal/domain"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create your local key pair if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := appCtx.Me()
			if err != nil {
				return err
			}
			created := false
			if _, err := appCtx.Keys.LoadPrivateKey(me); errors.Is(err, domain.ErrKeyNotFound) {
				if _, err := appCtx.Keys.GenerateAndRegister(me); err != nil {
					return err
				}
				created = true
			} else if err != nil {
				return err
			}
			fp, err := appCtx.Identity.Fingerprint(me)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Key pair created.\nFingerprint: %s\n", fp)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Key pair already present.\nFingerprint: %s\n", fp)
			}
			return nil
		},
	}
}

func registerCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create your key pair and publish your profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := appCtx.Me()
			if err != nil {
				return err
			}
			p, err := appCtx.Identity.Register(cmd.Context(), me, domain.Username(args[0]), domain.Language(lang))
			if err != nil {
				return err
			}
			fp, err := appCtx.Identity.Fingerprint(me)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as @%s.\nFingerprint: %s\n", p.UserID, p.Username, fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", string(domain.DefaultLanguage), "preferred language")
	return cmd
}

func fingerprintCmd() *cobra.Command {
	var peer string
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print your key fingerprint, or the one published by --peer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if peer != "" {
				uid, err := resolvePeer(cmd.Context(), peer)
				if err != nil {
					return err
				}
				fp, err := appCtx.Identity.ProfileFingerprint(cmd.Context(), uid)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint of %s: %s\n", uid, fp)
				return nil
			}
			me, err := appCtx.Me()
			if err != nil {
				return err
			}
			fp, err := appCtx.Identity.Fingerprint(me)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fingerprint: %s\n", fp)
			return nil
		},
	}
	cmd.Flags().StringVar(&peer, "peer", "", "user id or @username to show the published fingerprint of")
	return cmd
}

func rotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Replace your key pair and republish it (old messages become unreadable)",
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := appCtx.Me()
			if err != nil {
				return err
			}
			if _, err := appCtx.Identity.Rotate(cmd.Context(), me); err != nil {
				return err
			}
			fp, err := appCtx.Identity.Fingerprint(me)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Key rotated.\nFingerprint: %s\n", fp)
			return nil
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that your published key matches your local key",
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := appCtx.Me()
			if err != nil {
				return err
			}
			if err := appCtx.Identity.Verify(cmd.Context(), me); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Published key matches local key.")
			return nil
		},
	}
}

func deleteAccountCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete your profile and your local private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete without --yes")
			}
			me, err := appCtx.Me()
			if err != nil {
				return err
			}
			if err := appCtx.Identity.DeleteAccount(cmd.Context(), me); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
