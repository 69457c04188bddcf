package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"polychat/internal/domain"
)

func openCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "open <peer>",
		Short: "Open (or create) the conversation with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, conv, err := conversationWith(cmd.Context(), args[0], domain.Language(lang))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Conversation %s\n", conv.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "your language in this conversation (new conversations only)")
	return cmd
}

// send <peer> <message>: encrypt and send a message to <peer>.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <peer> <message...>",
		Short: "Encrypt and send a message to a peer",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, peer, conv, err := conversationWith(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			env, err := appCtx.Messages.Send(cmd.Context(), conv.ID, me, peer, []byte(text))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s (#%d)\n", env.ID, env.Seq)
			return nil
		},
	}
}

func chatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List your conversations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := appCtx.Me()
			if err != nil {
				return err
			}
			convs, err := appCtx.Messages.Conversations(cmd.Context(), me)
			if err != nil {
				return err
			}
			if len(convs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No chats yet.")
				return nil
			}
			for _, c := range convs {
				name := "(unknown user)"
				if c.PeerUsername != "" {
					name = "@" + c.PeerUsername.String()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.Peer, name, c.ID)
			}
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <peer>",
		Short: "Decrypt and print the conversation with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, _, conv, err := conversationWith(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			msgs, err := appCtx.Messages.History(cmd.Context(), conv.ID, me)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				printMessage(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func watchCmd() *cobra.Command {
	var since uint64
	cmd := &cobra.Command{
		Use:   "watch <peer>",
		Short: "Print new messages from the conversation as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, _, conv, err := conversationWith(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			ch, err := appCtx.Messages.Watch(cmd.Context(), conv.ID, me, domain.Cursor(since))
			if err != nil {
				return err
			}
			for m := range ch {
				printMessage(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&since, "since", 0, "only show messages after this sequence number")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <peer> <message-id>",
		Short: "Delete a message from the conversation with a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, conv, err := conversationWith(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			if err := appCtx.Messages.DeleteMessage(cmd.Context(), conv.ID, domain.MessageID(args[1])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}

func langCmd() *cobra.Command {
	var peer string
	cmd := &cobra.Command{
		Use:   "lang <code>",
		Short: "Set your language for one conversation (--peer) or your profile default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := domain.Language(args[0])
			if peer == "" {
				me, err := appCtx.Me()
				if err != nil {
					return err
				}
				if err := appCtx.Identity.SetPreferredLanguage(cmd.Context(), me, lang); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Default language set to %s\n", lang)
				return nil
			}
			me, _, conv, err := conversationWith(cmd.Context(), peer, "")
			if err != nil {
				return err
			}
			if err := appCtx.Messages.SetLanguage(cmd.Context(), conv.ID, me, lang); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Language for %s set to %s\n", conv.ID, lang)
			return nil
		},
	}
	cmd.Flags().StringVar(&peer, "peer", "", "user id or @username of the conversation")
	return cmd
}

func printMessage(w io.Writer, m domain.DecryptedMessage) {
	fmt.Fprintf(w, "#%d %s [%s] %s: %s\n", m.Seq, m.ID, m.Timestamp.Local().Format(time.DateTime), m.SenderID, m.Text)
	if m.Translation != "" {
		fmt.Fprintf(w, "    %s\n", m.Translation)
	}
}
