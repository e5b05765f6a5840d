package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSendCmd(configFile *string) *cobra.Command {
	var email, password string
	var chatID int
	var text, replyTo string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one message through the compose controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*configFile)
			if err != nil {
				return err
			}
			defer app.close()

			ctx := context.Background()
			if err := app.login(ctx, email, password); err != nil {
				return err
			}
			if err := app.refresh(ctx); err != nil {
				return err
			}

			app.store.SetActiveChat(chatID)
			app.controller.SetDraft(text)
			if replyTo != "" {
				app.controller.StartReply(replyTo)
			}

			msg, err := app.controller.Submit(ctx, chatID)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", msg.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().IntVar(&chatID, "chat", 0, "target chat id")
	cmd.Flags().StringVar(&text, "text", "", "message text")
	cmd.Flags().StringVar(&replyTo, "reply-to", "", "message id to reply to")
	_ = cmd.MarkFlagRequired("chat")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
