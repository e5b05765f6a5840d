package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newChatsCmd(configFile *string) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List chat summaries",
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

			for _, chat := range app.store.Chats() {
				last := "-"
				if chat.LastMessage != nil {
					last = fmt.Sprintf("%s: %s", chat.LastMessage.Author, chat.LastMessage.Text)
				}
				kind := "private"
				if chat.IsGroup {
					kind = "group"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\tunread=%d\t%s\n", chat.ID, chat.Name, kind, chat.UnreadCount, last)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}
