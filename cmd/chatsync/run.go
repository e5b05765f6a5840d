package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chat-client/internal/session"
)

func newRunCmd(configFile *string) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log in and keep the local timeline store in sync until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*configFile)
			if err != nil {
				return err
			}
			defer app.close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := app.login(ctx, email, password); err != nil {
				return err
			}
			if err := app.refresh(ctx); err != nil {
				return err
			}
			app.subscribeAll()

			poller := session.NewPresencePoller(app.manager, app.cfg.PresenceInterval, app.logger)
			if err := poller.Start(ctx); err != nil {
				return err
			}

			app.logger.Info().Int("chats", len(app.store.Chats())).Msg("sync running")
			<-ctx.Done()

			// Teardown order: realtime first so no event lands after logout.
			app.subscriber.Close()
			if err := poller.Stop(); err != nil {
				app.logger.Warn().Err(err).Msg("poller stop failed")
			}
			app.manager.Logout(context.Background())
			app.logger.Info().Msg("sync stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}
