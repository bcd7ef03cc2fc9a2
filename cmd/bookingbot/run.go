package main

import (
	"context"

	"github.com/DenisKhanov/BookingBot/internal/app/bookingbot"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot, the reminder and the sync jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			app, err := bookingbot.NewApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logrus.WithError(err).Error("Failed to close application")
				}
			}()

			logrus.Info("Starting booking bot")
			return app.Run(ctx)
		},
	}
}
