package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

// newRootCommand creates the bookingbot command tree.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookingbot",
		Short: "Telegram bot for booking appointments through Rubitime",
		Long: `Telegram bot that books appointments through Rubitime.

Configuration is read from bot.env and the process environment.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newDirectoryCommand())

	return cmd
}
