package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chatsync: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "chatsync",
		Short: "Headless chat client: syncs chat timelines against the messaging backend",
		Long: `chatsync logs into the messaging backend, hydrates the local timeline
store from its snapshot, refreshes it over REST, and keeps it current
through the realtime channel.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")

	root.AddCommand(
		newRunCmd(&configFile),
		newChatsCmd(&configFile),
		newSendCmd(&configFile),
	)
	return root
}
