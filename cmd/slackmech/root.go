package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "slackmech",
	Short: "slackmech is a Slack socket-mode bot framework",
	Long: `slackmech connects to Slack over the socket-mode transport and routes
messages, slash commands, interactive actions and view submissions to
registered plugin handlers. Plugins match messages with regular
expressions, keep state in a pluggable storage backend and reply through
the Slack Web API.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add subcommands here
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
