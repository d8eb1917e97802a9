// Package cmd implements the eventgraphctl subcommands, one file per
// aggregate, following scalytics-KafClaw's cmd/kafclaw/cmd layout: a
// package-scope rootCmd that subcommand files register themselves onto
// via init().
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eventgraphctl",
	Short: "Operate the event-graph store directly, aggregate by aggregate",
	Long: "eventgraphctl wires the wide-key store and its repositories/services\n" +
		"and invokes them the way an embedding service would, since the core\n" +
		"exposes an aggregate-rooted API rather than HTTP.",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
