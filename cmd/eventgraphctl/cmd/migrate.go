package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Open the store, applying its schema migration, then exit",
	RunE: func(c *cobra.Command, args []string) error {
		_, closer := mustApp()
		defer closer()
		fmt.Println("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
