package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var feedCmd = &cobra.Command{
	Use:   "feed USER_ID",
	Short: "Assemble a user's chronological feed across their own and group partitions",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		after, _ := c.Flags().GetInt64("after")
		limit, _ := c.Flags().GetInt("limit")
		a, closer := mustApp()
		defer closer()
		pointers, err := a.Feed.ListForUser(context.Background(), args[0], after, limit)
		if err != nil {
			return err
		}
		for _, p := range pointers {
			fmt.Printf("%d\t%s\t%s\n", p.StartTimestamp, p.HangoutID, p.Title)
		}
		return nil
	},
}

func init() {
	feedCmd.Flags().Int64("after", 0, "only hangouts starting strictly after this unix timestamp")
	feedCmd.Flags().Int("limit", 0, "max results (clamped to the configured page size)")
	rootCmd.AddCommand(feedCmd)
}
