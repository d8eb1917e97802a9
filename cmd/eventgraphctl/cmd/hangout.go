package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hangouts-inviter/eventgraph/internal/model"
	"github.com/hangouts-inviter/eventgraph/internal/timeutil"
	hangoutSvc "github.com/hangouts-inviter/eventgraph/service/hangout"
)

var hangoutCmd = &cobra.Command{
	Use:   "hangout",
	Short: "Hangout Service operations",
}

var hangoutCreateCmd = &cobra.Command{
	Use:   "create TITLE",
	Short: "Create a hangout, either at an exact time or a fuzzy period",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		actor, _ := c.Flags().GetString("actor")
		start, _ := c.Flags().GetString("start")
		end, _ := c.Flags().GetString("end")
		fuzzy, _ := c.Flags().GetString("fuzzy")
		public, _ := c.Flags().GetBool("public")
		groups, _ := c.Flags().GetStringSlice("group")
		invited, _ := c.Flags().GetStringSlice("invite")

		var resolved timeutil.Resolved
		var err error
		if fuzzy != "" {
			resolved, err = timeutil.Fuzzy(timeutil.Granularity(fuzzy), start)
		} else {
			resolved, err = timeutil.Exact(start, end)
		}
		if err != nil {
			return err
		}
		visibility := model.VisibilityPrivate
		if public {
			visibility = model.VisibilityPublic
		}

		a, closer := mustApp()
		defer closer()
		h, err := a.Hangout.Create(context.Background(), actor, hangoutSvc.CreateInput{
			Title:            args[0],
			Time:             resolved,
			Visibility:       visibility,
			AssociatedGroups: groups,
			InvitedUsers:     invited,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created hangout %s (version %d)\n", h.HangoutID, h.Version)
		return nil
	},
}

var hangoutDetailCmd = &cobra.Command{
	Use:   "detail HANGOUT_ID",
	Short: "Load a hangout's full detail in a single partition query",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		a, closer := mustApp()
		defer closer()
		d, err := a.Hangout.GetDetail(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("hangout %s %q polls=%d options=%d votes=%d cars=%d riders=%d attrs=%d interests=%d participations=%d offers=%d\n",
			d.Hangout.HangoutID, d.Hangout.Title, len(d.Polls), len(d.Options), len(d.Votes),
			len(d.Cars), len(d.Riders), len(d.Attributes), len(d.Interests), len(d.Participations), len(d.Offers))
		return nil
	},
}

var hangoutDeleteCmd = &cobra.Command{
	Use:   "delete HANGOUT_ID",
	Short: "Delete a hangout and every pointer it fanned out to",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		actor, _ := c.Flags().GetString("actor")
		a, closer := mustApp()
		defer closer()
		return a.Hangout.Delete(context.Background(), actor, args[0])
	},
}

func init() {
	hangoutCreateCmd.Flags().String("actor", "", "creating user id")
	hangoutCreateCmd.Flags().String("start", "", "ISO-8601 start time, or fuzzy period start when --fuzzy is set")
	hangoutCreateCmd.Flags().String("end", "", "ISO-8601 end time (ignored when --fuzzy is set)")
	hangoutCreateCmd.Flags().String("fuzzy", "", "fuzzy granularity (morning|afternoon|evening|night|day|weekend)")
	hangoutCreateCmd.Flags().Bool("public", false, "hangout is publicly visible")
	hangoutCreateCmd.Flags().StringSlice("group", nil, "associated group id (repeatable)")
	hangoutCreateCmd.Flags().StringSlice("invite", nil, "invited user id (repeatable)")
	hangoutCreateCmd.MarkFlagRequired("actor")
	hangoutCreateCmd.MarkFlagRequired("start")

	hangoutDeleteCmd.Flags().String("actor", "", "acting user id")
	hangoutDeleteCmd.MarkFlagRequired("actor")

	hangoutCmd.AddCommand(hangoutCreateCmd, hangoutDetailCmd, hangoutDeleteCmd)
	rootCmd.AddCommand(hangoutCmd)
}
