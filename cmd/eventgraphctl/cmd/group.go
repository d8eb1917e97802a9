package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hangouts-inviter/eventgraph/internal/domainerr"
	"github.com/hangouts-inviter/eventgraph/internal/model"
	groupSvc "github.com/hangouts-inviter/eventgraph/service/group"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Group Service operations",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a group with the founder as its first admin",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		actor, _ := c.Flags().GetString("actor")
		public, _ := c.Flags().GetBool("public")
		image, _ := c.Flags().GetString("image")
		a, closer := mustApp()
		defer closer()
		g, err := a.Groups.CreateGroup(context.Background(), actor, args[0], public, image)
		if err != nil {
			return err
		}
		fmt.Printf("created group %s (version %d)\n", g.GroupID, g.Version)
		return nil
	},
}

var groupFeedCmd = &cobra.Command{
	Use:   "feed GROUP_ID",
	Short: "Fetch the group's assembled feed (metadata, members, hangout/series pointers)",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		ifNoneMatch, _ := c.Flags().GetString("if-none-match")
		a, closer := mustApp()
		defer closer()
		feed, err := a.Groups.GetFeed(context.Background(), args[0], ifNoneMatch)
		if domainerr.Is(err, domainerr.Unchanged) {
			fmt.Println("304 Not Modified")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("group %s %q etag=%s members=%d hangouts=%d series=%d\n",
			feed.Group.GroupID, feed.Group.GroupName, groupSvc.ETag(feed.Group.GroupID, feed.Validator),
			len(feed.Members), len(feed.Hangouts), len(feed.Series))
		return nil
	},
}

var groupAddMemberCmd = &cobra.Command{
	Use:   "add-member GROUP_ID USER_ID",
	Short: "Add a member to a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		actor, _ := c.Flags().GetString("actor")
		admin, _ := c.Flags().GetBool("admin")
		role := model.RoleMember
		if admin {
			role = model.RoleAdmin
		}
		a, closer := mustApp()
		defer closer()
		return a.Groups.AddMember(context.Background(), actor, args[0], args[1], role)
	},
}

var groupRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member GROUP_ID USER_ID",
	Short: "Remove a member from a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		actor, _ := c.Flags().GetString("actor")
		a, closer := mustApp()
		defer closer()
		return a.Groups.RemoveMember(context.Background(), actor, args[0], args[1])
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete GROUP_ID",
	Short: "Delete a group and its own items (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		actor, _ := c.Flags().GetString("actor")
		a, closer := mustApp()
		defer closer()
		return a.Groups.DeleteGroup(context.Background(), actor, args[0])
	},
}

func init() {
	groupCreateCmd.Flags().String("actor", "", "founder user id")
	groupCreateCmd.Flags().Bool("public", false, "group is publicly discoverable")
	groupCreateCmd.Flags().String("image", "", "main image path")

	groupFeedCmd.Flags().String("if-none-match", "", "ETag from a prior feed fetch; a match short-circuits to 304")
	groupCreateCmd.MarkFlagRequired("actor")

	groupAddMemberCmd.Flags().String("actor", "", "acting user id")
	groupAddMemberCmd.Flags().Bool("admin", false, "add as admin instead of member")
	groupAddMemberCmd.MarkFlagRequired("actor")

	groupRemoveMemberCmd.Flags().String("actor", "", "acting user id")
	groupRemoveMemberCmd.MarkFlagRequired("actor")

	groupDeleteCmd.Flags().String("actor", "", "acting user id")
	groupDeleteCmd.MarkFlagRequired("actor")

	groupCmd.AddCommand(groupCreateCmd, groupFeedCmd, groupAddMemberCmd, groupRemoveMemberCmd, groupDeleteCmd)
	rootCmd.AddCommand(groupCmd)
}
