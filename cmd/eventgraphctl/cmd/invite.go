package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Invite Code Service operations",
}

var inviteGenerateCmd = &cobra.Command{
	Use:   "generate GROUP_ID",
	Short: "Mint a fresh invite code for a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		a, closer := mustApp()
		defer closer()
		code, err := a.Invites.Generate(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(code)
		return nil
	},
}

var invitePreviewCmd = &cobra.Command{
	Use:   "preview CODE",
	Short: "Preview a code's group without redeeming it (rate-limited, no auth required)",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		caller, _ := c.Flags().GetString("caller")
		a, closer := mustApp()
		defer closer()
		p, err := a.Invites.Preview(context.Background(), caller, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("group %q public=%v\n", p.GroupName, p.IsPublic)
		return nil
	},
}

var inviteRedeemCmd = &cobra.Command{
	Use:   "redeem CODE USER_ID",
	Short: "Redeem a code, joining the user to its group (idempotent)",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		a, closer := mustApp()
		defer closer()
		gid, err := a.Invites.Redeem(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("joined group %s\n", gid)
		return nil
	},
}

var inviteRevokeCmd = &cobra.Command{
	Use:   "revoke CODE",
	Short: "Revoke an invite code outright",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		a, closer := mustApp()
		defer closer()
		return a.Invites.Revoke(context.Background(), args[0])
	},
}

func init() {
	invitePreviewCmd.Flags().String("caller", "anonymous", "rate-limit bucket key for the previewing caller")

	inviteCmd.AddCommand(inviteGenerateCmd, invitePreviewCmd, inviteRedeemCmd, inviteRevokeCmd)
	rootCmd.AddCommand(inviteCmd)
}
