package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/model"
)

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Share a workspace by email",
}

var inviteSendCmd = &cobra.Command{
	Use:   "send [email...]",
	Short: "Invite people to the current workspace",
	Long: `Invite people to the current workspace. Addresses may also be given
comma separated.

Examples:
  taskboard invite send ana@example.com bo@example.com
  taskboard invite send "ana@example.com, bo@example.com"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInviteSend,
}

var inviteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List invitations of the current workspace",
	RunE:    runInviteList,
}

var invitePendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List invitations waiting for you",
	RunE:  runInvitePending,
}

var inviteAcceptCmd = &cobra.Command{
	Use:   "accept [invitation]",
	Short: "Accept an invitation and join the workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runInviteAccept,
}

var inviteRevokeCmd = &cobra.Command{
	Use:   "revoke [invitation]",
	Short: "Withdraw an invitation",
	Args:  cobra.ExactArgs(1),
	RunE:  runInviteRevoke,
}

func init() {
	inviteCmd.AddCommand(inviteSendCmd)
	inviteCmd.AddCommand(inviteListCmd)
	inviteCmd.AddCommand(invitePendingCmd)
	inviteCmd.AddCommand(inviteAcceptCmd)
	inviteCmd.AddCommand(inviteRevokeCmd)
}

// splitEmails flattens comma or space separated addresses
func splitEmails(args []string) []string {
	var out []string
	for _, a := range args {
		for _, part := range strings.FieldsFunc(a, func(r rune) bool { return r == ',' || r == ' ' || r == ';' }) {
			if e := model.NormalizeEmail(part); e != "" {
				out = append(out, e)
			}
		}
	}
	return out
}

func runInviteSend(cmd *cobra.Command, args []string) error {
	emails := splitEmails(args)
	for _, e := range emails {
		if !model.ValidEmail(e) {
			return fmt.Errorf("invalid email: %q", e)
		}
	}

	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()
	wsID, err := workspaceID(ctx, c)
	if err != nil {
		return err
	}

	sent, err := c.Invite(ctx, wsID, emails)
	if err != nil {
		return fmt.Errorf("failed to send invitations: %w", err)
	}
	for _, inv := range sent {
		fmt.Printf("%s Invited %s\n", success("✉"), inv.Email)
	}
	if skipped := len(emails) - len(sent); skipped > 0 {
		fmt.Println(muted(fmt.Sprintf("%d already invited", skipped)))
	}
	return nil
}

func printInvitations(list []model.Invitation, showWorkspace bool) {
	fmt.Println()
	for _, inv := range list {
		extra := string(inv.Status)
		if showWorkspace {
			extra = "from " + inv.InviterEmail
		}
		fmt.Printf("  %-10s  %-30s  %s\n", shortID(inv.ID), inv.Email, muted(extra))
	}
	fmt.Println()
}

func runInviteList(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()
	wsID, err := workspaceID(ctx, c)
	if err != nil {
		return err
	}

	list, err := c.Invitations(ctx, wsID)
	if err != nil {
		return fmt.Errorf("failed to list invitations: %w", err)
	}
	if len(list) == 0 {
		fmt.Println("No invitations.")
		return nil
	}
	printInvitations(list, false)
	return nil
}

func runInvitePending(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	list, err := c.PendingInvitations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list invitations: %w", err)
	}
	if len(list) == 0 {
		fmt.Println("No pending invitations.")
		return nil
	}
	printInvitations(list, true)
	fmt.Println("Accept one with: taskboard invite accept <id>")
	return nil
}

func runInviteAccept(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	list, err := c.PendingInvitations(ctx)
	if err != nil {
		return err
	}
	inv, err := match(list, args[0], "invitation",
		func(i model.Invitation) string { return i.ID },
		func(i model.Invitation) string { return i.InviterEmail })
	if err != nil {
		return err
	}

	accepted, err := c.AcceptInvitation(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to accept invitation: %w", err)
	}
	fmt.Printf("%s Joined workspace %s\n", success("✓"), shortID(accepted.WorkspaceID))
	if c.CurrentWorkspace() == "" {
		if err := c.UseWorkspace(accepted.WorkspaceID); err == nil {
			fmt.Println("📁 Now using it as the current workspace")
		}
	}
	return nil
}

func runInviteRevoke(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()
	wsID, err := workspaceID(ctx, c)
	if err != nil {
		return err
	}

	list, err := c.Invitations(ctx, wsID)
	if err != nil {
		return err
	}
	inv, err := match(list, args[0], "invitation",
		func(i model.Invitation) string { return i.ID },
		func(i model.Invitation) string { return i.Email })
	if err != nil {
		return err
	}

	if !confirm(cmd.OutOrStdout(), fmt.Sprintf("Revoke the invitation for %s?", inv.Email)) {
		fmt.Println("Cancelled.")
		return nil
	}
	if err := c.DeleteInvitation(ctx, wsID, inv.ID); err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	fmt.Printf("🗑️  Revoked invitation for %s\n", inv.Email)
	return nil
}
