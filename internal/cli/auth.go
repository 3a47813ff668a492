package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/existflow/taskboard/internal/client"
	"github.com/existflow/taskboard/internal/model"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Sign in to a taskboard server with a one-time code sent by email.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with an emailed code",
	Long: `Sign in with an emailed code.

Examples:
  taskboard auth login --email me@example.com
  taskboard auth login --server https://tasks.example.com`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and end the session",
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE:  runStatus,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().String("email", "", "Email address to sign in with")
	loginCmd.Flags().String("server", "", "Server URL")
	loginCmd.Flags().String("code", "", "Sign-in code (prompted when omitted)")
}

// readLine reads a visible answer from stdin
func readLine(prompt string) string {
	fmt.Print(prompt)
	line, _ := bufio.NewReader(stdin).ReadString('\n')
	return strings.TrimSpace(line)
}

// readSecret reads without echo when stdin is a terminal
func readSecret(prompt string) string {
	fd := int(os.Stdin.Fd())
	if stdin != os.Stdin || !term.IsTerminal(fd) {
		return readLine(prompt)
	}
	fmt.Print(prompt)
	b, _ := term.ReadPassword(fd)
	fmt.Println()
	return strings.TrimSpace(string(b))
}

func runLogin(cmd *cobra.Command, args []string) error {
	c, err := client.NewDefault()
	if err != nil {
		return err
	}

	if server, _ := cmd.Flags().GetString("server"); server != "" {
		if err := c.SetServer(server); err != nil {
			return err
		}
	}

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = readLine("Email: ")
	}
	email = model.NormalizeEmail(email)
	if !model.ValidEmail(email) {
		return fmt.Errorf("invalid email: %q", email)
	}

	ctx, cancel := newContext()
	defer cancel()

	code, _ := cmd.Flags().GetString("code")
	if code == "" {
		fmt.Printf("🔄 Sending a sign-in code to %s...\n", email)
		devCode, err := c.RequestCode(ctx, email)
		if err != nil {
			return err
		}
		fmt.Println("📬 Code sent! Check your email.")
		if devCode != "" {
			fmt.Printf("🔑 Development code: %s\n", devCode)
		}
		code = readSecret("Enter code: ")
	}
	if code == "" {
		return fmt.Errorf("code required")
	}

	if err := c.Verify(ctx, email, code); err != nil {
		return err
	}
	fmt.Printf("%s Signed in as %s\n", success("✓"), email)

	// Pick a workspace so board commands work straight away
	if c.CurrentWorkspace() == "" {
		list, err := c.Workspaces(ctx)
		if err == nil && len(list) > 0 {
			_ = c.UseWorkspace(list[0].ID)
			fmt.Printf("📁 Using workspace: %s\n", list[0].Name)
		} else if err == nil {
			fmt.Println("Create a workspace with: taskboard workspace new \"My Workspace\"")
		}
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	c, err := client.NewDefault()
	if err != nil {
		return err
	}

	if !c.IsLoggedIn() {
		fmt.Println("Not logged in.")
		return nil
	}

	ctx, cancel := newContext()
	defer cancel()
	if err := c.Logout(ctx); err != nil {
		fmt.Printf("%s Server logout failed: %v\n", warning("⚠️"), err)
	}

	fmt.Printf("%s Logged out.\n", success("✓"))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := client.NewDefault()
	if err != nil {
		return err
	}
	creds := c.Credentials()

	fmt.Printf("Server:    %s\n", creds.ServerURL)
	if !c.IsLoggedIn() {
		fmt.Println("Status:    Not logged in")
		return nil
	}
	fmt.Printf("Email:     %s\n", creds.Email)
	fmt.Printf("User ID:   %s\n", creds.UserID)
	if creds.ExpiresAt != "" {
		fmt.Printf("Expires:   %s\n", creds.ExpiresAt)
	}
	if creds.Workspace != "" {
		fmt.Printf("Workspace: %s\n", creds.Workspace)
	}
	fmt.Printf("Status:    %s\n", success("✓ Logged in"))
	return nil
}
