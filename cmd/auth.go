package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Zoho CRM authentication",
	Long: `Manage OAuth credentials for Zoho CRM.

The auth command group provides subcommands to run the browser consent
flow, inspect the stored credentials, and revoke them.

Examples:
  zohocrm auth login     # Run the OAuth browser flow
  zohocrm auth status    # Show credential status
  zohocrm auth logout    # Revoke and clear stored tokens`,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke authentication and clear stored tokens",
	Long: `Revoke the refresh token with Zoho and delete the token file.

The local token file is cleared even when the provider-side revocation
fails, so the next command starts from a clean unauthenticated state.`,
	RunE: runAuthLogout,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	if a.store.Current() == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored credentials to revoke.")
		return nil
	}

	if err := a.supervisor.Revoke(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear stored tokens: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Authentication revoked and tokens cleared.")
	return nil
}
