package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"zohocrm/internal/zoho/oauth"
)

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long: `Show the state of the stored Zoho CRM credentials.

This displays whether a token is stored, when it expires, whether a
refresh token is available, and which API domain Zoho issued for this
account.`,
	RunE: runAuthStatus,
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Zoho CRM")
	fmt.Fprintf(out, "  Token file:  %s\n", a.store.Path())

	creds := a.store.Current()
	if creds == nil {
		fmt.Fprintf(out, "  Status:      %s\n", text.FgYellow.Sprint("Not authenticated"))
		fmt.Fprintln(out, "               Run: zohocrm auth login")
		return nil
	}

	if creds.Valid() {
		fmt.Fprintf(out, "  Status:      %s\n", text.FgGreen.Sprint("Authenticated"))
	} else {
		fmt.Fprintf(out, "  Status:      %s\n", text.FgYellow.Sprint("Token expired"))
	}
	fmt.Fprintf(out, "  Expires:     %s\n", formatExpiry(creds.ExpiresAt))

	if creds.RefreshToken != "" {
		fmt.Fprintf(out, "  Refresh:     %s\n", text.FgGreen.Sprint("Available"))
	} else {
		fmt.Fprintf(out, "  Refresh:     %s\n", text.FgYellow.Sprint("Not available (re-auth required on expiry)"))
	}

	fmt.Fprintf(out, "  API domain:  %s\n", creds.APIDomain)
	if creds.Scope != "" {
		fmt.Fprintf(out, "  Scope:       %s\n", creds.Scope)
	}
	return nil
}

// formatExpiry renders an expiry time with its direction relative to now.
// Tokens inside the renewal margin are shown as expiring even when the
// wall-clock expiry has not passed yet.
func formatExpiry(expiresAt time.Time) string {
	if expiresAt.IsZero() {
		return "unknown"
	}

	stamp := expiresAt.Local().Format(time.RFC1123)
	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		return fmt.Sprintf("%s (%s ago)", stamp, (-remaining).Round(time.Second))
	}
	if remaining <= oauth.ExpiryMargin {
		return fmt.Sprintf("%s (in %s, renewal due)", stamp, remaining.Round(time.Second))
	}
	return fmt.Sprintf("%s (in %s)", stamp, remaining.Round(time.Second))
}
