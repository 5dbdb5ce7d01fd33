package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Zoho CRM via the browser",
	Long: `Run the OAuth browser consent flow and store the resulting tokens.

This opens the Zoho accounts consent page in your browser. After you
approve access, the tokens are exchanged and written to the token file
so subsequent commands and the MCP server can use them.`,
	RunE: runAuthLogin,
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := buildApp()
	if err != nil {
		return err
	}

	if creds := a.supervisor.Credentials(); creds.Valid() {
		fmt.Fprintln(cmd.OutOrStdout(), "Already authenticated with a valid token. Run 'zohocrm auth status' for details.")
		return nil
	}

	code, err := a.flow.Authorize(ctx)
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Exchanging authorization code..."
	s.Start()
	token, err := a.exchanger.ExchangeCode(ctx, code)
	s.Stop()
	if err != nil {
		return err
	}

	creds, err := a.store.Save(token)
	if err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful. Tokens stored in %s\n", a.store.Path())
	fmt.Fprintf(cmd.OutOrStdout(), "Access token valid until %s\n", creds.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}
