package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"zohocrm/internal/mcpserver"
	"zohocrm/internal/zoho/oauth"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Zoho CRM MCP server on stdio",
	Long: `Start the MCP server exposing Zoho CRM tools over stdio.

The server registers tools for records, metadata, users, and the
organization, plus authentication tools to run or revoke the OAuth flow.
Credentials are loaded from the token file and refreshed automatically;
when no usable credentials exist the first tool call that needs them
opens a browser window for consent.

The token file is watched for external changes, so tokens written by
another process (for example 'zohocrm auth login') are picked up without
a restart.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	watcher := oauth.NewCredentialWatcher(a.store)
	if err := watcher.Start(); err != nil {
		slog.Warn("Credential file watching unavailable", "error", err)
	} else {
		defer watcher.Stop()
	}

	server := mcpserver.NewServer(mcpserver.Config{
		Name:        a.cfg.ServerName,
		Version:     GetVersion(),
		CRM:         a.crmClient(),
		Credentials: a.supervisor,
	})

	slog.Info("Starting MCP server on stdio",
		"server_name", a.cfg.ServerName,
		"token_file", a.store.Path(),
	)
	return server.Start(cmd.Context())
}
