package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"zohocrm/internal/config"
	"zohocrm/internal/zoho/oauth"
)

// Exit codes for CLI commands.
// These follow common conventions so scripts can react to auth failures.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates authentication is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the OAuth flow failed.
	ExitCodeAuthFailed = 3
)

// rootCmd represents the base command for the zohocrm application.
var rootCmd = &cobra.Command{
	Use:   "zohocrm",
	Short: "Zoho CRM MCP server with managed OAuth credentials",
	Long: `zohocrm exposes Zoho CRM as MCP tools for AI assistants.

It manages the full OAuth credential lifecycle: a browser-based consent
flow for the first authorization, persisted tokens with automatic refresh,
and revocation. Run 'zohocrm serve' to start the MCP server over stdio,
or use the 'auth' commands to manage credentials directly.`,
	// SilenceUsage keeps error output clean for errors the application
	// already reports itself.
	SilenceUsage: true,
}

// logLevel is the global log verbosity flag.
var logLevel string

// SetVersion sets the version for the root command.
// Called from the main package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "zohocrm version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	if errors.Is(err, config.ErrMissingCredentials) ||
		errors.Is(err, oauth.ErrNoToken) ||
		errors.Is(err, oauth.ErrNoRefreshToken) {
		return ExitCodeAuthRequired
	}

	if errors.Is(err, oauth.ErrAuthTimeout) {
		return ExitCodeAuthFailed
	}

	var authErr *oauth.AuthorizationError
	if errors.As(err, &authErr) {
		return ExitCodeAuthFailed
	}

	var exchangeErr *oauth.ExchangeError
	if errors.As(err, &exchangeErr) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
}
