package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultAuthTimeout bounds how long the interactive flow waits for the
// browser redirect before giving up.
const DefaultAuthTimeout = 5 * time.Minute

// Authorizer obtains a fresh authorization code from the resource owner.
// The production implementation blocks on a browser redirect; tests
// substitute a fake that delivers a code or error without any socket.
type Authorizer interface {
	Authorize(ctx context.Context) (code string, err error)
}

// BrowserFlow is the interactive Authorizer. It starts a local callback
// listener, opens the system browser to the provider's authorization page,
// and blocks until the redirect arrives or the timeout elapses.
type BrowserFlow struct {
	clientID       string
	redirectURI    string
	scope          string
	accountsDomain string
	timeout        time.Duration
	openBrowser    func(url string) error
	output         io.Writer
}

// BrowserFlowConfig configures the interactive flow.
type BrowserFlowConfig struct {
	// ClientID identifies the registered API client.
	ClientID string

	// RedirectURI is the callback target; the listener binds its host:port.
	RedirectURI string

	// Scope is the comma-separated scope string to request.
	Scope string

	// AccountsDomain hosts the authorization endpoint.
	AccountsDomain string

	// Timeout bounds the wait for the redirect. Defaults to 5 minutes.
	Timeout time.Duration

	// OpenBrowser overrides browser launching. Defaults to OpenBrowser.
	OpenBrowser func(url string) error

	// Output receives the user-facing instructions. Defaults to stderr so
	// the MCP stdio transport on stdout is never polluted.
	Output io.Writer
}

// NewBrowserFlow creates the interactive authorization flow.
func NewBrowserFlow(cfg BrowserFlowConfig) *BrowserFlow {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultAuthTimeout
	}

	openFn := cfg.OpenBrowser
	if openFn == nil {
		openFn = OpenBrowser
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	return &BrowserFlow{
		clientID:       cfg.ClientID,
		redirectURI:    cfg.RedirectURI,
		scope:          cfg.Scope,
		accountsDomain: strings.TrimSuffix(cfg.AccountsDomain, "/"),
		timeout:        timeout,
		openBrowser:    openFn,
		output:         output,
	}
}

// AuthorizationURL builds the provider authorization URL. access_type=offline
// and prompt=consent are applied unconditionally so a refresh token is issued
// even on repeat consent.
func (f *BrowserFlow) AuthorizationURL(state string) string {
	params := url.Values{
		"scope":         {f.scope},
		"client_id":     {f.clientID},
		"response_type": {"code"},
		"redirect_uri":  {f.redirectURI},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
		"state":         {state},
	}

	return f.accountsDomain + "/oauth/v2/auth?" + params.Encode()
}

// Authorize runs the interactive flow and returns the authorization code.
// The callback listener is started before the browser opens so the redirect
// cannot race it, and the listener socket is released before returning
// regardless of outcome.
func (f *BrowserFlow) Authorize(ctx context.Context) (string, error) {
	state := uuid.NewString()

	server, err := NewCallbackServer(f.redirectURI)
	if err != nil {
		return "", err
	}

	waitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := server.Start(waitCtx); err != nil {
		return "", err
	}
	defer server.Stop()

	authURL := f.AuthorizationURL(state)

	fmt.Fprintln(f.output, strings.Repeat("=", 60))
	fmt.Fprintln(f.output, "ZOHO CRM AUTHENTICATION REQUIRED")
	fmt.Fprintln(f.output, strings.Repeat("=", 60))
	fmt.Fprintln(f.output, "Opening your web browser for Zoho authentication.")
	fmt.Fprintln(f.output, "If the browser doesn't open automatically, please visit:")
	fmt.Fprintln(f.output, authURL)
	fmt.Fprintf(f.output, "Waiting for authorization (timeout: %s)...\n", f.timeout)

	if err := f.openBrowser(authURL); err != nil {
		// Best effort: the user can still follow the printed URL.
		slog.Warn("failed to open browser", "error", err.Error())
	}

	result, err := server.WaitForCallback(waitCtx)
	if err != nil {
		slog.Warn("interactive authorization did not complete", "error", err.Error())
		return "", err
	}

	if result.IsError() {
		authErr := &AuthorizationError{
			Code:        result.Error,
			Description: result.ErrorDescription,
		}
		slog.Warn("authorization rejected by provider",
			"error", result.Error,
			"error_description", result.ErrorDescription,
		)
		return "", authErr
	}

	if result.State != state {
		slog.Warn("authorization state mismatch",
			"expected_len", len(state),
			"received_len", len(result.State),
		)
		return "", errors.New("state mismatch in authorization callback")
	}

	if result.Code == "" {
		return "", errors.New("authorization callback carried no code")
	}

	slog.Info("authorization code received")
	return result.Code, nil
}
