package oauth

import (
	"errors"
	"fmt"
)

// ErrNoRefreshToken is returned by ExchangeRefresh when no refresh token is
// held. This is a local precondition check, not a network failure, and the
// supervisor treats it as a signal to escalate to the interactive flow.
var ErrNoRefreshToken = errors.New("no refresh token available")

// ErrStoreCorrupt indicates the durable credential record could not be parsed.
// Callers recover by treating the process as unauthenticated.
var ErrStoreCorrupt = errors.New("stored credentials are unreadable")

// ErrAuthTimeout is returned when the interactive authorization flow does not
// receive a callback within the configured timeout.
var ErrAuthTimeout = errors.New("authorization timed out waiting for callback")

// ErrNoToken is returned by Headers when no valid access token could be
// obtained through any of the refresh or interactive escalation paths.
var ErrNoToken = errors.New("no valid access token available")

// ExchangeError is returned when the provider's token endpoint answers a
// non-2xx status. It carries the status and response body for diagnosis.
type ExchangeError struct {
	// Op is the exchange operation that failed: "authorization_code",
	// "refresh_token", or "revoke".
	Op string

	// StatusCode is the HTTP status returned by the token endpoint.
	StatusCode int

	// Body is the raw response body.
	Body string
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s exchange failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// AuthorizationError is returned when the provider redirects back with an
// error instead of an authorization code.
type AuthorizationError struct {
	// Code is the OAuth error code, e.g. "access_denied".
	Code string

	// Description is the provider's human-readable error description.
	Description string
}

// Error implements the error interface.
func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s - %s", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}
