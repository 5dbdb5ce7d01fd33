package oauth

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// TokenExchanger is the subset of the Exchanger the supervisor depends on.
// Declared as an interface so tests can count and fail exchanges.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	ExchangeRefresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// Supervisor guarantees callers always receive a currently valid access
// token. It validates against the store's cached expiry, refreshes on
// staleness, and escalates to the interactive authorization flow when the
// refresh path is unavailable or fails.
//
// Renewal is deduplicated through a singleflight group: near-simultaneous
// expirations trigger one refresh exchange and at most one interactive flow,
// never competing ones.
type Supervisor struct {
	store      *Store
	exchanger  TokenExchanger
	authorizer Authorizer
	group      singleflight.Group
}

// NewSupervisor creates a supervisor over the given store, exchanger, and
// interactive authorizer. The supervisor is constructed explicitly and passed
// to whichever component issues API calls; there is no package-level
// singleton.
func NewSupervisor(store *Store, exchanger TokenExchanger, authorizer Authorizer) *Supervisor {
	return &Supervisor{
		store:      store,
		exchanger:  exchanger,
		authorizer: authorizer,
	}
}

// ValidAccessToken returns an access token that is valid for at least the
// expiry margin. While the cached token is fresh no network call is made.
// When every renewal path is exhausted it returns an empty token and the
// terminal error; callers that can degrade treat that as "authentication
// unavailable" rather than aborting.
func (s *Supervisor) ValidAccessToken(ctx context.Context) (string, error) {
	if creds := s.store.Current(); creds.Valid() {
		return creds.AccessToken, nil
	}

	v, err, _ := s.group.Do("renew", func() (interface{}, error) {
		return s.renew(ctx)
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// renew runs the staleness escalation chain: refresh exchange first, then the
// interactive authorization flow. A failed exchange never mutates the stored
// credential set; only a successful Save does.
func (s *Supervisor) renew(ctx context.Context) (string, error) {
	// Another caller may have renewed while we waited on the singleflight.
	if creds := s.store.Current(); creds.Valid() {
		return creds.AccessToken, nil
	}

	slog.Info("access token expired or missing, attempting refresh")

	token, refreshErr := s.exchanger.ExchangeRefresh(ctx, s.store.RefreshToken())
	if refreshErr == nil {
		creds, err := s.store.Save(token)
		if err != nil {
			return "", err
		}
		return creds.AccessToken, nil
	}

	slog.Warn("token refresh failed, escalating to interactive authorization",
		"error", refreshErr.Error(),
	)

	code, err := s.authorizer.Authorize(ctx)
	if err != nil {
		return "", err
	}

	token, err = s.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return "", err
	}

	creds, err := s.store.Save(token)
	if err != nil {
		return "", err
	}

	slog.Info("interactive authorization completed")
	return creds.AccessToken, nil
}

// Headers returns the authorization headers for API requests. Unlike
// ValidAccessToken's soft failure, this fails loudly with ErrNoToken when no
// token could be obtained: headers are meaningless without one.
func (s *Supervisor) Headers(ctx context.Context) (map[string]string, error) {
	token, err := s.ValidAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoToken, err)
	}
	if token == "" {
		return nil, ErrNoToken
	}

	return map[string]string{
		"Authorization": TokenScheme + " " + token,
		"Content-Type":  "application/json",
	}, nil
}

// APIDomain returns the provider-issued API base URL cached with the
// credentials, or the configured default before the first grant.
func (s *Supervisor) APIDomain() string {
	return s.store.APIDomain()
}

// Credentials returns a copy of the current credential set, or nil when the
// process is unauthenticated.
func (s *Supervisor) Credentials() *CredentialSet {
	return s.store.Current()
}

// Revoke invalidates the refresh token server-side and purges local state.
// A failed revoke call is logged and does not block local cleanup: the goal
// is that this process no longer considers itself authenticated.
func (s *Supervisor) Revoke(ctx context.Context) error {
	if refresh := s.store.RefreshToken(); refresh != "" {
		if err := s.exchanger.Revoke(ctx, refresh); err != nil {
			slog.Warn("token revocation failed, proceeding with local cleanup",
				"error", err.Error(),
			)
		}
	}

	if err := s.store.Clear(); err != nil {
		return err
	}

	slog.Info("credentials revoked")
	return nil
}
