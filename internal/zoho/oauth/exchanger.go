package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultHTTPTimeout bounds outbound calls to the provider when no custom
// HTTP client is supplied.
const DefaultHTTPTimeout = 30 * time.Second

// Exchanger converts authorization codes and refresh tokens into fresh
// access credentials via the provider's token endpoint, and revokes refresh
// tokens via the revoke endpoint. It performs no retries: a timeout or
// network error is surfaced to the caller.
type Exchanger struct {
	clientID       string
	clientSecret   string
	redirectURI    string
	accountsDomain string
	httpClient     *http.Client
}

// ExchangerConfig configures the token exchanger.
type ExchangerConfig struct {
	// ClientID and ClientSecret identify the registered API client.
	ClientID     string
	ClientSecret string

	// RedirectURI is sent with authorization_code grants. It must match the
	// URI used in the authorization request.
	RedirectURI string

	// AccountsDomain hosts the token and revoke endpoints.
	AccountsDomain string

	// HTTPClient is an optional custom HTTP client. A default client with a
	// bounded timeout is used when nil.
	HTTPClient *http.Client
}

// NewExchanger creates a token exchanger.
func NewExchanger(cfg ExchangerConfig) *Exchanger {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	return &Exchanger{
		clientID:       cfg.ClientID,
		clientSecret:   cfg.ClientSecret,
		redirectURI:    cfg.RedirectURI,
		accountsDomain: strings.TrimSuffix(cfg.AccountsDomain, "/"),
		httpClient:     httpClient,
	}
}

// ExchangeCode exchanges an authorization code for tokens.
func (e *Exchanger) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {e.clientID},
		"client_secret": {e.clientSecret},
		"redirect_uri":  {e.redirectURI},
	}

	return e.exchange(ctx, "authorization_code", data)
}

// ExchangeRefresh mints a new access token from a refresh token. An empty
// refresh token fails immediately with ErrNoRefreshToken; no network call is
// made.
func (e *Exchanger) ExchangeRefresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {e.clientID},
		"client_secret": {e.clientSecret},
	}

	return e.exchange(ctx, "refresh_token", data)
}

// Revoke invalidates a refresh token server-side. A non-2xx answer is
// returned as an ExchangeError; callers treat it as a warning since local
// cleanup proceeds regardless.
func (e *Exchanger) Revoke(ctx context.Context, refreshToken string) error {
	data := url.Values{
		"token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.revokeEndpoint(), strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ExchangeError{Op: "revoke", StatusCode: resp.StatusCode, Body: string(body)}
	}

	return nil
}

// exchange performs a form-encoded POST against the token endpoint and
// parses the credential response.
func (e *Exchanger) exchange(ctx context.Context, op string, data url.Values) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenEndpoint(), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ExchangeError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
		APIDomain    string `json:"api_domain"`
		Scope        string `json:"scope"`
	}

	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenResp.TokenType,
	}

	if tokenResp.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	if tokenResp.APIDomain != "" || tokenResp.Scope != "" {
		token = token.WithExtra(map[string]interface{}{
			"api_domain": tokenResp.APIDomain,
			"scope":      tokenResp.Scope,
		})
	}

	slog.Debug("token exchange succeeded",
		"grant_type", op,
		"expires_in", tokenResp.ExpiresIn,
		"has_refresh_token", tokenResp.RefreshToken != "",
	)

	return token, nil
}

func (e *Exchanger) tokenEndpoint() string {
	return e.accountsDomain + "/oauth/v2/token"
}

func (e *Exchanger) revokeEndpoint() string {
	return e.accountsDomain + "/oauth/v2/token/revoke"
}
