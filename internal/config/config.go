package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingCredentials is returned when the Zoho client id or client secret
// is not configured. This is fatal at startup: nothing in this process can
// authenticate without them.
var ErrMissingCredentials = errors.New("ZOHO_CLIENT_ID and ZOHO_CLIENT_SECRET must be set")

// Defaults for configuration values that are not set in the environment.
const (
	DefaultRedirectURI    = "http://localhost:8080/callback"
	DefaultScope          = "ZohoCRM.modules.ALL,ZohoCRM.settings.ALL,ZohoCRM.users.ALL"
	DefaultTokenFile      = ".zoho_tokens.json"
	DefaultAPIDomain      = "https://www.zohoapis.com"
	DefaultAccountsDomain = "https://accounts.zoho.com"
	DefaultAPIVersion     = "v2"
	DefaultServerName     = "ZohoCRM"

	// DefaultRequestTimeout bounds every outbound HTTP call to Zoho.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultAuthTimeout bounds the interactive browser authorization flow.
	DefaultAuthTimeout = 5 * time.Minute
)

// Config holds the environment-sourced configuration for the server.
// All values are read from ZOHO_-prefixed environment variables.
type Config struct {
	// ClientID and ClientSecret identify the registered Zoho API client.
	ClientID     string
	ClientSecret string

	// RedirectURI is the OAuth redirect target. The local callback listener
	// binds to its host:port and serves its path.
	RedirectURI string

	// Scope is the comma-separated Zoho scope string requested during
	// authorization.
	Scope string

	// TokenFile is the path of the durable credential record.
	TokenFile string

	// APIDomain is the default API base URL, used until the provider issues
	// a (possibly different) api_domain with a token response.
	APIDomain string

	// AccountsDomain hosts the authorization, token, and revoke endpoints.
	AccountsDomain string

	// APIVersion selects the CRM REST API version segment.
	APIVersion string

	// ServerName is the MCP server name announced to clients.
	ServerName string

	// RequestTimeout bounds outbound HTTP calls.
	RequestTimeout time.Duration

	// AuthTimeout bounds the interactive authorization flow.
	AuthTimeout time.Duration
}

// Load reads the configuration from the environment and validates it.
// Missing client credentials yield ErrMissingCredentials; everything else
// falls back to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ZOHO")
	v.AutomaticEnv()

	v.SetDefault("redirect_uri", DefaultRedirectURI)
	v.SetDefault("scope", DefaultScope)
	v.SetDefault("token_file", DefaultTokenFile)
	v.SetDefault("api_domain", DefaultAPIDomain)
	v.SetDefault("accounts_domain", DefaultAccountsDomain)
	v.SetDefault("api_version", DefaultAPIVersion)
	v.SetDefault("server_name", DefaultServerName)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("auth_timeout", DefaultAuthTimeout)

	cfg := &Config{
		ClientID:       v.GetString("client_id"),
		ClientSecret:   v.GetString("client_secret"),
		RedirectURI:    v.GetString("redirect_uri"),
		Scope:          v.GetString("scope"),
		TokenFile:      v.GetString("token_file"),
		APIDomain:      v.GetString("api_domain"),
		AccountsDomain: v.GetString("accounts_domain"),
		APIVersion:     v.GetString("api_version"),
		ServerName:     v.GetString("server_name"),
		RequestTimeout: durationSetting(v, "request_timeout"),
		AuthTimeout:    durationSetting(v, "auth_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// durationSetting reads a timeout that may be given either as a bare
// number of seconds (ZOHO_REQUEST_TIMEOUT=30) or as a Go duration string
// such as "45s".
func durationSetting(v *viper.Viper, key string) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return v.GetDuration(key)
}

// Validate checks the configuration for values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}

	if _, err := url.Parse(c.RedirectURI); err != nil {
		return fmt.Errorf("invalid redirect URI %q: %w", c.RedirectURI, err)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}

	if c.AuthTimeout <= 0 {
		return fmt.Errorf("auth timeout must be positive, got %s", c.AuthTimeout)
	}

	return nil
}
