package oauth

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenScheme is the authorization scheme Zoho expects in API requests.
// Zoho uses its own scheme instead of the usual "Bearer".
const TokenScheme = "Zoho-oauthtoken"

// ExpiryMargin is subtracted from the stored expiry when deciding whether the
// access token is still usable. It absorbs clock skew and in-flight request
// latency so a token is refreshed before it actually lapses.
const ExpiryMargin = 5 * time.Minute

// CredentialSet is the single persisted credential entity: the access token,
// the refresh token used to mint new access tokens, and the metadata returned
// alongside them. Exactly one CredentialSet is live per process.
type CredentialSet struct {
	// AccessToken is the short-lived bearer credential for API calls. Opaque.
	AccessToken string `json:"access_token"`

	// RefreshToken is the long-lived credential used to mint new access
	// tokens. Absent only before the first grant.
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is when the access token expires, computed at save time as
	// now + the provider-declared lifetime.
	ExpiresAt time.Time `json:"expires_at"`

	// APIDomain is the provider-issued base URL for API calls. It may change
	// between exchanges and is cached with the token, never derived from
	// configuration after the first grant.
	APIDomain string `json:"api_domain,omitempty"`

	// TokenType is echoed from the provider, typically "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// Scope is echoed from the provider.
	Scope string `json:"scope,omitempty"`
}

// Valid reports whether the access token can still be used without a network
// call. The expiry margin guards against clock skew and request latency.
func (c *CredentialSet) Valid() bool {
	if c == nil || c.AccessToken == "" || c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(ExpiryMargin).Before(c.ExpiresAt)
}

// ToOAuth2Token converts the credential set to an oauth2.Token, carrying the
// Zoho-specific api_domain in the token's extra data.
func (c *CredentialSet) ToOAuth2Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.ExpiresAt,
	}

	if c.APIDomain != "" || c.Scope != "" {
		token = token.WithExtra(map[string]interface{}{
			"api_domain": c.APIDomain,
			"scope":      c.Scope,
		})
	}

	return token
}

// extraString extracts a string value from an oauth2.Token's extra data.
func extraString(token *oauth2.Token, key string) string {
	if v := token.Extra(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
