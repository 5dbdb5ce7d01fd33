package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIVersion is the CRM REST API version used when none is configured.
const DefaultAPIVersion = "v2"

// DefaultTimeout bounds outbound CRM API calls when no custom HTTP client is
// supplied.
const DefaultTimeout = 30 * time.Second

// CredentialSource supplies the two things every CRM request needs: the
// authorization headers and the provider-issued API base URL. The OAuth
// supervisor satisfies this interface.
type CredentialSource interface {
	Headers(ctx context.Context) (map[string]string, error)
	APIDomain() string
}

// Client is the Zoho CRM REST API client. It is a stateless mapping from
// method calls to authenticated HTTP requests; all credential state lives
// behind the CredentialSource.
type Client struct {
	creds      CredentialSource
	httpClient *http.Client
	apiVersion string
}

// ClientConfig configures the CRM client.
type ClientConfig struct {
	// Credentials supplies headers and the API base URL.
	Credentials CredentialSource

	// APIVersion selects the REST API version segment. Defaults to v2.
	APIVersion string

	// Timeout bounds each request. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// NewClient creates a CRM client.
func NewClient(cfg ClientConfig) *Client {
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		creds:      cfg.Credentials,
		httpClient: httpClient,
		apiVersion: apiVersion,
	}
}

// APIError is returned when the CRM API answers a non-2xx status.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Body is the raw response body, usually a JSON error document.
	Body string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("CRM API request failed with status %d: %s", e.StatusCode, e.Body)
}

// do performs an authenticated CRM API request and decodes the response
// into out when it is non-nil. Errors are surfaced, never retried here.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, payload, out interface{}) error {
	headers, err := c.creds.Headers(ctx)
	if err != nil {
		return err
	}

	reqURL := strings.TrimSuffix(c.creds.APIDomain(), "/") + "/crm/" + c.apiVersion + "/" + strings.TrimPrefix(endpoint, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("CRM API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	case http.StatusNoContent:
		// Zoho answers 204 for empty result sets.
		return nil
	default:
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
}
