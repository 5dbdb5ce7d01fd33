package oauth

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startCallbackServer binds a server on an ephemeral port and returns it
// together with its base URL.
func startCallbackServer(t *testing.T, ctx context.Context) (*CallbackServer, string) {
	t.Helper()

	server, err := NewCallbackServer("http://127.0.0.1:0/callback")
	require.NoError(t, err)
	require.NoError(t, server.Start(ctx))
	t.Cleanup(server.Stop)

	return server, "http://" + server.Addr()
}

func TestCallbackServerReceivesCode(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server, base := startCallbackServer(t, ctx)

	resp, err := http.Get(base + "/callback?code=auth-code-1&state=state-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Authorization Successful")

	result, err := server.WaitForCallback(ctx)
	require.NoError(t, err)
	assert.Equal(t, "auth-code-1", result.Code)
	assert.Equal(t, "state-1", result.State)
	assert.False(t, result.IsError())
}

func TestCallbackServerReceivesError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server, base := startCallbackServer(t, ctx)

	resp, err := http.Get(base + "/callback?error=access_denied&error_description=user+denied")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "access_denied")

	result, err := server.WaitForCallback(ctx)
	require.NoError(t, err)
	assert.True(t, result.IsError())
	assert.Equal(t, "access_denied", result.Error)
	assert.Equal(t, "user denied", result.ErrorDescription)
}

func TestCallbackServerOffPathIs404(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, base := startCallbackServer(t, ctx)

	resp, err := http.Get(base + "/favicon.ico")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(base + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCallbackServerSecondRequestRejected(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server, base := startCallbackServer(t, ctx)

	resp, err := http.Get(base + "/callback?code=first")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/callback?code=second")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Only the first code is published.
	result, err := server.WaitForCallback(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", result.Code)
}

func TestCallbackServerWaitTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	server, _ := startCallbackServer(t, ctx)

	_, err := server.WaitForCallback(ctx)
	assert.ErrorIs(t, err, ErrAuthTimeout)
}

func TestNewCallbackServerInvalidURI(t *testing.T) {
	_, err := NewCallbackServer("://bad")
	assert.Error(t, err)

	_, err = NewCallbackServer("/callback")
	assert.Error(t, err)
}
