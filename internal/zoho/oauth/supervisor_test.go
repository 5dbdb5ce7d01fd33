package oauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeExchanger counts calls and returns canned results.
type fakeExchanger struct {
	mu sync.Mutex

	refreshCalls int
	codeCalls    int
	revokeCalls  int

	refreshToken *oauth2.Token
	refreshErr   error
	codeToken    *oauth2.Token
	codeErr      error
	revokeErr    error

	gotCode    string
	gotRefresh string
}

func (f *fakeExchanger) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codeCalls++
	f.gotCode = code
	return f.codeToken, f.codeErr
}

func (f *fakeExchanger) ExchangeRefresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	f.gotRefresh = refreshToken
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	return f.refreshToken, f.refreshErr
}

func (f *fakeExchanger) Revoke(ctx context.Context, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokeCalls++
	return f.revokeErr
}

// fakeAuthorizer returns a canned code or error.
type fakeAuthorizer struct {
	mu    sync.Mutex
	calls int
	code  string
	err   error
}

func (f *fakeAuthorizer) Authorize(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.code, f.err
}

func seedStore(t *testing.T, store *Store, access, refresh string, expiry time.Time) {
	t.Helper()
	_, err := store.Save(tokenWithExtra(access, refresh, expiry, "https://www.zohoapis.eu"))
	require.NoError(t, err)
}

func TestSupervisorUsesCachedToken(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, "cached-token", "refresh-1", time.Now().Add(time.Hour))

	exchanger := &fakeExchanger{}
	supervisor := NewSupervisor(store, exchanger, &fakeAuthorizer{})

	token, err := supervisor.ValidAccessToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "cached-token", token)
	assert.Zero(t, exchanger.refreshCalls)
	assert.Zero(t, exchanger.codeCalls)
}

func TestSupervisorRefreshesExpiredToken(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, "stale-token", "refresh-1", time.Now().Add(-time.Minute))

	exchanger := &fakeExchanger{
		refreshToken: &oauth2.Token{
			AccessToken: "fresh-token",
			Expiry:      time.Now().Add(time.Hour),
		},
	}
	authorizer := &fakeAuthorizer{}
	supervisor := NewSupervisor(store, exchanger, authorizer)

	token, err := supervisor.ValidAccessToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "fresh-token", token)
	assert.Equal(t, 1, exchanger.refreshCalls)
	assert.Equal(t, "refresh-1", exchanger.gotRefresh)
	assert.Zero(t, authorizer.calls)

	// The refresh response omitted a refresh token; the held one survives.
	creds := store.Current()
	require.NotNil(t, creds)
	assert.Equal(t, "refresh-1", creds.RefreshToken)
}

func TestSupervisorEscalatesToAuthorization(t *testing.T) {
	store := newTestStore(t)

	exchanger := &fakeExchanger{
		codeToken: &oauth2.Token{
			AccessToken:  "granted-token",
			RefreshToken: "granted-refresh",
			Expiry:       time.Now().Add(time.Hour),
		},
	}
	authorizer := &fakeAuthorizer{code: "auth-code-1"}
	supervisor := NewSupervisor(store, exchanger, authorizer)

	token, err := supervisor.ValidAccessToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "granted-token", token)
	assert.Equal(t, 1, exchanger.refreshCalls)
	assert.Equal(t, 1, authorizer.calls)
	assert.Equal(t, "auth-code-1", exchanger.gotCode)

	// The grant was persisted.
	creds := store.Current()
	require.NotNil(t, creds)
	assert.Equal(t, "granted-refresh", creds.RefreshToken)
}

func TestSupervisorAuthorizationDenied(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, "stale-token", "dead-refresh", time.Now().Add(-time.Minute))
	before := store.Current()

	exchanger := &fakeExchanger{
		refreshErr: &ExchangeError{Op: "refresh_token", StatusCode: 400, Body: `{"error":"invalid_token"}`},
	}
	authorizer := &fakeAuthorizer{err: &AuthorizationError{Code: "access_denied"}}
	supervisor := NewSupervisor(store, exchanger, authorizer)

	token, err := supervisor.ValidAccessToken(context.Background())
	require.Error(t, err)
	assert.Empty(t, token)

	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)
	assert.Zero(t, exchanger.codeCalls)

	// Failed renewal never mutates the stored credentials.
	assert.Equal(t, before, store.Current())
}

func TestSupervisorConcurrentRenewalsSingleExchange(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, "stale-token", "refresh-1", time.Now().Add(-time.Minute))

	exchanger := &fakeExchanger{
		refreshToken: &oauth2.Token{
			AccessToken: "fresh-token",
			Expiry:      time.Now().Add(time.Hour),
		},
	}
	supervisor := NewSupervisor(store, exchanger, &fakeAuthorizer{})

	const workers = 16
	var wg sync.WaitGroup
	tokens := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = supervisor.ValidAccessToken(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "fresh-token", tokens[i])
	}
	assert.Equal(t, 1, exchanger.refreshCalls)
}

func TestSupervisorHeaders(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, "cached-token", "refresh-1", time.Now().Add(time.Hour))

	supervisor := NewSupervisor(store, &fakeExchanger{}, &fakeAuthorizer{})

	headers, err := supervisor.Headers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Zoho-oauthtoken cached-token", headers["Authorization"])
	assert.Equal(t, "application/json", headers["Content-Type"])
}

func TestSupervisorHeadersFailsHard(t *testing.T) {
	store := newTestStore(t)

	supervisor := NewSupervisor(store, &fakeExchanger{}, &fakeAuthorizer{err: errors.New("flow unavailable")})

	_, err := supervisor.Headers(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestSupervisorRevoke(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, "cached-token", "refresh-1", time.Now().Add(time.Hour))

	exchanger := &fakeExchanger{}
	supervisor := NewSupervisor(store, exchanger, &fakeAuthorizer{})

	require.NoError(t, supervisor.Revoke(context.Background()))
	assert.Equal(t, 1, exchanger.revokeCalls)
	assert.Nil(t, store.Current())
	assert.NoFileExists(t, store.Path())
}

func TestSupervisorRevokeClearsDespiteProviderFailure(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, "cached-token", "refresh-1", time.Now().Add(time.Hour))

	exchanger := &fakeExchanger{
		revokeErr: &ExchangeError{Op: "revoke", StatusCode: 500, Body: "server error"},
	}
	supervisor := NewSupervisor(store, exchanger, &fakeAuthorizer{})

	require.NoError(t, supervisor.Revoke(context.Background()))
	assert.Nil(t, store.Current())
}

func TestSupervisorRevokeWithoutCredentials(t *testing.T) {
	store := newTestStore(t)

	exchanger := &fakeExchanger{}
	supervisor := NewSupervisor(store, exchanger, &fakeAuthorizer{})

	require.NoError(t, supervisor.Revoke(context.Background()))
	assert.Zero(t, exchanger.revokeCalls)
}

func TestSupervisorAPIDomain(t *testing.T) {
	store := newTestStore(t)
	supervisor := NewSupervisor(store, &fakeExchanger{}, &fakeAuthorizer{})

	assert.Equal(t, "https://www.zohoapis.com", supervisor.APIDomain())

	seedStore(t, store, "cached-token", "refresh-1", time.Now().Add(time.Hour))
	assert.Equal(t, "https://www.zohoapis.eu", supervisor.APIDomain())
}
