package oauth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// defaultTokenLifetime is assumed when the provider omits expires_in.
// Zoho access tokens live for one hour.
const defaultTokenLifetime = time.Hour

// Store provides durable persistence for the process's single CredentialSet.
//
// SECURITY: The store handles the OAuth credentials for this process. The
// credential file is created with 0600 permissions, its directory with 0700,
// and token values are never logged (only expiry and presence flags).
//
// Writes are atomic (temp file + rename) so a concurrent reader never
// observes a partially written record. The in-memory copy always equals the
// last successfully persisted record.
type Store struct {
	mu   sync.RWMutex
	path string

	// Defaults applied when the provider response omits a field and no prior
	// value is held.
	defaultAPIDomain string
	defaultScope     string

	current *CredentialSet
}

// StoreConfig configures the credential store.
type StoreConfig struct {
	// Path is the location of the durable credential record.
	Path string

	// DefaultAPIDomain seeds api_domain before the provider has issued one.
	DefaultAPIDomain string

	// DefaultScope seeds scope before the provider has echoed one.
	DefaultScope string
}

// NewStore creates a credential store. It does not touch the filesystem;
// call Load to rehydrate state from a previous run.
func NewStore(cfg StoreConfig) *Store {
	return &Store{
		path:             cfg.Path,
		defaultAPIDomain: cfg.DefaultAPIDomain,
		defaultScope:     cfg.DefaultScope,
	}
}

// Load reads the durable record if present and caches it in memory.
// A missing file is not an error: the process is simply unauthenticated.
// A malformed file is logged and reported as ErrStoreCorrupt, but the caller
// is expected to proceed as unauthenticated rather than abort startup.
func (s *Store) Load() (*CredentialSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		// The record may have been removed externally (auth logout in
		// another process); forget any held credentials too.
		s.current = nil
		return nil, nil
	}
	if err != nil {
		slog.Warn("failed to read stored credentials",
			"path", s.path,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}

	var creds CredentialSet
	if err := json.Unmarshal(data, &creds); err != nil {
		slog.Warn("stored credentials are malformed, treating as unauthenticated",
			"path", s.path,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}

	s.current = &creds
	slog.Info("loaded stored credentials",
		"path", s.path,
		"expires_at", creds.ExpiresAt.Format(time.RFC3339),
		"has_refresh_token", creds.RefreshToken != "",
	)

	out := creds
	return &out, nil
}

// Save merges a provider token response with the currently held refresh
// token, api_domain, and scope, persists the result atomically, and returns
// the resulting in-memory CredentialSet.
//
// The refresh token is preserved from the previous credential set when the
// provider omits one: refresh tokens are not reissued on every exchange.
func (s *Store) Save(token *oauth2.Token) (*CredentialSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := s.merge(token)

	if err := s.writeFile(creds); err != nil {
		slog.Warn("failed to persist credentials",
			"path", s.path,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("failed to persist credentials: %w", err)
	}

	s.current = creds
	slog.Info("credentials saved",
		"path", s.path,
		"expires_at", creds.ExpiresAt.Format(time.RFC3339),
		"has_refresh_token", creds.RefreshToken != "",
		"api_domain", creds.APIDomain,
	)

	out := *creds
	return &out, nil
}

// merge builds the next CredentialSet from a token response and the held
// state. Requires s.mu.
func (s *Store) merge(token *oauth2.Token) *CredentialSet {
	creds := &CredentialSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		APIDomain:    extraString(token, "api_domain"),
		TokenType:    token.TokenType,
		Scope:        extraString(token, "scope"),
	}

	if creds.ExpiresAt.IsZero() {
		creds.ExpiresAt = time.Now().Add(defaultTokenLifetime)
	}
	if creds.TokenType == "" {
		creds.TokenType = "Bearer"
	}

	if s.current != nil {
		if creds.RefreshToken == "" {
			creds.RefreshToken = s.current.RefreshToken
		}
		if creds.APIDomain == "" {
			creds.APIDomain = s.current.APIDomain
		}
		if creds.Scope == "" {
			creds.Scope = s.current.Scope
		}
	}

	if creds.APIDomain == "" {
		creds.APIDomain = s.defaultAPIDomain
	}
	if creds.Scope == "" {
		creds.Scope = s.defaultScope
	}

	return creds
}

// writeFile persists a credential set atomically. Requires s.mu.
func (s *Store) writeFile(creds *CredentialSet) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set credential file permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move credentials into place: %w", err)
	}

	return nil
}

// Clear removes the durable record and forgets the in-memory state.
// Idempotent: a missing file is success, not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}

	slog.Info("credentials cleared", "path", s.path)
	return nil
}

// Current returns a copy of the in-memory credential set, or nil when the
// process holds no credentials.
func (s *Store) Current() *CredentialSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	out := *s.current
	return &out
}

// RefreshToken returns the held refresh token, or "" if none.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return ""
	}
	return s.current.RefreshToken
}

// APIDomain returns the cached api_domain, falling back to the configured
// default when no credentials are held.
func (s *Store) APIDomain() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current != nil && s.current.APIDomain != "" {
		return s.current.APIDomain
	}
	return s.defaultAPIDomain
}

// Path returns the location of the durable credential record.
func (s *Store) Path() string {
	return s.path
}
