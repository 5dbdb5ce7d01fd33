package oauth

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

// CallbackResult carries the outcome of a single OAuth redirect.
type CallbackResult struct {
	// Code is the authorization code issued by the provider.
	Code string

	// State echoes the state parameter for CSRF verification.
	State string

	// Error is the OAuth error code when the authorization failed.
	Error string

	// ErrorDescription is the provider's human-readable error description.
	ErrorDescription string
}

// IsError reports whether the redirect carried an error instead of a code.
func (r *CallbackResult) IsError() bool {
	return r.Error != ""
}

// CallbackServer is a transient local HTTP server that receives exactly one
// OAuth redirect. It must be started before the browser is opened so the
// redirect cannot race the listener, and it serves nothing outside the
// configured callback path.
type CallbackServer struct {
	addr     string
	path     string
	server   *http.Server
	listener net.Listener
	resultCh chan *CallbackResult
	errorCh  chan error
	once     sync.Once
}

// NewCallbackServer creates a callback server for the given redirect URI.
// The server binds the URI's host:port and answers only on its path.
func NewCallbackServer(redirectURI string) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("redirect URI %q has no host", redirectURI)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	return &CallbackServer{
		addr:     u.Host,
		path:     path,
		resultCh: make(chan *CallbackResult, 1),
		errorCh:  make(chan error, 1),
	}, nil
}

// Start binds the listener and begins serving. The server stops when the
// context is cancelled or after the first callback has been handled.
func (s *CallbackServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to start callback server on %s: %w", s.addr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleCallback)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errorCh <- err:
			default:
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// WaitForCallback blocks until the redirect arrives, the server fails, or the
// context expires. Context expiry is reported as ErrAuthTimeout.
func (s *CallbackServer) WaitForCallback(ctx context.Context) (*CallbackResult, error) {
	select {
	case result := <-s.resultCh:
		return result, nil
	case err := <-s.errorCh:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrAuthTimeout, ctx.Err())
	}
}

// handleCallback serves the callback path. Only the first qualifying redirect
// is honored; later requests get an error page but never crash the server.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	// The mux treats the callback path as a prefix when it ends in a slash;
	// anything that is not an exact match is not the callback.
	if r.URL.Path != s.path {
		http.NotFound(w, r)
		return
	}

	var handled bool
	s.once.Do(func() {
		handled = true
		s.processCallback(w, r)
	})

	if !handled {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
	}
}

// processCallback renders the confirmation page and publishes the result.
// Called exactly once via sync.Once.
func (s *CallbackServer) processCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")

	query := r.URL.Query()
	result := &CallbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	var tmpl *template.Template
	var data interface{}

	if result.IsError() {
		tmpl = template.Must(template.New("error").Parse(callbackErrorHTML))
		data = map[string]string{
			"Error":       result.Error,
			"Description": result.ErrorDescription,
		}
	} else {
		tmpl = template.Must(template.New("success").Parse(callbackSuccessHTML))
		data = map[string]string{}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	select {
	case s.resultCh <- result:
	default:
	}

	// Give the response time to reach the browser before tearing down.
	go func() {
		time.Sleep(1 * time.Second)
		s.Stop()
	}()
}

// Stop shuts the server down and releases the listener socket.
func (s *CallbackServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

// Addr returns the address the server listens on.
func (s *CallbackServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
