// Package oauth runs the loopback browser authorization for Google
// mailbox and calendar connections.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"time"
)

// ErrStateMismatch is returned when the redirect carries a state the flow
// did not issue.
var ErrStateMismatch = errors.New("oauth: state mismatch")

// CallbackServer receives the authorization redirect on a loopback port.
type CallbackServer struct {
	mu       sync.Mutex
	state    string
	codes    chan string
	errs     chan error
	server   *http.Server
	listener net.Listener
}

// NewCallbackServer creates a server that accepts redirects carrying state.
func NewCallbackServer(state string) *CallbackServer {
	return &CallbackServer{
		state: state,
		codes: make(chan string, 1),
		errs:  make(chan error, 1),
	}
}

// Start listens on addr, typically "127.0.0.1:0" for an ephemeral port.
func (s *CallbackServer) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", s.handleCallback)
	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.fail(err)
		}
	}()
	return nil
}

func (s *CallbackServer) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if e := q.Get("error"); e != "" {
		s.fail(fmt.Errorf("oauth: provider returned %s: %s", e, q.Get("error_description")))
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, page("Authorization failed", q.Get("error_description")))
		return
	}
	if q.Get("state") != s.state {
		s.fail(ErrStateMismatch)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, page("Authorization failed", "The request did not come from this rentsync session."))
		return
	}
	code := q.Get("code")
	if code == "" {
		s.fail(errors.New("oauth: no authorization code in redirect"))
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, page("Authorization failed", "No authorization code was received."))
		return
	}

	select {
	case s.codes <- code:
	default:
	}
	fmt.Fprint(w, page("Connection authorized", "You can close this window and return to rentsync."))
}

// WaitForCode blocks until a code arrives, the redirect fails or ctx ends.
func (s *CallbackServer) WaitForCode(ctx context.Context) (string, error) {
	select {
	case code := <-s.codes:
		return code, nil
	case err := <-s.errs:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}
}

// Stop shuts the server down. It is safe to call on a server never started.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// RedirectURI is the URL registered as the redirect for this session.
func (s *CallbackServer) RedirectURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	addr, ok := s.listener.Addr().(*net.TCPAddr)
	if !ok {
		return ""
	}
	return fmt.Sprintf("http://127.0.0.1:%d/callback", addr.Port)
}

func page(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>rentsync</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, html.EscapeString(title), html.EscapeString(message))
}
