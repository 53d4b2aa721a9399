package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// Flow is one authorization-code exchange with PKCE.
type Flow struct {
	// Config is the client config. RedirectURL is overwritten per run.
	Config oauth2.Config

	// Open shows the consent URL to the user. Defaults to OpenBrowser.
	Open func(url string) error

	// Timeout bounds the wait for the redirect. Defaults to five minutes.
	Timeout time.Duration

	// Addr is the loopback listen address. Defaults to 127.0.0.1:0.
	Addr string
}

// Run sends the user through consent and returns the exchanged tokens.
func (f *Flow) Run(ctx context.Context) (*domain.OAuthCredentials, error) {
	if f.Config.ClientID == "" {
		return nil, fmt.Errorf("oauth: %w: client id is not configured", domain.ErrInvalidInput)
	}

	state, err := randomState()
	if err != nil {
		return nil, err
	}
	addr := f.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	srv := NewCallbackServer(state)
	if err := srv.Start(addr); err != nil {
		return nil, err
	}
	defer func() { _ = srv.Stop() }()

	cfg := f.Config
	cfg.RedirectURL = srv.RedirectURI()
	verifier := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	open := f.Open
	if open == nil {
		open = OpenBrowser
	}
	if err := open(authURL); err != nil {
		return nil, fmt.Errorf("oauth: opening consent page: %w", err)
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	code, err := srv.WaitForCode(waitCtx)
	if err != nil {
		return nil, err
	}

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("oauth: exchanging code: %w", err)
	}
	return &domain.OAuthCredentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Expiry:       tok.Expiry,
	}, nil
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("oauth: generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// OpenBrowser opens url in the default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
