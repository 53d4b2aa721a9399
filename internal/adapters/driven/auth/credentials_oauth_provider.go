package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
	"github.com/custodia-labs/rentsync/internal/logger"
)

// Ensure OAuthProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*OAuthProvider)(nil)

// DefaultRefreshMargin is how long before expiry a token is treated as stale.
const DefaultRefreshMargin = 5 * time.Minute

// OAuth error codes that mean the grant can never be refreshed again.
var permanentGrantErrors = map[string]bool{
	"invalid_grant":       true,
	"invalid_client":      true,
	"unauthorized_client": true,
}

// OAuthProvider serves the access token stored for one connection and
// refreshes it through the OAuth token endpoint when it is about to expire.
type OAuthProvider struct {
	connectionID     string
	credentialsStore driven.CredentialsStore
	config           oauth2.Config
	margin           time.Duration
	now              func() time.Time

	mu          sync.RWMutex
	cachedToken string
	cacheExpiry time.Time
}

// NewOAuthProvider creates a token provider for the connection's stored credentials.
func NewOAuthProvider(
	connectionID string,
	credentialsStore driven.CredentialsStore,
	config oauth2.Config,
	margin time.Duration,
) *OAuthProvider {
	if margin <= 0 {
		margin = DefaultRefreshMargin
	}
	return &OAuthProvider{
		connectionID:     connectionID,
		credentialsStore: credentialsStore,
		config:           config,
		margin:           margin,
		now:              time.Now,
	}
}

// GetToken returns an access token valid for at least the margin,
// refreshing first when it is not.
func (p *OAuthProvider) GetToken(ctx context.Context) (string, error) {
	p.mu.RLock()
	if p.cachedToken != "" && p.now().Before(p.cacheExpiry) {
		token := p.cachedToken
		p.mu.RUnlock()
		return token, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cachedToken != "" && p.now().Before(p.cacheExpiry) {
		return p.cachedToken, nil
	}

	creds, err := p.loadCredentials(ctx)
	if err != nil {
		return "", err
	}

	if creds.OAuth.AccessToken == "" || p.stale(creds.OAuth) {
		if !creds.HasRefreshToken() {
			if creds.OAuth.AccessToken == "" || creds.OAuth.IsExpired() {
				return "", fmt.Errorf("connection %s: token expired without refresh token: %w",
					p.connectionID, domain.ErrAuthInvalid)
			}
			// Still valid inside the margin; use it until it lapses.
			p.cache(creds.OAuth)
			return p.cachedToken, nil
		}
		if err := p.refreshLocked(ctx, creds); err != nil {
			return "", err
		}
	}

	p.cache(creds.OAuth)
	return p.cachedToken, nil
}

// Refresh forces a token refresh regardless of the stored expiry.
func (p *OAuthProvider) Refresh(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	creds, err := p.loadCredentials(ctx)
	if err != nil {
		return "", err
	}
	if !creds.HasRefreshToken() {
		return "", fmt.Errorf("connection %s: no refresh token: %w", p.connectionID, domain.ErrAuthInvalid)
	}
	if err := p.refreshLocked(ctx, creds); err != nil {
		return "", err
	}
	p.cache(creds.OAuth)
	return p.cachedToken, nil
}

// IsAuthenticated reports whether the connection has usable credentials.
func (p *OAuthProvider) IsAuthenticated() bool {
	p.mu.RLock()
	if p.cachedToken != "" && p.now().Before(p.cacheExpiry) {
		p.mu.RUnlock()
		return true
	}
	p.mu.RUnlock()

	creds, err := p.credentialsStore.GetByConnectionID(context.Background(), p.connectionID)
	if err != nil || creds == nil {
		return false
	}
	return creds.IsAuthenticated() || creds.HasRefreshToken()
}

// InvalidateCache clears the cached token.
func (p *OAuthProvider) InvalidateCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cachedToken = ""
	p.cacheExpiry = time.Time{}
}

func (p *OAuthProvider) loadCredentials(ctx context.Context) (*domain.Credentials, error) {
	creds, err := p.credentialsStore.GetByConnectionID(ctx, p.connectionID)
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	if creds == nil || creds.OAuth == nil {
		return nil, fmt.Errorf("connection %s: %w", p.connectionID, domain.ErrAuthRequired)
	}
	return creds, nil
}

func (p *OAuthProvider) stale(c *domain.OAuthCredentials) bool {
	return !c.Expiry.IsZero() && !p.now().Add(p.margin).Before(c.Expiry)
}

func (p *OAuthProvider) cache(c *domain.OAuthCredentials) {
	p.cachedToken = c.AccessToken
	if c.Expiry.IsZero() {
		p.cacheExpiry = p.now().Add(time.Hour)
		return
	}
	p.cacheExpiry = c.Expiry.Add(-p.margin)
}

// refreshLocked exchanges the refresh token and persists the result.
// Caller must hold the write lock.
func (p *OAuthProvider) refreshLocked(ctx context.Context, creds *domain.Credentials) error {
	logger.Debug("Refreshing access token for connection %s", p.connectionID)

	// An expired token forces the source to hit the token endpoint.
	src := p.config.TokenSource(ctx, &oauth2.Token{
		RefreshToken: creds.OAuth.RefreshToken,
		Expiry:       time.Unix(1, 0),
	})
	tok, err := src.Token()
	if err != nil {
		return classifyRefreshError(p.connectionID, err)
	}

	creds.OAuth.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		creds.OAuth.RefreshToken = tok.RefreshToken
	}
	if tok.TokenType != "" {
		creds.OAuth.TokenType = tok.TokenType
	}
	creds.OAuth.Expiry = tok.Expiry
	creds.UpdatedAt = p.now()

	if err := p.credentialsStore.Save(ctx, *creds); err != nil {
		return fmt.Errorf("save refreshed credentials: %w", err)
	}
	return nil
}

// classifyRefreshError separates a revoked grant from a transient failure.
func classifyRefreshError(connectionID string, err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && permanentGrantErrors[rerr.ErrorCode] {
		logger.Warn("Connection %s refresh rejected: %s", connectionID, rerr.ErrorCode)
		return fmt.Errorf("connection %s: %s: %w", connectionID, rerr.ErrorCode, domain.ErrAuthInvalid)
	}
	return fmt.Errorf("connection %s: %w: %w", connectionID, domain.ErrTokenRefreshFailed, err)
}
