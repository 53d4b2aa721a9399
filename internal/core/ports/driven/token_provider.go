package driven

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// TokenProvider provides access tokens for authenticated API calls.
//
// This interface is designed to work alongside the Scheduler's proactive refresh:
//   - Scheduler: Proactive refresh every 45min (prevents refresh token expiry)
//   - TokenProvider: Reactive refresh before use when inside the safety margin
type TokenProvider interface {
	// GetToken returns an access token valid for at least the safety margin,
	// refreshing first when needed. Returns empty string for no-auth feeds.
	GetToken(ctx context.Context) (string, error)

	// Refresh forces a refresh regardless of expiry. Used once after the
	// provider rejects a token. Irrecoverable failures wrap
	// domain.ErrAuthInvalid; transient ones wrap domain.ErrTokenRefreshFailed.
	Refresh(ctx context.Context) (string, error)

	// InvalidateCache drops any cached token.
	InvalidateCache()

	// IsAuthenticated returns true if credentials are available.
	// Always true for no-auth feeds (NoAuth).
	IsAuthenticated() bool
}

// TokenProviderFactory builds a token provider for a connection.
type TokenProviderFactory interface {
	ForConnection(ctx context.Context, conn *domain.Connection) (TokenProvider, error)
}
