package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
	"github.com/custodia-labs/rentsync/internal/logger"
)

// withToken runs call with a fresh access token. An authorization failure
// triggers exactly one refresh and one retry; a second failure, or a
// refresh the provider rejects permanently, is returned to the caller.
func withToken(
	ctx context.Context,
	connectionID string,
	provider driven.TokenProvider,
	call func(ctx context.Context, token string) error,
) error {
	token, err := provider.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}

	err = call(ctx, token)
	if !errors.Is(err, domain.ErrAuthExpired) {
		return err
	}

	logger.Debug("Connection %s: authorization rejected, refreshing token", connectionID)
	provider.InvalidateCache()
	token, refreshErr := provider.Refresh(ctx)
	if refreshErr != nil {
		return fmt.Errorf("refresh token: %w", refreshErr)
	}

	err = call(ctx, token)
	if errors.Is(err, domain.ErrAuthExpired) {
		// The fresh token was refused too: the grant no longer works.
		return fmt.Errorf("token refused after refresh: %w: %w", domain.ErrAuthInvalid, err)
	}
	return err
}

// healthFor maps a run error to the connection state it leaves behind.
func healthFor(err error) domain.ConnectionStatus {
	switch {
	case err == nil:
		return domain.StatusActive
	case domain.NeedsReconnect(err):
		return domain.StatusNeedsReconnect
	default:
		return domain.StatusError
	}
}
