package auth

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
)

var _ driven.TokenProvider = NoAuth{}

// NoAuth serves connections without credentials, such as iCal export
// links whose URL is the secret. Its token is always empty.
type NoAuth struct{}

func (NoAuth) GetToken(context.Context) (string, error) { return "", nil }

func (NoAuth) Refresh(context.Context) (string, error) { return "", nil }

func (NoAuth) InvalidateCache() {}

func (NoAuth) IsAuthenticated() bool { return true }
