package auth

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
)

// Ensure Factory implements the TokenProviderFactory interface.
var _ driven.TokenProviderFactory = (*Factory)(nil)

// Google API scopes requested for mailbox and calendar connections.
var GoogleScopes = []string{
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/calendar.readonly",
}

// Factory creates TokenProviders for connections.
type Factory struct {
	credentialsStore driven.CredentialsStore
	config           oauth2.Config
	margin           time.Duration
}

// NewFactory creates a token provider factory backed by Google's OAuth endpoint.
func NewFactory(credentialsStore driven.CredentialsStore, google domain.GoogleSettings, margin time.Duration) *Factory {
	return NewFactoryWithConfig(credentialsStore, GoogleConfig(google), margin)
}

// NewFactoryWithConfig creates a factory using an explicit OAuth client config.
func NewFactoryWithConfig(credentialsStore driven.CredentialsStore, config oauth2.Config, margin time.Duration) *Factory {
	return &Factory{
		credentialsStore: credentialsStore,
		config:           config,
		margin:           margin,
	}
}

// GoogleConfig builds the OAuth client config for Google APIs.
func GoogleConfig(s domain.GoogleSettings) oauth2.Config {
	return oauth2.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       GoogleScopes,
	}
}

// ForConnection returns the provider suited to the connection type.
// Connections that do not use OAuth get NoAuth.
func (f *Factory) ForConnection(_ context.Context, conn *domain.Connection) (driven.TokenProvider, error) {
	if !conn.Type.RequiresOAuth() {
		return NoAuth{}, nil
	}
	return NewOAuthProvider(conn.ID, f.credentialsStore, f.config, f.margin), nil
}
