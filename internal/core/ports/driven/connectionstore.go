package driven

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// ConnectionStore persists connection configuration and health.
type ConnectionStore interface {
	// Save stores a connection. Creates if new, updates if exists.
	Save(ctx context.Context, conn domain.Connection) error

	// Get retrieves a connection by ID.
	Get(ctx context.Context, id string) (*domain.Connection, error)

	// List returns all connections.
	List(ctx context.Context) ([]domain.Connection, error)

	// Delete removes a connection.
	Delete(ctx context.Context, id string) error

	// UpdateStatus records the outcome of a run.
	UpdateStatus(ctx context.Context, id string, status domain.ConnectionStatus, lastError string) error
}

// PropertyStore persists properties and their cleaning policies.
type PropertyStore interface {
	// Save stores a property. Creates if new, updates if exists.
	Save(ctx context.Context, property domain.Property) error

	// Get retrieves a property by ID.
	Get(ctx context.Context, id string) (*domain.Property, error)

	// List returns all properties.
	List(ctx context.Context) ([]domain.Property, error)
}

// CredentialsStore persists OAuth credentials.
// Credentials are tied to a specific connection (1:1 relationship).
type CredentialsStore interface {
	// Save stores credentials. Creates if new, updates if exists.
	Save(ctx context.Context, creds domain.Credentials) error

	// Get retrieves credentials by ID.
	Get(ctx context.Context, id string) (*domain.Credentials, error)

	// GetByConnectionID retrieves credentials for a connection.
	// Returns nil if no credentials exist for the connection.
	GetByConnectionID(ctx context.Context, connectionID string) (*domain.Credentials, error)

	// Delete removes credentials by ID.
	Delete(ctx context.Context, id string) error
}
