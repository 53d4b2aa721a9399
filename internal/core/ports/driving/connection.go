package driving

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// ConnectionService manages mailboxes and calendar feeds.
type ConnectionService interface {
	// Add validates and stores a connection.
	Add(ctx context.Context, conn domain.Connection) error

	// Get retrieves a connection by ID.
	Get(ctx context.Context, id string) (*domain.Connection, error)

	// List returns all connections.
	List(ctx context.Context) ([]domain.Connection, error)

	// Remove deletes a connection and its credentials.
	Remove(ctx context.Context, id string) error

	// SetCredentials stores OAuth tokens for a connection.
	SetCredentials(ctx context.Context, connectionID string, oauth domain.OAuthCredentials) error

	// Attempts lists the extraction audit trail of a mailbox.
	Attempts(ctx context.Context, connectionID string, outcome domain.AttemptOutcome, limit int) ([]*domain.ExtractionAttempt, error)
}

// PropertyService manages properties and cleaning policies.
type PropertyService interface {
	// Add validates and stores a property.
	Add(ctx context.Context, property domain.Property) error

	// Get retrieves a property by ID.
	Get(ctx context.Context, id string) (*domain.Property, error)

	// List returns all properties.
	List(ctx context.Context) ([]domain.Property, error)

	// SetCleaningPolicy updates a property's buffer sizes.
	SetCleaningPolicy(ctx context.Context, id string, policy domain.CleaningPolicy) error
}
