package driven

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// AttemptStore persists the extraction audit trail.
type AttemptStore interface {
	// Record upserts the attempt keyed by SourceMessageID.
	Record(ctx context.Context, attempt *domain.ExtractionAttempt) error

	// Get retrieves the attempt for a message.
	// Returns nil and no error if the message was never processed.
	Get(ctx context.Context, sourceMessageID string) (*domain.ExtractionAttempt, error)

	// Processed returns the subset of ids that already have an attempt.
	Processed(ctx context.Context, sourceMessageIDs []string) (map[string]bool, error)

	// List returns attempts for a connection, newest first, filtered by
	// outcome when outcome is non-empty.
	List(ctx context.Context, connectionID string, outcome domain.AttemptOutcome, limit int) ([]*domain.ExtractionAttempt, error)
}
