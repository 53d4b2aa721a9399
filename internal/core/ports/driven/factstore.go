package driven

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// FactStore persists reservation facts. Facts are never deleted.
type FactStore interface {
	// Upsert stores a fact keyed by SourceMessageID. When a fact for the
	// message exists it is returned unchanged and the input is discarded.
	Upsert(ctx context.Context, fact *domain.ReservationFact) (*domain.ReservationFact, error)

	// Get retrieves a fact by ID.
	Get(ctx context.Context, id string) (*domain.ReservationFact, error)

	// GetBySourceMessageID retrieves the fact for a message.
	// Returns nil and no error if the message produced no fact.
	GetBySourceMessageID(ctx context.Context, sourceMessageID string) (*domain.ReservationFact, error)

	// ListByConnection returns the facts from one mailbox, oldest first.
	ListByConnection(ctx context.Context, connectionID string) ([]*domain.ReservationFact, error)

	// ConfirmationCodes maps each given fact ID to its confirmation code.
	ConfirmationCodes(ctx context.Context, factIDs []string) (map[string]string, error)

	// UpdateDates corrects a fact's stay from an authoritative calendar booking.
	UpdateDates(ctx context.Context, factID string, stay domain.Stay) error
}
