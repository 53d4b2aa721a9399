package driven

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// ReviewStore persists review items. There is at most one item per fact.
type ReviewStore interface {
	// Upsert raises or refreshes the item for item.FactID. An open item is
	// updated in place; a closed item is left unchanged. Returns the stored
	// item and whether it was newly created.
	Upsert(ctx context.Context, item *domain.ReviewItem) (*domain.ReviewItem, bool, error)

	// Get retrieves an item by ID.
	Get(ctx context.Context, id string) (*domain.ReviewItem, error)

	// GetByFact retrieves the item for a fact.
	// Returns nil and no error if the fact has no item.
	GetByFact(ctx context.Context, factID string) (*domain.ReviewItem, error)

	// List returns items matching filter, newest first.
	List(ctx context.Context, filter domain.ReviewFilter) ([]*domain.ReviewItem, error)

	// Close sets a terminal status on an item.
	Close(ctx context.Context, id string, status domain.ReviewStatus, bookingID string) error
}
