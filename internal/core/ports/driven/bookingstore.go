package driven

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// BookingStore persists bookings. Bookings are deactivated, never deleted.
type BookingStore interface {
	// UpsertFromFeed inserts or updates a feed booking keyed by
	// (PropertyID, SourceFeedID, ExternalUID) and reactivates it.
	// Guest name and count are left untouched on bookings that are
	// matched to a fact or manually resolved. Reports whether a row changed.
	UpsertFromFeed(ctx context.Context, booking *domain.Booking) (bool, error)

	// CreateManual inserts a human-created booking keyed by
	// (PropertyID, ManualFeedID, externalUID). Re-creating the same key
	// returns the existing booking.
	CreateManual(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)

	// Get retrieves a booking by ID.
	Get(ctx context.Context, id string) (*domain.Booking, error)

	// ListActiveByProperties returns active bookings on the given properties,
	// ordered by check-in.
	ListActiveByProperties(ctx context.Context, propertyIDs []string) ([]*domain.Booking, error)

	// ListByFeed returns every booking from a feed, active or not.
	ListByFeed(ctx context.Context, feedID string) ([]*domain.Booking, error)

	// DeactivateMissing retires active bookings of a feed whose external
	// UID is not in keep. Returns the number retired.
	DeactivateMissing(ctx context.Context, feedID string, keep []string) (int, error)

	// ApplyEnrichment writes the matcher's result onto a booking unless it
	// is manually resolved. Returns ErrManualBooking when skipped.
	ApplyEnrichment(ctx context.Context, e domain.BookingEnrichment) error

	// MarkManuallyResolved records a human decision on a booking,
	// binding it to factID and overwriting guest fields when non-empty.
	MarkManuallyResolved(ctx context.Context, e domain.BookingEnrichment) error
}
