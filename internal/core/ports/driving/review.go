package driving

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// ReviewService exposes the manual resolution queue.
type ReviewService interface {
	// List returns review items matching filter.
	List(ctx context.Context, filter domain.ReviewFilter) ([]*domain.ReviewItem, error)

	// Get retrieves a review item by ID.
	Get(ctx context.Context, id string) (*domain.ReviewItem, error)

	// Assign resolves an item onto a property, creating a booking when
	// the property has none for the fact's stay. Returns the booking used.
	Assign(ctx context.Context, res domain.Resolution) (*domain.Booking, error)

	// Dismiss closes an item without touching any booking.
	Dismiss(ctx context.Context, id string) error
}

// CalendarService exposes the derived property occupancy.
type CalendarService interface {
	// PropertyCalendar returns active bookings after suppression, plus
	// cleaning buffers and conflicts, for one property.
	PropertyCalendar(ctx context.Context, propertyID string) (*domain.PropertyCalendar, error)
}
