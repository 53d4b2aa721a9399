package driven

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// MailboxFetcher lists label-scoped messages from a mail API.
type MailboxFetcher interface {
	// FetchMessages returns the messages of the connection's label,
	// newest first, following pagination up to limit messages.
	// Provider 401s must wrap domain.ErrAuthExpired.
	FetchMessages(ctx context.Context, conn *domain.Connection, token string, limit int) ([]domain.MailMessage, error)
}

// FeedFetcher reads a calendar feed and normalises its events.
type FeedFetcher interface {
	// FetchBookings returns the feed's bookings for the connection's
	// property, keyed by event UID. Cancelled events are omitted.
	// Provider 401s must wrap domain.ErrAuthExpired.
	FetchBookings(ctx context.Context, conn *domain.Connection, token string) ([]*domain.Booking, error)
}
