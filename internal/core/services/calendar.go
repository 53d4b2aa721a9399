package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
	"github.com/custodia-labs/rentsync/internal/reconcile"
)

// Ensure CalendarService implements the interface.
var _ driving.CalendarService = (*CalendarService)(nil)

// CalendarService builds the derived occupancy view of a property.
// Nothing it computes is persisted.
type CalendarService struct {
	stores    Stores
	platforms []string
}

// NewCalendarService creates a calendar service. platforms lists the feed
// platforms whose placeholder blocks may stand in for cleaning buffers.
func NewCalendarService(stores Stores, settings domain.ReconcileSettings) *CalendarService {
	platforms := settings.BufferBlockPlatforms
	if platforms == nil {
		platforms = domain.DefaultBufferBlockPlatforms
	}
	return &CalendarService{stores: stores, platforms: platforms}
}

// PropertyCalendar returns active bookings after suppression, generated
// cleaning buffers and any overlapping guest stays.
func (s *CalendarService) PropertyCalendar(ctx context.Context, propertyID string) (*domain.PropertyCalendar, error) {
	property, err := s.stores.Properties.Get(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("get property %s: %w", propertyID, err)
	}
	bookings, err := s.stores.Bookings.ListActiveByProperties(ctx, []string{propertyID})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return reconcile.BuildCalendar(property, bookings, s.platforms), nil
}
