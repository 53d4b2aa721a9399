package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
)

// Ensure BookingStore implements the interface.
var _ driven.BookingStore = (*BookingStore)(nil)

// BookingStore is an in-memory implementation of driven.BookingStore.
type BookingStore struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	byKey    map[string]string
}

// NewBookingStore creates a new in-memory booking store.
func NewBookingStore() *BookingStore {
	return &BookingStore{
		bookings: make(map[string]*domain.Booking),
		byKey:    make(map[string]string),
	}
}

func bookingKey(propertyID, feedID, uid string) string {
	return propertyID + "\x00" + feedID + "\x00" + uid
}

// UpsertFromFeed inserts or refreshes a feed booking.
func (s *BookingStore) UpsertFromFeed(_ context.Context, booking *domain.Booking) (bool, error) {
	if booking.ExternalUID == "" || booking.PropertyID == "" || booking.SourceFeedID == "" {
		return false, fmt.Errorf("booking key incomplete: %w", domain.ErrInvalidInput)
	}
	if !booking.Stay().Valid() {
		return false, fmt.Errorf("booking %s %s: %w", booking.ExternalUID, booking.Stay(), domain.ErrInvalidDateRange)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	key := bookingKey(booking.PropertyID, booking.SourceFeedID, booking.ExternalUID)
	if id, ok := s.byKey[key]; ok {
		existing := s.bookings[id]
		if !existing.MergeFeed(booking) {
			return false, nil
		}
		existing.UpdatedAt = now
		return true, nil
	}

	b := *booking
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.IsActive = true
	b.CreatedAt, b.UpdatedAt = now, now
	s.bookings[b.ID] = &b
	s.byKey[key] = b.ID
	return true, nil
}

// CreateManual inserts a human-created booking, or returns the existing one.
func (s *BookingStore) CreateManual(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if booking.ExternalUID == "" || booking.PropertyID == "" {
		return nil, fmt.Errorf("manual booking key incomplete: %w", domain.ErrInvalidInput)
	}
	if !booking.Stay().Valid() {
		return nil, fmt.Errorf("manual booking %s: %w", booking.Stay(), domain.ErrInvalidDateRange)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := bookingKey(booking.PropertyID, domain.ManualFeedID, booking.ExternalUID)
	if id, ok := s.byKey[key]; ok {
		out := *s.bookings[id]
		return &out, nil
	}

	now := time.Now()
	b := *booking
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.SourceFeedID = domain.ManualFeedID
	b.IsActive = true
	if b.ManuallyResolvedAt == nil {
		b.ManuallyResolvedAt = &now
	}
	b.CreatedAt, b.UpdatedAt = now, now
	s.bookings[b.ID] = &b
	s.byKey[key] = b.ID

	out := b
	return &out, nil
}

// Get retrieves a booking by ID.
func (s *BookingStore) Get(_ context.Context, id string) (*domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *b
	return &out, nil
}

// ListActiveByProperties returns active bookings ordered by check-in.
func (s *BookingStore) ListActiveByProperties(_ context.Context, propertyIDs []string) ([]*domain.Booking, error) {
	want := make(map[string]bool, len(propertyIDs))
	for _, id := range propertyIDs {
		want[id] = true
	}
	return s.filter(func(b *domain.Booking) bool {
		return b.IsActive && want[b.PropertyID]
	}), nil
}

// ListByFeed returns every booking from a feed.
func (s *BookingStore) ListByFeed(_ context.Context, feedID string) ([]*domain.Booking, error) {
	return s.filter(func(b *domain.Booking) bool {
		return b.SourceFeedID == feedID
	}), nil
}

// DeactivateMissing retires active bookings of a feed absent from keep.
func (s *BookingStore) DeactivateMissing(_ context.Context, feedID string, keep []string) (int, error) {
	kept := make(map[string]bool, len(keep))
	for _, uid := range keep {
		kept[uid] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := time.Now()
	for _, b := range s.bookings {
		if b.SourceFeedID == feedID && b.IsActive && !kept[b.ExternalUID] {
			b.IsActive = false
			b.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// ApplyEnrichment writes matcher output unless the booking is manual.
func (s *BookingStore) ApplyEnrichment(_ context.Context, e domain.BookingEnrichment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[e.BookingID]
	if !ok {
		return domain.ErrNotFound
	}
	if b.IsManual() {
		return fmt.Errorf("booking %s: %w", e.BookingID, domain.ErrManualBooking)
	}
	b.Enrich(e)
	b.UpdatedAt = time.Now()
	return nil
}

// MarkManuallyResolved records a human decision on a booking.
func (s *BookingStore) MarkManuallyResolved(_ context.Context, e domain.BookingEnrichment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[e.BookingID]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	b.Enrich(e)
	b.ManuallyResolvedAt = &now
	b.UpdatedAt = now
	return nil
}

func (s *BookingStore) filter(keep func(*domain.Booking) bool) []*domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Booking
	for _, b := range s.bookings {
		if keep(b) {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CheckIn != out[j].CheckIn {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
