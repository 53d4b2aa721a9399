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

// Ensure ReviewStore implements the interface.
var _ driven.ReviewStore = (*ReviewStore)(nil)

// ReviewStore is an in-memory implementation of driven.ReviewStore.
type ReviewStore struct {
	mu     sync.RWMutex
	items  map[string]*domain.ReviewItem
	byFact map[string]string
}

// NewReviewStore creates a new in-memory review store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		items:  make(map[string]*domain.ReviewItem),
		byFact: make(map[string]string),
	}
}

// Upsert opens or refreshes the review item for a fact.
// Closed items are returned unchanged.
func (s *ReviewStore) Upsert(_ context.Context, item *domain.ReviewItem) (*domain.ReviewItem, bool, error) {
	if item.FactID == "" {
		return nil, false, fmt.Errorf("review item has no fact: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if id, ok := s.byFact[item.FactID]; ok {
		existing := s.items[id]
		if existing.Status.IsClosed() {
			return copyReview(existing), false, nil
		}
		refreshed := *item
		refreshed.CandidateBookingIDs = append([]string(nil), item.CandidateBookingIDs...)
		refreshed.ID = existing.ID
		refreshed.Status = existing.Status
		refreshed.CreatedAt = existing.CreatedAt
		refreshed.UpdatedAt = now
		s.items[id] = &refreshed
		return copyReview(&refreshed), false, nil
	}

	it := *item
	it.CandidateBookingIDs = append([]string(nil), item.CandidateBookingIDs...)
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	it.Status = domain.ReviewOpen
	it.CreatedAt, it.UpdatedAt = now, now
	s.items[it.ID] = &it
	s.byFact[it.FactID] = it.ID
	return copyReview(&it), true, nil
}

// Get retrieves a review item by ID.
func (s *ReviewStore) Get(_ context.Context, id string) (*domain.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyReview(it), nil
}

// GetByFact retrieves the review item for a fact, or nil.
func (s *ReviewStore) GetByFact(_ context.Context, factID string) (*domain.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byFact[factID]
	if !ok {
		return nil, nil
	}
	return copyReview(s.items[id]), nil
}

// List returns review items matching filter, newest first.
func (s *ReviewStore) List(_ context.Context, filter domain.ReviewFilter) ([]*domain.ReviewItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ReviewItem
	for _, it := range s.items {
		if filter.Status != "" && it.Status != filter.Status {
			continue
		}
		if filter.ConnectionID != "" && it.ConnectionID != filter.ConnectionID {
			continue
		}
		out = append(out, copyReview(it))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Close moves an open item to a terminal status.
func (s *ReviewStore) Close(_ context.Context, id string, status domain.ReviewStatus, bookingID string) error {
	if !status.IsClosed() {
		return fmt.Errorf("status %q is not terminal: %w", status, domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if it.Status.IsClosed() {
		return fmt.Errorf("review item %s: %w", id, domain.ErrReviewClosed)
	}
	now := time.Now()
	it.Status = status
	it.ResolvedBookingID = bookingID
	it.ResolvedAt = &now
	it.UpdatedAt = now
	return nil
}

func copyReview(it *domain.ReviewItem) *domain.ReviewItem {
	out := *it
	out.CandidateBookingIDs = append([]string(nil), it.CandidateBookingIDs...)
	return &out
}
