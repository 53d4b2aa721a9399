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

// Ensure FactStore implements the interface.
var _ driven.FactStore = (*FactStore)(nil)

// FactStore is an in-memory implementation of driven.FactStore.
type FactStore struct {
	mu        sync.RWMutex
	facts     map[string]*domain.ReservationFact
	byMessage map[string]string
}

// NewFactStore creates a new in-memory fact store.
func NewFactStore() *FactStore {
	return &FactStore{
		facts:     make(map[string]*domain.ReservationFact),
		byMessage: make(map[string]string),
	}
}

// Upsert stores a fact keyed by its source message. A stored fact is
// returned as is; only UpdateDates changes it afterwards.
func (s *FactStore) Upsert(_ context.Context, fact *domain.ReservationFact) (*domain.ReservationFact, error) {
	if err := fact.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byMessage[fact.SourceMessageID]; ok {
		out := *s.facts[id]
		return &out, nil
	}

	now := time.Now()
	stored := *fact
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.byMessage[fact.SourceMessageID] = stored.ID
	s.facts[stored.ID] = &stored

	out := stored
	return &out, nil
}

// Get retrieves a fact by ID.
func (s *FactStore) Get(_ context.Context, id string) (*domain.ReservationFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.facts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *f
	return &out, nil
}

// GetBySourceMessageID retrieves the fact for a message, or nil.
func (s *FactStore) GetBySourceMessageID(_ context.Context, sourceMessageID string) (*domain.ReservationFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byMessage[sourceMessageID]
	if !ok {
		return nil, nil
	}
	out := *s.facts[id]
	return &out, nil
}

// ListByConnection returns a mailbox's facts, oldest first.
func (s *FactStore) ListByConnection(_ context.Context, connectionID string) ([]*domain.ReservationFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ReservationFact
	for _, f := range s.facts {
		if f.ConnectionID == connectionID {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ConfirmationCodes maps fact IDs to confirmation codes.
func (s *FactStore) ConfirmationCodes(_ context.Context, factIDs []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make(map[string]string, len(factIDs))
	for _, id := range factIDs {
		if f, ok := s.facts[id]; ok {
			codes[id] = f.ConfirmationCode
		}
	}
	return codes, nil
}

// UpdateDates corrects a fact's stay.
func (s *FactStore) UpdateDates(_ context.Context, factID string, stay domain.Stay) error {
	if !stay.Valid() {
		return fmt.Errorf("stay %s: %w", stay, domain.ErrInvalidDateRange)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.facts[factID]
	if !ok {
		return domain.ErrNotFound
	}
	f.CheckIn, f.CheckOut = stay.CheckIn, stay.CheckOut
	f.UpdatedAt = time.Now()
	return nil
}
