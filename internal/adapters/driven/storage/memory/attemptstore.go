package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
)

// Ensure AttemptStore implements the interface.
var _ driven.AttemptStore = (*AttemptStore)(nil)

// AttemptStore is an in-memory implementation of driven.AttemptStore.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*domain.ExtractionAttempt
}

// NewAttemptStore creates a new in-memory attempt store.
func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string]*domain.ExtractionAttempt)}
}

// Record upserts an attempt keyed by its message.
func (s *AttemptStore) Record(_ context.Context, a *domain.ExtractionAttempt) error {
	if a == nil || a.SourceMessageID == "" {
		return domain.ErrInvalidInput
	}
	stored := *a
	if stored.AttemptedAt.IsZero() {
		stored.AttemptedAt = time.Now()
	}
	s.mu.Lock()
	s.attempts[a.SourceMessageID] = &stored
	s.mu.Unlock()
	return nil
}

// Get retrieves the attempt for a message, or nil.
func (s *AttemptStore) Get(_ context.Context, sourceMessageID string) (*domain.ExtractionAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[sourceMessageID]
	if !ok {
		return nil, nil
	}
	out := *a
	return &out, nil
}

// Processed reports which of the given messages already have an attempt.
func (s *AttemptStore) Processed(_ context.Context, sourceMessageIDs []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool, len(sourceMessageIDs))
	for _, id := range sourceMessageIDs {
		if _, ok := s.attempts[id]; ok {
			seen[id] = true
		}
	}
	return seen, nil
}

// List returns a mailbox's attempts, newest first.
func (s *AttemptStore) List(
	_ context.Context,
	connectionID string,
	outcome domain.AttemptOutcome,
	limit int,
) ([]*domain.ExtractionAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.ExtractionAttempt
	for _, a := range s.attempts {
		if a.ConnectionID != connectionID || (outcome != "" && a.Outcome != outcome) {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AttemptedAt.Equal(out[j].AttemptedAt) {
			return out[i].AttemptedAt.After(out[j].AttemptedAt)
		}
		return out[i].SourceMessageID < out[j].SourceMessageID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
