package services

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// LockTable grants at most one in-flight run per connection.
// Acquisition never blocks: a held key fails with domain.ErrSyncInProgress.
type LockTable struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLockTable creates an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{held: make(map[string]struct{})}
}

// TryAcquire takes the lock for key. The returned release func is
// idempotent and must be deferred by the caller.
func (t *LockTable) TryAcquire(key string) (release func(), err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, busy := t.held[key]; busy {
		return nil, fmt.Errorf("connection %s: %w", key, domain.ErrSyncInProgress)
	}
	t.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.held, key)
			t.mu.Unlock()
		})
	}, nil
}

// Held reports whether key is currently locked.
func (t *LockTable) Held(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.held[key]
	return ok
}
