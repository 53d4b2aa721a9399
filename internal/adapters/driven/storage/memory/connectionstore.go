package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
)

// Ensure the stores implement their interfaces.
var (
	_ driven.ConnectionStore  = (*ConnectionStore)(nil)
	_ driven.PropertyStore    = (*PropertyStore)(nil)
	_ driven.CredentialsStore = (*CredentialsStore)(nil)
)

// ConnectionStore is an in-memory implementation of driven.ConnectionStore.
type ConnectionStore struct {
	mu          sync.RWMutex
	connections map[string]domain.Connection
}

// NewConnectionStore creates a new in-memory connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{connections: make(map[string]domain.Connection)}
}

func copyConnection(c domain.Connection) domain.Connection {
	c.Config = maps.Clone(c.Config)
	c.PropertyIDs = append([]string(nil), c.PropertyIDs...)
	return c
}

// Save stores or updates a connection.
func (s *ConnectionStore) Save(_ context.Context, conn domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.connections[conn.ID]; ok && conn.CreatedAt.IsZero() {
		conn.CreatedAt = existing.CreatedAt
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now
	if conn.Status == "" {
		conn.Status = domain.StatusActive
	}
	s.connections[conn.ID] = copyConnection(conn)
	return nil
}

// Get retrieves a connection by ID.
func (s *ConnectionStore) Get(_ context.Context, id string) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyConnection(c)
	return &out, nil
}

// List returns all connections ordered by ID.
func (s *ConnectionStore) List(_ context.Context) ([]domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Connection, 0, len(s.connections))
	for _, c := range s.connections {
		out = append(out, copyConnection(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes a connection.
func (s *ConnectionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.connections, id)
	s.mu.Unlock()
	return nil
}

// UpdateStatus records the outcome of a run.
func (s *ConnectionStore) UpdateStatus(_ context.Context, id string, status domain.ConnectionStatus, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.connections[id]
	if !ok {
		return fmt.Errorf("connection %s: %w", id, domain.ErrNotFound)
	}
	now := time.Now()
	c.Status = status
	c.LastError = lastError
	c.LastSyncAt = &now
	c.UpdatedAt = now
	s.connections[id] = c
	return nil
}

// PropertyStore is an in-memory implementation of driven.PropertyStore.
type PropertyStore struct {
	mu         sync.RWMutex
	properties map[string]domain.Property
}

// NewPropertyStore creates a new in-memory property store.
func NewPropertyStore() *PropertyStore {
	return &PropertyStore{properties: make(map[string]domain.Property)}
}

// Save stores or updates a property.
func (s *PropertyStore) Save(_ context.Context, p domain.Property) error {
	if p.ID == "" {
		return fmt.Errorf("property id is required: %w", domain.ErrInvalidInput)
	}
	if err := p.Cleaning.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.properties[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.properties[p.ID] = p
	return nil
}

// Get retrieves a property by ID.
func (s *PropertyStore) Get(_ context.Context, id string) (*domain.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// List returns all properties ordered by ID.
func (s *PropertyStore) List(_ context.Context) ([]domain.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Property, 0, len(s.properties))
	for _, p := range s.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CredentialsStore is an in-memory implementation of driven.CredentialsStore.
type CredentialsStore struct {
	mu    sync.RWMutex
	creds map[string]domain.Credentials
}

// NewCredentialsStore creates a new in-memory credentials store.
func NewCredentialsStore() *CredentialsStore {
	return &CredentialsStore{creds: make(map[string]domain.Credentials)}
}

func copyCredentials(c domain.Credentials) domain.Credentials {
	if c.OAuth != nil {
		oauth := *c.OAuth
		c.OAuth = &oauth
	}
	return c
}

// Save stores or updates credentials.
func (s *CredentialsStore) Save(_ context.Context, creds domain.Credentials) error {
	if creds.ID == "" || creds.ConnectionID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = now
	}
	creds.UpdatedAt = now
	s.creds[creds.ID] = copyCredentials(creds)
	return nil
}

// Get retrieves credentials by ID.
func (s *CredentialsStore) Get(_ context.Context, id string) (*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyCredentials(c)
	return &out, nil
}

// GetByConnectionID retrieves credentials for a connection, or nil.
func (s *CredentialsStore) GetByConnectionID(_ context.Context, connectionID string) (*domain.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.creds {
		if c.ConnectionID == connectionID {
			out := copyCredentials(c)
			return &out, nil
		}
	}
	return nil, nil
}

// Delete removes credentials by ID.
func (s *CredentialsStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.creds, id)
	s.mu.Unlock()
	return nil
}
