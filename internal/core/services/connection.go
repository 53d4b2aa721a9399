package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
)

// Ensure the services implement their interfaces.
var (
	_ driving.ConnectionService = (*ConnectionService)(nil)
	_ driving.PropertyService   = (*PropertyService)(nil)
)

// ConnectionService manages mailbox and feed connections.
type ConnectionService struct {
	stores Stores
}

// NewConnectionService creates a new connection service.
func NewConnectionService(stores Stores) *ConnectionService {
	return &ConnectionService{stores: stores}
}

// Add validates and stores a new connection. Every referenced property
// must exist. An empty ID is generated.
func (s *ConnectionService) Add(ctx context.Context, conn domain.Connection) error {
	if conn.ID == "" {
		conn.ID = uuid.New().String()
	}
	if err := conn.Validate(); err != nil {
		return err
	}
	if len(conn.PropertyIDs) == 0 {
		return fmt.Errorf("connection %s reaches no property: %w", conn.ID, domain.ErrInvalidInput)
	}
	for _, id := range conn.PropertyIDs {
		if _, err := s.stores.Properties.Get(ctx, id); err != nil {
			return fmt.Errorf("property %s: %w", id, err)
		}
	}
	if existing, err := s.stores.Connections.Get(ctx, conn.ID); err == nil && existing != nil {
		return fmt.Errorf("connection %s: %w", conn.ID, domain.ErrAlreadyExists)
	}
	if conn.Status == "" {
		conn.Status = domain.StatusActive
		if conn.Type.RequiresOAuth() {
			conn.Status = domain.StatusNeedsReconnect
		}
	}
	return s.stores.Connections.Save(ctx, conn)
}

// Get returns one connection.
func (s *ConnectionService) Get(ctx context.Context, id string) (*domain.Connection, error) {
	return s.stores.Connections.Get(ctx, id)
}

// List returns all connections.
func (s *ConnectionService) List(ctx context.Context) ([]domain.Connection, error) {
	return s.stores.Connections.List(ctx)
}

// Remove deletes a connection and its credentials. Facts and bookings
// it produced stay as history.
func (s *ConnectionService) Remove(ctx context.Context, id string) error {
	if _, err := s.stores.Connections.Get(ctx, id); err != nil {
		return err
	}
	creds, err := s.stores.Credentials.GetByConnectionID(ctx, id)
	if err != nil {
		return fmt.Errorf("get credentials: %w", err)
	}
	if creds != nil {
		if err := s.stores.Credentials.Delete(ctx, creds.ID); err != nil {
			return fmt.Errorf("delete credentials: %w", err)
		}
	}
	return s.stores.Connections.Delete(ctx, id)
}

// SetCredentials stores OAuth tokens obtained elsewhere for a connection
// and marks it active again.
func (s *ConnectionService) SetCredentials(ctx context.Context, connectionID string, oauth domain.OAuthCredentials) error {
	conn, err := s.stores.Connections.Get(ctx, connectionID)
	if err != nil {
		return err
	}
	if !conn.Type.RequiresOAuth() {
		return fmt.Errorf("%s connections take no credentials: %w", conn.Type, domain.ErrInvalidInput)
	}
	if oauth.AccessToken == "" && oauth.RefreshToken == "" {
		return fmt.Errorf("access or refresh token is required: %w", domain.ErrInvalidInput)
	}
	if oauth.TokenType == "" {
		oauth.TokenType = "Bearer"
	}

	creds, err := s.stores.Credentials.GetByConnectionID(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("get credentials: %w", err)
	}
	if creds == nil {
		creds = &domain.Credentials{ID: uuid.New().String(), ConnectionID: connectionID}
	}
	creds.OAuth = &oauth
	creds.UpdatedAt = time.Now()
	if err := s.stores.Credentials.Save(ctx, *creds); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	conn.CredentialsID = creds.ID
	conn.Status = domain.StatusActive
	conn.LastError = ""
	return s.stores.Connections.Save(ctx, *conn)
}

// Attempts returns the extraction audit trail of a mailbox.
func (s *ConnectionService) Attempts(
	ctx context.Context,
	connectionID string,
	outcome domain.AttemptOutcome,
	limit int,
) ([]*domain.ExtractionAttempt, error) {
	return s.stores.Attempts.List(ctx, connectionID, outcome, limit)
}

// PropertyService manages properties and their cleaning policies.
type PropertyService struct {
	stores Stores
}

// NewPropertyService creates a new property service.
func NewPropertyService(stores Stores) *PropertyService {
	return &PropertyService{stores: stores}
}

// Add stores a new property. An empty ID is generated.
func (s *PropertyService) Add(ctx context.Context, property domain.Property) error {
	if property.ID == "" {
		property.ID = uuid.New().String()
	}
	if property.Name == "" {
		return fmt.Errorf("property name is required: %w", domain.ErrInvalidInput)
	}
	return s.stores.Properties.Save(ctx, property)
}

// Get returns one property.
func (s *PropertyService) Get(ctx context.Context, id string) (*domain.Property, error) {
	return s.stores.Properties.Get(ctx, id)
}

// List returns all properties.
func (s *PropertyService) List(ctx context.Context) ([]domain.Property, error) {
	return s.stores.Properties.List(ctx)
}

// SetCleaningPolicy changes the turnover days around each stay.
func (s *PropertyService) SetCleaningPolicy(ctx context.Context, id string, policy domain.CleaningPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	property, err := s.stores.Properties.Get(ctx, id)
	if err != nil {
		return err
	}
	property.Cleaning = policy
	return s.stores.Properties.Save(ctx, *property)
}
