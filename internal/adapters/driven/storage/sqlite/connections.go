package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
)

// ==================== Connection Store ====================

// connectionStore implements driven.ConnectionStore.
type connectionStore struct {
	store *Store
}

var _ driven.ConnectionStore = (*connectionStore)(nil)

const connectionColumns = `id, type, name, config, property_ids, credentials_id,
	status, last_error, last_sync_at, created_at, updated_at`

// Save stores or updates a connection.
func (s *connectionStore) Save(ctx context.Context, conn domain.Connection) error {
	configJSON, err := json.Marshal(conn.Config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	propertiesJSON, err := json.Marshal(nonNil(conn.PropertyIDs))
	if err != nil {
		return fmt.Errorf("marshalling property ids: %w", err)
	}

	now := s.store.now()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now
	if conn.Status == "" {
		conn.Status = domain.StatusActive
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO connections (`+connectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			name = excluded.name,
			config = excluded.config,
			property_ids = excluded.property_ids,
			credentials_id = excluded.credentials_id,
			status = excluded.status,
			last_error = excluded.last_error,
			last_sync_at = excluded.last_sync_at,
			updated_at = excluded.updated_at
	`, conn.ID, string(conn.Type), conn.Name, string(configJSON), string(propertiesJSON),
		nullString(conn.CredentialsID), string(conn.Status), nullString(conn.LastError),
		formatTimePtr(conn.LastSyncAt), formatTime(conn.CreatedAt), formatTime(conn.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving connection: %w", err)
	}
	return nil
}

// Get retrieves a connection by ID.
func (s *connectionStore) Get(ctx context.Context, id string) (*domain.Connection, error) {
	return scanConnection(s.store.db.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM connections WHERE id = ?`, id))
}

// List returns all connections ordered by ID.
func (s *connectionStore) List(ctx context.Context) ([]domain.Connection, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+connectionColumns+` FROM connections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	var conns []domain.Connection //nolint:prealloc // size unknown from query
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, *conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating connections: %w", err)
	}
	return conns, nil
}

// Delete removes a connection and, by cascade, its credentials.
func (s *connectionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM connections WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}
	return nil
}

// UpdateStatus records the outcome of a run.
func (s *connectionStore) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.ConnectionStatus,
	lastError string,
) error {
	now := formatTime(s.store.now())
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE connections SET status = ?, last_error = ?, last_sync_at = ?, updated_at = ?
		WHERE id = ?
	`, string(status), nullString(lastError), now, now, id)
	if err != nil {
		return fmt.Errorf("updating connection status: %w", err)
	}
	return requireAffected(res, id)
}

func scanConnection(row scanner) (*domain.Connection, error) {
	var conn domain.Connection
	var connType, status, configJSON, propertiesJSON, createdAt, updatedAt string
	var credentialsID, lastError, lastSyncAt sql.NullString

	if err := row.Scan(&conn.ID, &connType, &conn.Name, &configJSON, &propertiesJSON,
		&credentialsID, &status, &lastError, &lastSyncAt, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err, "connection")
	}

	if err := json.Unmarshal([]byte(configJSON), &conn.Config); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := json.Unmarshal([]byte(propertiesJSON), &conn.PropertyIDs); err != nil {
		return nil, fmt.Errorf("unmarshalling property ids: %w", err)
	}
	conn.Type = domain.ConnectionType(connType)
	conn.Status = domain.ConnectionStatus(status)
	conn.CredentialsID = credentialsID.String
	conn.LastError = lastError.String
	conn.LastSyncAt = parseTimePtr(lastSyncAt)
	conn.CreatedAt = parseTime(createdAt)
	conn.UpdatedAt = parseTime(updatedAt)
	return &conn, nil
}

// ==================== Property Store ====================

// propertyStore implements driven.PropertyStore.
type propertyStore struct {
	store *Store
}

var _ driven.PropertyStore = (*propertyStore)(nil)

// Save stores or updates a property.
func (s *propertyStore) Save(ctx context.Context, p domain.Property) error {
	if p.ID == "" {
		return fmt.Errorf("property id is required: %w", domain.ErrInvalidInput)
	}
	if err := p.Cleaning.Validate(); err != nil {
		return err
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.store.now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO properties (id, name, cleaning_pre_days, cleaning_post_days, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			cleaning_pre_days = excluded.cleaning_pre_days,
			cleaning_post_days = excluded.cleaning_post_days
	`, p.ID, p.Name, p.Cleaning.PreDays, p.Cleaning.PostDays, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving property: %w", err)
	}
	return nil
}

// Get retrieves a property by ID.
func (s *propertyStore) Get(ctx context.Context, id string) (*domain.Property, error) {
	return scanProperty(s.store.db.QueryRowContext(ctx, `
		SELECT id, name, cleaning_pre_days, cleaning_post_days, created_at
		FROM properties WHERE id = ?
	`, id))
}

// List returns all properties ordered by ID.
func (s *propertyStore) List(ctx context.Context) ([]domain.Property, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, cleaning_pre_days, cleaning_post_days, created_at
		FROM properties ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	var props []domain.Property //nolint:prealloc // size unknown from query
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}
	return props, nil
}

func scanProperty(row scanner) (*domain.Property, error) {
	var p domain.Property
	var createdAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Cleaning.PreDays, &p.Cleaning.PostDays, &createdAt); err != nil {
		return nil, notFound(err, "property")
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// ==================== Credentials Store ====================

type credentialsStore struct {
	store *Store
}

var _ driven.CredentialsStore = (*credentialsStore)(nil)

// Save stores or updates credentials.
func (s *credentialsStore) Save(ctx context.Context, creds domain.Credentials) error {
	if creds.ID == "" || creds.ConnectionID == "" {
		return domain.ErrInvalidInput
	}

	oauthJSON, err := json.Marshal(creds.OAuth)
	if err != nil {
		return fmt.Errorf("marshalling oauth credentials: %w", err)
	}

	now := s.store.now()
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = now
	}
	creds.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO credentials (id, connection_id, account_identifier, oauth, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			connection_id = excluded.connection_id,
			account_identifier = excluded.account_identifier,
			oauth = excluded.oauth,
			updated_at = excluded.updated_at
	`, creds.ID, creds.ConnectionID, nullString(creds.AccountIdentifier),
		string(oauthJSON), formatTime(creds.CreatedAt), formatTime(creds.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Get retrieves credentials by ID.
func (s *credentialsStore) Get(ctx context.Context, id string) (*domain.Credentials, error) {
	return scanCredentials(s.store.db.QueryRowContext(ctx, `
		SELECT id, connection_id, account_identifier, oauth, created_at, updated_at
		FROM credentials WHERE id = ?
	`, id))
}

// GetByConnectionID retrieves credentials for a connection, or nil.
func (s *credentialsStore) GetByConnectionID(ctx context.Context, connectionID string) (*domain.Credentials, error) {
	creds, err := scanCredentials(s.store.db.QueryRowContext(ctx, `
		SELECT id, connection_id, account_identifier, oauth, created_at, updated_at
		FROM credentials WHERE connection_id = ?
	`, connectionID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return creds, err
}

// Delete removes credentials by ID.
func (s *credentialsStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM credentials WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}

func scanCredentials(row scanner) (*domain.Credentials, error) {
	var creds domain.Credentials
	var account, oauthJSON sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&creds.ID, &creds.ConnectionID, &account, &oauthJSON, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err, "credentials")
	}

	if oauthJSON.Valid && oauthJSON.String != jsonNull {
		var oauth domain.OAuthCredentials
		if err := json.Unmarshal([]byte(oauthJSON.String), &oauth); err != nil {
			return nil, fmt.Errorf("unmarshalling oauth credentials: %w", err)
		}
		creds.OAuth = &oauth
	}
	creds.AccountIdentifier = account.String
	creds.CreatedAt = parseTime(createdAt)
	creds.UpdatedAt = parseTime(updatedAt)
	return &creds, nil
}
