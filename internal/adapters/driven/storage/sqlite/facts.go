package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
)

// factStore implements driven.FactStore.
type factStore struct {
	store *Store
}

var _ driven.FactStore = (*factStore)(nil)

const factColumns = `id, source_message_id, connection_id, guest_name, guest_count,
	confirmation_code, check_in, check_out, listing_name, platform, confidence,
	created_at, updated_at`

// Upsert stores a fact keyed by its source message. A stored fact is
// returned as is; only UpdateDates changes it afterwards.
func (s *factStore) Upsert(ctx context.Context, fact *domain.ReservationFact) (*domain.ReservationFact, error) {
	if err := fact.Validate(); err != nil {
		return nil, err
	}

	id := fact.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := formatTime(s.store.now())

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO reservation_facts (`+factColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_message_id) DO NOTHING
	`, id, fact.SourceMessageID, fact.ConnectionID, fact.GuestName, fact.GuestCount,
		fact.ConfirmationCode, fact.CheckIn.String(), fact.CheckOut.String(),
		nullString(fact.ListingName), nullString(fact.Platform), fact.Confidence,
		now, now)
	if err != nil {
		return nil, fmt.Errorf("saving fact: %w", err)
	}

	stored, err := s.GetBySourceMessageID(ctx, fact.SourceMessageID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("fact %s vanished after upsert: %w", fact.SourceMessageID, domain.ErrNotFound)
	}
	return stored, nil
}

// Get retrieves a fact by ID.
func (s *factStore) Get(ctx context.Context, id string) (*domain.ReservationFact, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+factColumns+` FROM reservation_facts WHERE id = ?`, id)
	return scanFact(row)
}

// GetBySourceMessageID retrieves the fact for a message, or nil.
func (s *factStore) GetBySourceMessageID(ctx context.Context, sourceMessageID string) (*domain.ReservationFact, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+factColumns+` FROM reservation_facts WHERE source_message_id = ?`, sourceMessageID)
	fact, err := scanFact(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return fact, err
}

// ListByConnection returns a mailbox's facts, oldest first.
func (s *factStore) ListByConnection(ctx context.Context, connectionID string) ([]*domain.ReservationFact, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+factColumns+` FROM reservation_facts
		WHERE connection_id = ?
		ORDER BY created_at, id
	`, connectionID)
	if err != nil {
		return nil, fmt.Errorf("querying facts: %w", err)
	}
	defer rows.Close()

	var facts []*domain.ReservationFact
	for rows.Next() {
		fact, err := scanFact(rows)
		if err != nil {
			return nil, err
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating facts: %w", err)
	}
	return facts, nil
}

// ConfirmationCodes maps fact IDs to confirmation codes.
func (s *factStore) ConfirmationCodes(ctx context.Context, factIDs []string) (map[string]string, error) {
	codes := make(map[string]string, len(factIDs))
	if len(factIDs) == 0 {
		return codes, nil
	}

	rows, err := s.store.db.QueryContext(ctx,
		`SELECT id, confirmation_code FROM reservation_facts WHERE id IN (`+placeholders(len(factIDs))+`)`,
		stringArgs(factIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying confirmation codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, code string
		if err := rows.Scan(&id, &code); err != nil {
			return nil, fmt.Errorf("scanning confirmation code: %w", err)
		}
		codes[id] = code
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating confirmation codes: %w", err)
	}
	return codes, nil
}

// UpdateDates corrects a fact's stay.
func (s *factStore) UpdateDates(ctx context.Context, factID string, stay domain.Stay) error {
	if !stay.Valid() {
		return fmt.Errorf("stay %s: %w", stay, domain.ErrInvalidDateRange)
	}
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE reservation_facts SET check_in = ?, check_out = ?, updated_at = ?
		WHERE id = ?
	`, stay.CheckIn.String(), stay.CheckOut.String(), formatTime(s.store.now()), factID)
	if err != nil {
		return fmt.Errorf("updating fact dates: %w", err)
	}
	return requireAffected(res, factID)
}

// scanFact scans one fact row.
func scanFact(row scanner) (*domain.ReservationFact, error) {
	var fact domain.ReservationFact
	var checkIn, checkOut, createdAt, updatedAt string
	var listing, platform sql.NullString

	if err := row.Scan(&fact.ID, &fact.SourceMessageID, &fact.ConnectionID,
		&fact.GuestName, &fact.GuestCount, &fact.ConfirmationCode,
		&checkIn, &checkOut, &listing, &platform, &fact.Confidence,
		&createdAt, &updatedAt); err != nil {
		return nil, notFound(err, "fact")
	}

	var err error
	if fact.CheckIn, err = parseDate(checkIn); err != nil {
		return nil, err
	}
	if fact.CheckOut, err = parseDate(checkOut); err != nil {
		return nil, err
	}
	fact.ListingName = listing.String
	fact.Platform = platform.String
	fact.CreatedAt = parseTime(createdAt)
	fact.UpdatedAt = parseTime(updatedAt)
	return &fact, nil
}

// requireAffected returns ErrNotFound when an update touched no row.
func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, domain.ErrNotFound)
	}
	return nil
}
