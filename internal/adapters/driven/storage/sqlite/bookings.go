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

// bookingStore implements driven.BookingStore.
type bookingStore struct {
	store *Store
}

var _ driven.BookingStore = (*bookingStore)(nil)

const bookingColumns = `id, property_id, source_feed_id, external_uid, check_in, check_out,
	summary, guest_name, guest_count, platform, is_active, matched_fact_id,
	manually_resolved_at, created_at, updated_at`

// UpsertFromFeed inserts or refreshes a feed booking.
func (s *bookingStore) UpsertFromFeed(ctx context.Context, booking *domain.Booking) (bool, error) {
	if booking.ExternalUID == "" || booking.PropertyID == "" || booking.SourceFeedID == "" {
		return false, fmt.Errorf("booking key incomplete: %w", domain.ErrInvalidInput)
	}
	if !booking.Stay().Valid() {
		return false, fmt.Errorf("booking %s %s: %w", booking.ExternalUID, booking.Stay(), domain.ErrInvalidDateRange)
	}

	changed := false
	err := s.store.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanBooking(tx.QueryRowContext(ctx, `
			SELECT `+bookingColumns+` FROM bookings
			WHERE property_id = ? AND source_feed_id = ? AND external_uid = ?
		`, booking.PropertyID, booking.SourceFeedID, booking.ExternalUID))

		now := s.store.now()
		switch {
		case errors.Is(err, domain.ErrNotFound):
			b := *booking
			if b.ID == "" {
				b.ID = uuid.New().String()
			}
			b.IsActive = true
			b.CreatedAt, b.UpdatedAt = now, now
			changed = true
			return insertBooking(ctx, tx, &b)
		case err != nil:
			return err
		}

		if !existing.MergeFeed(booking) {
			return nil
		}
		changed = true
		existing.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			UPDATE bookings SET check_in = ?, check_out = ?, summary = ?, guest_name = ?,
				guest_count = ?, platform = ?, is_active = 1, updated_at = ?
			WHERE id = ?
		`, existing.CheckIn.String(), existing.CheckOut.String(), nullString(existing.Summary),
			nullString(existing.GuestName), existing.GuestCount, nullString(existing.Platform),
			formatTime(existing.UpdatedAt), existing.ID)
		if err != nil {
			return fmt.Errorf("updating booking: %w", err)
		}
		return nil
	})
	return changed, err
}

// CreateManual inserts a human-created booking, or returns the existing one.
func (s *bookingStore) CreateManual(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if booking.ExternalUID == "" || booking.PropertyID == "" {
		return nil, fmt.Errorf("manual booking key incomplete: %w", domain.ErrInvalidInput)
	}
	if !booking.Stay().Valid() {
		return nil, fmt.Errorf("manual booking %s: %w", booking.Stay(), domain.ErrInvalidDateRange)
	}

	var out *domain.Booking
	err := s.store.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanBooking(tx.QueryRowContext(ctx, `
			SELECT `+bookingColumns+` FROM bookings
			WHERE property_id = ? AND source_feed_id = ? AND external_uid = ?
		`, booking.PropertyID, domain.ManualFeedID, booking.ExternalUID))
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		b := *booking
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		now := s.store.now()
		b.SourceFeedID = domain.ManualFeedID
		b.IsActive = true
		if b.ManuallyResolvedAt == nil {
			b.ManuallyResolvedAt = &now
		}
		b.CreatedAt, b.UpdatedAt = now, now
		if err := insertBooking(ctx, tx, &b); err != nil {
			return err
		}
		out = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get retrieves a booking by ID.
func (s *bookingStore) Get(ctx context.Context, id string) (*domain.Booking, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// ListActiveByProperties returns active bookings ordered by check-in.
func (s *bookingStore) ListActiveByProperties(ctx context.Context, propertyIDs []string) ([]*domain.Booking, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	return s.query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE is_active = 1 AND property_id IN (`+placeholders(len(propertyIDs))+`)
		ORDER BY check_in, check_out, id
	`, stringArgs(propertyIDs)...)
}

// ListByFeed returns every booking from a feed.
func (s *bookingStore) ListByFeed(ctx context.Context, feedID string) ([]*domain.Booking, error) {
	return s.query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE source_feed_id = ?
		ORDER BY check_in, id
	`, feedID)
}

// DeactivateMissing retires active bookings of a feed absent from keep.
func (s *bookingStore) DeactivateMissing(ctx context.Context, feedID string, keep []string) (int, error) {
	query := `UPDATE bookings SET is_active = 0, updated_at = ? WHERE source_feed_id = ? AND is_active = 1`
	args := []any{formatTime(s.store.now()), feedID}
	if len(keep) > 0 {
		query += ` AND external_uid NOT IN (` + placeholders(len(keep)) + `)`
		args = append(args, stringArgs(keep)...)
	}

	res, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deactivating bookings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return int(n), nil
}

// ApplyEnrichment writes matcher output unless the booking is manual.
func (s *bookingStore) ApplyEnrichment(ctx context.Context, e domain.BookingEnrichment) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE bookings SET
			matched_fact_id = COALESCE(?, matched_fact_id),
			guest_name = COALESCE(?, guest_name),
			guest_count = CASE WHEN ? > 0 THEN ? ELSE guest_count END,
			updated_at = ?
		WHERE id = ? AND manually_resolved_at IS NULL
	`, nullString(e.MatchedFactID), nullString(e.GuestName), e.GuestCount, e.GuestCount,
		formatTime(s.store.now()), e.BookingID)
	if err != nil {
		return fmt.Errorf("enriching booking: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.Get(ctx, e.BookingID); err != nil {
		return err
	}
	return fmt.Errorf("booking %s: %w", e.BookingID, domain.ErrManualBooking)
}

// MarkManuallyResolved records a human decision on a booking.
func (s *bookingStore) MarkManuallyResolved(ctx context.Context, e domain.BookingEnrichment) error {
	now := formatTime(s.store.now())
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE bookings SET
			matched_fact_id = COALESCE(?, matched_fact_id),
			guest_name = COALESCE(?, guest_name),
			guest_count = CASE WHEN ? > 0 THEN ? ELSE guest_count END,
			manually_resolved_at = ?,
			updated_at = ?
		WHERE id = ?
	`, nullString(e.MatchedFactID), nullString(e.GuestName), e.GuestCount, e.GuestCount,
		now, now, e.BookingID)
	if err != nil {
		return fmt.Errorf("resolving booking: %w", err)
	}
	return requireAffected(res, e.BookingID)
}

func (s *bookingStore) query(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookings: %w", err)
	}
	return bookings, nil
}

func insertBooking(ctx context.Context, tx *sql.Tx, b *domain.Booking) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.PropertyID, b.SourceFeedID, b.ExternalUID,
		b.CheckIn.String(), b.CheckOut.String(),
		nullString(b.Summary), nullString(b.GuestName), b.GuestCount, nullString(b.Platform),
		boolToInt(b.IsActive), nullString(b.MatchedFactID), formatTimePtr(b.ManuallyResolvedAt),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting booking: %w", err)
	}
	return nil
}

// scanBooking scans one booking row.
func scanBooking(row scanner) (*domain.Booking, error) {
	var b domain.Booking
	var checkIn, checkOut, createdAt, updatedAt string
	var summary, guestName, platform, matchedFactID, manualAt sql.NullString
	var active int

	if err := row.Scan(&b.ID, &b.PropertyID, &b.SourceFeedID, &b.ExternalUID,
		&checkIn, &checkOut, &summary, &guestName, &b.GuestCount, &platform,
		&active, &matchedFactID, &manualAt, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err, "booking")
	}

	var err error
	if b.CheckIn, err = parseDate(checkIn); err != nil {
		return nil, err
	}
	if b.CheckOut, err = parseDate(checkOut); err != nil {
		return nil, err
	}
	b.Summary = summary.String
	b.GuestName = guestName.String
	b.Platform = platform.String
	b.IsActive = active == 1
	b.MatchedFactID = matchedFactID.String
	b.ManuallyResolvedAt = parseTimePtr(manualAt)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}
