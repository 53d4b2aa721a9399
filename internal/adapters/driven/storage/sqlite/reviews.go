package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
)

// reviewStore implements driven.ReviewStore.
type reviewStore struct {
	store *Store
}

var _ driven.ReviewStore = (*reviewStore)(nil)

const reviewColumns = `id, fact_id, connection_id, reason, candidate_booking_ids, status,
	resolved_booking_id, guest_name, guest_count, confirmation_code, check_in, check_out,
	listing_name, confidence, created_at, updated_at, resolved_at`

// Upsert raises or refreshes the item for a fact.
func (s *reviewStore) Upsert(ctx context.Context, item *domain.ReviewItem) (*domain.ReviewItem, bool, error) {
	if item.FactID == "" {
		return nil, false, fmt.Errorf("review item has no fact: %w", domain.ErrInvalidInput)
	}

	candidates, err := json.Marshal(nonNil(item.CandidateBookingIDs))
	if err != nil {
		return nil, false, fmt.Errorf("marshalling candidates: %w", err)
	}

	var stored *domain.ReviewItem
	created := false
	err = s.store.inTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanReview(tx.QueryRowContext(ctx,
			`SELECT `+reviewColumns+` FROM review_items WHERE fact_id = ?`, item.FactID))
		now := s.store.now()

		switch {
		case errors.Is(err, domain.ErrNotFound):
			it := *item
			if it.ID == "" {
				it.ID = uuid.New().String()
			}
			it.Status = domain.ReviewOpen
			it.CreatedAt, it.UpdatedAt = now, now
			_, err := tx.ExecContext(ctx, `
				INSERT INTO review_items (`+reviewColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, it.ID, it.FactID, it.ConnectionID, string(it.Reason), string(candidates), string(it.Status),
				nullString(it.ResolvedBookingID), nullString(it.GuestName), it.GuestCount,
				nullString(it.ConfirmationCode), it.CheckIn.String(), it.CheckOut.String(),
				nullString(it.ListingName), it.Confidence, formatTime(now), formatTime(now), nil)
			if err != nil {
				return fmt.Errorf("inserting review item: %w", err)
			}
			stored, created = &it, true
			return nil
		case err != nil:
			return err
		}

		if existing.Status.IsClosed() {
			stored = existing
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE review_items SET reason = ?, candidate_booking_ids = ?, guest_name = ?,
				guest_count = ?, confirmation_code = ?, check_in = ?, check_out = ?,
				listing_name = ?, confidence = ?, updated_at = ?
			WHERE id = ?
		`, string(item.Reason), string(candidates), nullString(item.GuestName), item.GuestCount,
			nullString(item.ConfirmationCode), item.CheckIn.String(), item.CheckOut.String(),
			nullString(item.ListingName), item.Confidence, formatTime(now), existing.ID)
		if err != nil {
			return fmt.Errorf("updating review item: %w", err)
		}

		refreshed := *item
		refreshed.ID = existing.ID
		refreshed.Status = existing.Status
		refreshed.CreatedAt = existing.CreatedAt
		refreshed.UpdatedAt = now
		stored = &refreshed
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// Get retrieves an item by ID.
func (s *reviewStore) Get(ctx context.Context, id string) (*domain.ReviewItem, error) {
	return scanReview(s.store.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM review_items WHERE id = ?`, id))
}

// GetByFact retrieves the item for a fact, or nil.
func (s *reviewStore) GetByFact(ctx context.Context, factID string) (*domain.ReviewItem, error) {
	item, err := scanReview(s.store.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM review_items WHERE fact_id = ?`, factID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return item, err
}

// List returns items matching filter, newest first.
func (s *reviewStore) List(ctx context.Context, filter domain.ReviewFilter) ([]*domain.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_items WHERE 1 = 1`
	var args []any
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.ConnectionID != "" {
		query += ` AND connection_id = ?`
		args = append(args, filter.ConnectionID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying review items: %w", err)
	}
	defer rows.Close()

	var items []*domain.ReviewItem
	for rows.Next() {
		item, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating review items: %w", err)
	}
	return items, nil
}

// Close sets a terminal status on an open item.
func (s *reviewStore) Close(ctx context.Context, id string, status domain.ReviewStatus, bookingID string) error {
	if !status.IsClosed() {
		return fmt.Errorf("status %q is not terminal: %w", status, domain.ErrInvalidInput)
	}

	now := formatTime(s.store.now())
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE review_items SET status = ?, resolved_booking_id = ?, resolved_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(status), nullString(bookingID), now, now, id, string(domain.ReviewOpen))
	if err != nil {
		return fmt.Errorf("closing review item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("review item %s: %w", id, domain.ErrReviewClosed)
}

// scanReview scans one review item row.
func scanReview(row scanner) (*domain.ReviewItem, error) {
	var it domain.ReviewItem
	var reason, status, candidates, checkIn, checkOut, createdAt, updatedAt string
	var resolvedBooking, guestName, code, listing, resolvedAt sql.NullString

	if err := row.Scan(&it.ID, &it.FactID, &it.ConnectionID, &reason, &candidates, &status,
		&resolvedBooking, &guestName, &it.GuestCount, &code, &checkIn, &checkOut,
		&listing, &it.Confidence, &createdAt, &updatedAt, &resolvedAt); err != nil {
		return nil, notFound(err, "review item")
	}

	if candidates != "" && candidates != jsonNull {
		if err := json.Unmarshal([]byte(candidates), &it.CandidateBookingIDs); err != nil {
			return nil, fmt.Errorf("unmarshalling candidates: %w", err)
		}
	}

	var err error
	if it.CheckIn, err = parseDate(checkIn); err != nil {
		return nil, err
	}
	if it.CheckOut, err = parseDate(checkOut); err != nil {
		return nil, err
	}
	it.Reason = domain.ReviewReason(reason)
	it.Status = domain.ReviewStatus(status)
	it.ResolvedBookingID = resolvedBooking.String
	it.GuestName = guestName.String
	it.ConfirmationCode = code.String
	it.ListingName = listing.String
	it.CreatedAt = parseTime(createdAt)
	it.UpdatedAt = parseTime(updatedAt)
	it.ResolvedAt = parseTimePtr(resolvedAt)
	return &it, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
