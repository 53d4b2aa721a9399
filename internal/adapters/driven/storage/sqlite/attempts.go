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

// attemptStore implements driven.AttemptStore.
type attemptStore struct {
	store *Store
}

var _ driven.AttemptStore = (*attemptStore)(nil)

const attemptColumns = `source_message_id, connection_id, subject, body_source,
	classification, outcome, reason, trace, fact_id, attempted_at`

// Record upserts an attempt keyed by its message.
func (s *attemptStore) Record(ctx context.Context, a *domain.ExtractionAttempt) error {
	if a == nil || a.SourceMessageID == "" {
		return domain.ErrInvalidInput
	}

	trace, err := json.Marshal(a.Trace)
	if err != nil {
		return fmt.Errorf("marshalling trace: %w", err)
	}

	attemptedAt := a.AttemptedAt
	if attemptedAt.IsZero() {
		attemptedAt = s.store.now()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO extraction_attempts (`+attemptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_message_id) DO UPDATE SET
			connection_id = excluded.connection_id,
			subject = excluded.subject,
			body_source = excluded.body_source,
			classification = excluded.classification,
			outcome = excluded.outcome,
			reason = excluded.reason,
			trace = excluded.trace,
			fact_id = excluded.fact_id,
			attempted_at = excluded.attempted_at
	`, a.SourceMessageID, a.ConnectionID, nullString(a.Subject), nullString(a.BodySource),
		string(a.Classification), string(a.Outcome), nullString(string(a.Reason)),
		string(trace), nullString(a.FactID), formatTime(attemptedAt))
	if err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}
	return nil
}

// Get retrieves the attempt for a message, or nil.
func (s *attemptStore) Get(ctx context.Context, sourceMessageID string) (*domain.ExtractionAttempt, error) {
	a, err := scanAttempt(s.store.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM extraction_attempts WHERE source_message_id = ?`, sourceMessageID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// Processed returns which of the ids already have an attempt.
func (s *attemptStore) Processed(ctx context.Context, sourceMessageIDs []string) (map[string]bool, error) {
	seen := make(map[string]bool, len(sourceMessageIDs))
	if len(sourceMessageIDs) == 0 {
		return seen, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source_message_id FROM extraction_attempts
		WHERE source_message_id IN (`+placeholders(len(sourceMessageIDs))+`)
	`, stringArgs(sourceMessageIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning attempt id: %w", err)
		}
		seen[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attempts: %w", err)
	}
	return seen, nil
}

// List returns a mailbox's attempts, newest first.
func (s *attemptStore) List(
	ctx context.Context,
	connectionID string,
	outcome domain.AttemptOutcome,
	limit int,
) ([]*domain.ExtractionAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM extraction_attempts WHERE connection_id = ?`
	args := []any{connectionID}
	if outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, string(outcome))
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	query += ` ORDER BY attempted_at DESC, source_message_id LIMIT ?`
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*domain.ExtractionAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attempts: %w", err)
	}
	return attempts, nil
}

// scanAttempt scans one attempt row.
func scanAttempt(row scanner) (*domain.ExtractionAttempt, error) {
	var a domain.ExtractionAttempt
	var classification, outcome, trace, attemptedAt string
	var subject, bodySource, reason, factID sql.NullString

	if err := row.Scan(&a.SourceMessageID, &a.ConnectionID, &subject, &bodySource,
		&classification, &outcome, &reason, &trace, &factID, &attemptedAt); err != nil {
		return nil, notFound(err, "attempt")
	}

	if trace != "" && trace != jsonNull {
		if err := json.Unmarshal([]byte(trace), &a.Trace); err != nil {
			return nil, fmt.Errorf("unmarshalling trace: %w", err)
		}
	}
	a.Subject = subject.String
	a.BodySource = bodySource.String
	a.Classification = domain.MessageClass(classification)
	a.Outcome = domain.AttemptOutcome(outcome)
	a.Reason = domain.RejectReason(reason.String)
	a.FactID = factID.String
	a.AttemptedAt = parseTime(attemptedAt)
	return &a, nil
}
