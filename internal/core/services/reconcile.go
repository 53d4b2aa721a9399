package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
	"github.com/custodia-labs/rentsync/internal/logger"
	"github.com/custodia-labs/rentsync/internal/reconcile"
)

// Ensure ReconcileService implements the interface.
var _ driving.ReconcileService = (*ReconcileService)(nil)

// ReconcileService joins a mailbox's facts against the bookings of the
// properties it reaches and records the outcome of every fact.
type ReconcileService struct {
	stores Stores
	locks  *LockTable
}

// NewReconcileService creates a reconcile service sharing the sync lock table.
func NewReconcileService(stores Stores, locks *LockTable) *ReconcileService {
	return &ReconcileService{stores: stores, locks: locks}
}

// ReconcileConnection re-runs matching for one mailbox connection
// outside a sync. It fails fast if a run for the connection is in flight.
func (s *ReconcileService) ReconcileConnection(ctx context.Context, connectionID string) (*driving.ReconcileSummary, error) {
	conn, err := s.stores.Connections.Get(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	if !conn.Type.IsMailbox() {
		return nil, fmt.Errorf("connection %s is a %s feed: %w", conn.ID, conn.Type, domain.ErrUnsupportedType)
	}

	release, err := s.locks.TryAcquire(connectionID)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.reconcile(ctx, conn)
}

// reconcile does the work; the caller holds the connection lock.
// Per-fact failures are collected and do not stop the remaining facts.
func (s *ReconcileService) reconcile(ctx context.Context, conn *domain.Connection) (*driving.ReconcileSummary, error) {
	summary := &driving.ReconcileSummary{Outcomes: make(map[domain.MatchOutcome]int)}

	facts, err := s.stores.Facts.ListByConnection(ctx, conn.ID)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	if len(facts) == 0 {
		return summary, nil
	}

	bookings, err := s.stores.Bookings.ListActiveByProperties(ctx, conn.PropertyIDs)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	owners, err := s.owners(ctx, bookings)
	if err != nil {
		return nil, err
	}

	var (
		errs    []error
		live    []*domain.ReservationFact
		reviews []*domain.ReviewItem
	)
	for _, fact := range facts {
		summary.Facts++
		review, err := s.stores.Reviews.GetByFact(ctx, fact.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("fact %s: get review item: %w", fact.ID, err))
			continue
		}
		if review != nil && review.Status == domain.ReviewDismissed {
			summary.Outcomes[domain.MatchReviewClosed]++
			continue
		}
		live = append(live, fact)
		reviews = append(reviews, review)
	}

	decisions := reconcile.MatchAll(live, bookings, owners)
	for i, fact := range live {
		outcome, err := s.apply(ctx, fact, decisions[i], reviews[i], summary)
		if err != nil {
			errs = append(errs, fmt.Errorf("fact %s: %w", fact.ID, err))
			continue
		}
		summary.Outcomes[outcome]++
	}

	logger.Info("Reconciled %d facts for %s: %d enriched, %d new review items",
		summary.Facts, conn.ID, summary.BookingsEnriched, summary.ReviewItemsCreated)
	return summary, errors.Join(errs...)
}

// owners maps every fact that already claims a booking to its confirmation code.
func (s *ReconcileService) owners(ctx context.Context, bookings []*domain.Booking) (map[string]string, error) {
	var ids []string
	for _, b := range bookings {
		if b.MatchedFactID != "" {
			ids = append(ids, b.MatchedFactID)
		}
	}
	if len(ids) == 0 {
		return make(map[string]string), nil
	}
	codes, err := s.stores.Facts.ConfirmationCodes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load claimed facts: %w", err)
	}
	return codes, nil
}

// apply writes one decision: enrichment, date correction and the review item.
func (s *ReconcileService) apply(
	ctx context.Context,
	fact *domain.ReservationFact,
	d reconcile.Decision,
	review *domain.ReviewItem,
	summary *driving.ReconcileSummary,
) (domain.MatchOutcome, error) {
	logger.Debug("fact %s (%s %s): %s, %d candidates", fact.ID, fact.GuestName, fact.Stay(), d.Outcome, len(d.Candidates))

	if d.Enrichment != nil {
		err := s.stores.Bookings.ApplyEnrichment(ctx, *d.Enrichment)
		switch {
		case errors.Is(err, domain.ErrManualBooking):
			// Resolved by a person since the bookings were listed.
			return domain.MatchManualOverride, nil
		case err != nil:
			return "", fmt.Errorf("enrich booking %s: %w", d.Enrichment.BookingID, err)
		}
		d.Booking.Enrich(*d.Enrichment)
		summary.BookingsEnriched++
	}

	if d.CorrectedStay != nil {
		if err := s.stores.Facts.UpdateDates(ctx, fact.ID, *d.CorrectedStay); err != nil {
			return "", fmt.Errorf("correct fact dates: %w", err)
		}
		fact.CheckIn, fact.CheckOut = d.CorrectedStay.CheckIn, d.CorrectedStay.CheckOut
		summary.FactsCorrected++
	}

	switch {
	case d.NeedsReview():
		if err := s.surface(ctx, fact, d, review, summary); err != nil {
			return "", err
		}
	case d.Booking != nil && review != nil && review.Status == domain.ReviewOpen:
		// A later feed sync produced the booking the fact was waiting for.
		if err := s.stores.Reviews.Close(ctx, review.ID, domain.ReviewResolved, d.Booking.ID); err != nil {
			return "", fmt.Errorf("close review item: %w", err)
		}
		logger.Info("Review item %s resolved automatically by booking %s", review.ID, d.Booking.ID)
	}

	return d.Outcome, nil
}

// surface opens or refreshes the fact's review item. An unchanged open
// item is left alone so repeated runs leave identical state.
func (s *ReconcileService) surface(
	ctx context.Context,
	fact *domain.ReservationFact,
	d reconcile.Decision,
	existing *domain.ReviewItem,
	summary *driving.ReconcileSummary,
) error {
	candidates := d.CandidateIDs()
	if existing != nil {
		if existing.Status.IsClosed() {
			return nil
		}
		if existing.Reason == d.ReviewReason() && slices.Equal(existing.CandidateBookingIDs, candidates) &&
			existing.CheckIn == fact.CheckIn && existing.CheckOut == fact.CheckOut {
			return nil
		}
	}

	item, created, err := s.stores.Reviews.Upsert(ctx, domain.NewReviewItem(fact, d.ReviewReason(), candidates))
	if err != nil {
		return fmt.Errorf("upsert review item: %w", err)
	}
	if created {
		summary.ReviewItemsCreated++
		logger.Info("Review item %s opened for fact %s: %s", item.ID, fact.ID, item.Reason)
	}
	return nil
}
