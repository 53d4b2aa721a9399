package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
	"github.com/custodia-labs/rentsync/internal/logger"
	"github.com/custodia-labs/rentsync/internal/reconcile"
)

// Ensure ReviewService implements the interface.
var _ driving.ReviewService = (*ReviewService)(nil)

// ReviewService applies human decisions to review items.
type ReviewService struct {
	stores Stores
}

// NewReviewService creates a new review service.
func NewReviewService(stores Stores) *ReviewService {
	return &ReviewService{stores: stores}
}

// List returns review items matching filter.
func (s *ReviewService) List(ctx context.Context, filter domain.ReviewFilter) ([]*domain.ReviewItem, error) {
	return s.stores.Reviews.List(ctx, filter)
}

// Get returns one review item.
func (s *ReviewService) Get(ctx context.Context, id string) (*domain.ReviewItem, error) {
	return s.stores.Reviews.Get(ctx, id)
}

// Assign resolves a review item onto a property. With an explicit booking
// the fact is attached to it; otherwise the single window candidate on the
// property is used, or a manual booking is created when there is none.
// Every booking it touches is stamped as manually resolved.
func (s *ReviewService) Assign(ctx context.Context, res domain.Resolution) (*domain.Booking, error) {
	item, err := s.openItem(ctx, res.ReviewID)
	if err != nil {
		return nil, err
	}
	fact, err := s.stores.Facts.Get(ctx, item.FactID)
	if err != nil {
		return nil, fmt.Errorf("get fact %s: %w", item.FactID, err)
	}

	var target *domain.Booking
	if res.BookingID != "" {
		target, err = s.stores.Bookings.Get(ctx, res.BookingID)
		if err != nil {
			return nil, fmt.Errorf("get booking %s: %w", res.BookingID, err)
		}
		if res.PropertyID != "" && target.PropertyID != res.PropertyID {
			return nil, fmt.Errorf("booking %s is not on property %s: %w", target.ID, res.PropertyID, domain.ErrInvalidInput)
		}
	} else {
		target, err = s.placeOnProperty(ctx, fact, res.PropertyID)
		if err != nil {
			return nil, err
		}
	}

	if target.SourceFeedID != domain.ManualFeedID || target.MatchedFactID != fact.ID {
		if err := s.stores.Bookings.MarkManuallyResolved(ctx, manualEnrichment(target.ID, fact)); err != nil {
			return nil, fmt.Errorf("resolve booking %s: %w", target.ID, err)
		}
	}
	if err := s.stores.Reviews.Close(ctx, item.ID, domain.ReviewResolved, target.ID); err != nil {
		return nil, err
	}
	logger.Info("Review item %s assigned to booking %s", item.ID, target.ID)

	return s.stores.Bookings.Get(ctx, target.ID)
}

// placeOnProperty finds or creates the booking a fact belongs to on propertyID.
func (s *ReviewService) placeOnProperty(ctx context.Context, fact *domain.ReservationFact, propertyID string) (*domain.Booking, error) {
	if propertyID == "" {
		return nil, fmt.Errorf("property or booking is required: %w", domain.ErrInvalidInput)
	}
	if _, err := s.stores.Properties.Get(ctx, propertyID); err != nil {
		return nil, fmt.Errorf("get property %s: %w", propertyID, err)
	}

	active, err := s.stores.Bookings.ListActiveByProperties(ctx, []string{propertyID})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	var candidates []*domain.Booking
	for _, b := range active {
		if b.MatchedFactID == fact.ID {
			return b, nil
		}
		if b.IsReal() && b.MatchedFactID == "" && reconcile.InWindow(fact.Stay(), b) {
			candidates = append(candidates, b)
		}
	}
	switch len(candidates) {
	case 0:
	case 1:
		return candidates[0], nil
	default:
		return nil, fmt.Errorf("%d bookings match fact %s, choose one: %w", len(candidates), fact.ID, domain.ErrAmbiguous)
	}

	if clash := reconcile.OverlappingReal(propertyID, fact.Stay(), active); clash != nil {
		return nil, fmt.Errorf("stay %s clashes with booking %s: %w", fact.Stay(), clash.ID, domain.ErrOverlap)
	}

	name := fact.GuestName
	if fact.HasPlaceholderName() {
		name = ""
	}
	return s.stores.Bookings.CreateManual(ctx, &domain.Booking{
		PropertyID:    propertyID,
		ExternalUID:   fact.ID,
		CheckIn:       fact.CheckIn,
		CheckOut:      fact.CheckOut,
		Summary:       fact.ConfirmationCode,
		GuestName:     name,
		GuestCount:    fact.GuestCount,
		Platform:      fact.Platform,
		MatchedFactID: fact.ID,
	})
}

// Dismiss closes a review item without touching any booking.
func (s *ReviewService) Dismiss(ctx context.Context, id string) error {
	item, err := s.openItem(ctx, id)
	if err != nil {
		return err
	}
	if err := s.stores.Reviews.Close(ctx, item.ID, domain.ReviewDismissed, ""); err != nil {
		return err
	}
	logger.Info("Review item %s dismissed", item.ID)
	return nil
}

func (s *ReviewService) openItem(ctx context.Context, id string) (*domain.ReviewItem, error) {
	item, err := s.stores.Reviews.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review item %s: %w", id, err)
	}
	if item.Status.IsClosed() {
		return nil, fmt.Errorf("review item %s is %s: %w", id, item.Status, domain.ErrReviewClosed)
	}
	return item, nil
}

func manualEnrichment(bookingID string, fact *domain.ReservationFact) domain.BookingEnrichment {
	e := domain.BookingEnrichment{BookingID: bookingID, MatchedFactID: fact.ID}
	if !fact.HasPlaceholderName() {
		e.GuestName = fact.GuestName
		e.GuestCount = fact.GuestCount
	}
	return e
}
