package domain

import "time"

// ReviewReason explains why a fact needs a human decision.
type ReviewReason string

const (
	// ReviewNoCandidates means no booking fell inside the date window.
	ReviewNoCandidates ReviewReason = "no_candidates"

	// ReviewAmbiguous means more than one booking fell inside the window.
	ReviewAmbiguous ReviewReason = "ambiguous"
)

// ReviewStatus is the lifecycle state of a review item.
type ReviewStatus string

const (
	ReviewOpen      ReviewStatus = "open"
	ReviewResolved  ReviewStatus = "resolved"
	ReviewDismissed ReviewStatus = "dismissed"
)

// IsClosed reports whether a person has acted on the item.
func (s ReviewStatus) IsClosed() bool {
	return s == ReviewResolved || s == ReviewDismissed
}

// ReviewItem surfaces an unmatched or ambiguous fact for manual resolution.
// There is at most one review item per fact.
type ReviewItem struct {
	// ID is the unique identifier (UUID).
	ID string

	// FactID is the fact under review. Unique.
	FactID string

	// ConnectionID is the mailbox the fact came from.
	ConnectionID string

	// Reason is why the fact could not be matched automatically.
	Reason ReviewReason

	// CandidateBookingIDs lists suggested bookings, empty for no_candidates.
	CandidateBookingIDs []string

	// Status is open until assigned or dismissed.
	Status ReviewStatus

	// ResolvedBookingID is the booking chosen on assignment.
	ResolvedBookingID string

	// Snapshot of the extracted fields shown to the operator.
	GuestName        string
	GuestCount       int
	ConfirmationCode string
	CheckIn          Date
	CheckOut         Date
	ListingName      string
	Confidence       float64

	// CreatedAt is when the item was first raised.
	CreatedAt time.Time

	// UpdatedAt is when the item was last written.
	UpdatedAt time.Time

	// ResolvedAt is when a person closed the item.
	ResolvedAt *time.Time
}

// NewReviewItem builds an open review item for a fact.
func NewReviewItem(fact *ReservationFact, reason ReviewReason, candidates []string) *ReviewItem {
	return &ReviewItem{
		FactID:              fact.ID,
		ConnectionID:        fact.ConnectionID,
		Reason:              reason,
		CandidateBookingIDs: candidates,
		Status:              ReviewOpen,
		GuestName:           fact.GuestName,
		GuestCount:          fact.GuestCount,
		ConfirmationCode:    fact.ConfirmationCode,
		CheckIn:             fact.CheckIn,
		CheckOut:            fact.CheckOut,
		ListingName:         fact.ListingName,
		Confidence:          fact.Confidence,
	}
}

// ReviewFilter narrows review item listings.
type ReviewFilter struct {
	// Status restricts to one status; empty means all.
	Status ReviewStatus

	// ConnectionID restricts to one mailbox; empty means all.
	ConnectionID string
}

// Resolution is a person's decision on a review item.
type Resolution struct {
	// ReviewID is the item being resolved.
	ReviewID string

	// PropertyID is the property the fact belongs to.
	PropertyID string

	// BookingID optionally pins an existing booking.
	BookingID string
}
