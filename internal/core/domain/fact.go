package domain

import (
	"fmt"
	"strings"
	"time"
)

// ReservationFact is a guest/date claim extracted from one confirmation email.
// SourceMessageID is the idempotency key: re-processing the same message
// updates the existing fact rather than creating another.
type ReservationFact struct {
	// ID is the unique identifier (UUID).
	ID string

	// SourceMessageID identifies the originating message. Immutable.
	SourceMessageID string

	// ConnectionID is the mailbox connection the message came from.
	ConnectionID string

	// GuestName may be a single token ("Eric").
	GuestName string

	// GuestCount is at least 1.
	GuestCount int

	// ConfirmationCode is an opaque platform code (e.g. "HMABCD1234").
	ConfirmationCode string

	// CheckIn and CheckOut are calendar dates; CheckIn < CheckOut.
	CheckIn  Date
	CheckOut Date

	// ListingName is optional free text naming the listing.
	ListingName string

	// Platform is the inferred booking platform (e.g. "Airbnb").
	Platform string

	// Confidence reflects extraction certainty in [0, 1].
	Confidence float64

	// CreatedAt is when the fact was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the fact was last written.
	UpdatedAt time.Time
}

// Stay returns the fact's date interval.
func (f *ReservationFact) Stay() Stay {
	return Stay{CheckIn: f.CheckIn, CheckOut: f.CheckOut}
}

// Validate checks the invariants a fact must satisfy before it is stored.
func (f *ReservationFact) Validate() error {
	if f.SourceMessageID == "" {
		return fmt.Errorf("fact has no source message id: %w", ErrInvalidInput)
	}
	if f.CheckIn.IsZero() || f.CheckOut.IsZero() {
		return fmt.Errorf("fact %s is missing dates: %w", f.SourceMessageID, ErrInvalidInput)
	}
	if !f.CheckIn.Before(f.CheckOut) {
		return fmt.Errorf("fact %s: check-in %s not before check-out %s: %w",
			f.SourceMessageID, f.CheckIn, f.CheckOut, ErrInvalidDateRange)
	}
	if f.GuestCount < 1 {
		return fmt.Errorf("fact %s: guest count %d: %w", f.SourceMessageID, f.GuestCount, ErrInvalidInput)
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("fact %s: confidence %.2f out of range: %w", f.SourceMessageID, f.Confidence, ErrInvalidInput)
	}
	return nil
}

// HasPlaceholderName reports whether the guest name carries no identity.
func (f *ReservationFact) HasPlaceholderName() bool {
	return IsPlaceholderGuestName(f.GuestName)
}

// placeholderGuestNames are names calendars and templates use in place of a guest.
var placeholderGuestNames = map[string]bool{
	"":         true,
	"guest":    true,
	"reserved": true,
	"guests":   true,
	"n/a":      true,
	"unknown":  true,
}

// IsPlaceholderGuestName reports whether name stands in for an unknown guest.
func IsPlaceholderGuestName(name string) bool {
	return placeholderGuestNames[strings.ToLower(strings.TrimSpace(name))]
}
