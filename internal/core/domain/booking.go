package domain

import (
	"strings"
	"time"
	"unicode"
)

// ManualFeedID is the SourceFeedID used for bookings created by a person
// resolving a review item rather than by a calendar feed.
const ManualFeedID = "manual"

// Booking is one occupied or blocked interval on a property's calendar.
// Calendar bookings are keyed by (PropertyID, SourceFeedID, ExternalUID).
// Bookings are never deleted; feed re-syncs retire them via IsActive.
type Booking struct {
	// ID is the unique identifier (UUID).
	ID string

	// PropertyID is the property whose calendar this interval belongs to.
	PropertyID string

	// SourceFeedID is the feed connection the booking came from,
	// or ManualFeedID for human-created bookings.
	SourceFeedID string

	// ExternalUID is the event UID within the feed.
	ExternalUID string

	// CheckIn and CheckOut delimit [CheckIn, CheckOut).
	CheckIn  Date
	CheckOut Date

	// Summary is the raw event title from the feed.
	Summary string

	// GuestName is the guest identity, often a placeholder on feeds.
	GuestName string

	// GuestCount is the number of guests, 0 when unknown.
	GuestCount int

	// Platform is the source label (e.g. "Lodgify", "Airbnb").
	Platform string

	// IsActive is false once the event disappears from its feed.
	IsActive bool

	// MatchedFactID is the fact that enriched this booking, if any.
	MatchedFactID string

	// ManuallyResolvedAt marks a human override; automated enrichment
	// never touches a booking once this is set.
	ManuallyResolvedAt *time.Time

	// CreatedAt is when the booking was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the booking was last written.
	UpdatedAt time.Time
}

// BookingKind classifies a booking for suppression and buffer generation.
type BookingKind string

const (
	// KindReal is a concrete guest stay, named or anonymised.
	KindReal BookingKind = "real"

	// KindGenericBlock is a provider placeholder such as "Not available".
	KindGenericBlock BookingKind = "generic_block"

	// KindHold is any other non-guest block (cleaning, owner, maintenance).
	KindHold BookingKind = "hold"
)

// genericBlockLabels are placeholder titles feeds emit alongside concrete bookings.
var genericBlockLabels = map[string]bool{
	"not available":           true,
	"airbnb (not available)":  true,
	"closed period":           true,
	"closed - not available":  true,
	"unavailable":             true,
	"blocked":                 true,
	"not available (blocked)": true,
}

// holdKeywords flag a block as non-guest occupancy when they appear as a word.
var holdKeywords = map[string]bool{
	"cleaning":    true,
	"maintenance": true,
	"blocked":     true,
	"owner":       true,
	"hold":        true,
	"turnover":    true,
}

// Stay returns the booking's date interval.
func (b *Booking) Stay() Stay {
	return Stay{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

// IsManual reports whether a person has overridden this booking.
func (b *Booking) IsManual() bool {
	return b.ManuallyResolvedAt != nil
}

// IsGenericBlock reports whether the booking is a provider placeholder block.
func (b *Booking) IsGenericBlock() bool {
	return genericBlockLabels[normaliseLabel(b.Summary)] || genericBlockLabels[normaliseLabel(b.GuestName)]
}

// IsHold reports whether the booking represents non-guest occupancy.
// Generic blocks are holds. "Reserved" and "Guest" are anonymised real stays.
func (b *Booking) IsHold() bool {
	if b.IsGenericBlock() {
		return true
	}
	summary := normaliseLabel(b.Summary)
	name := normaliseLabel(b.GuestName)
	if summary == "" && name == "" {
		return true
	}
	for _, word := range append(labelWords(summary), labelWords(name)...) {
		if holdKeywords[word] {
			return true
		}
	}
	return false
}

// Kind returns the booking's classification.
func (b *Booking) Kind() BookingKind {
	switch {
	case b.IsGenericBlock():
		return KindGenericBlock
	case b.IsHold():
		return KindHold
	default:
		return KindReal
	}
}

// IsReal reports whether the booking is a concrete guest stay.
func (b *Booking) IsReal() bool {
	return b.Kind() == KindReal
}

// DisplayName returns the best label for the booking.
func (b *Booking) DisplayName() string {
	if b.GuestName != "" {
		return b.GuestName
	}
	if b.Summary != "" {
		return b.Summary
	}
	return "(untitled)"
}

func labelWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func normaliseLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// BookingEnrichment is a write of fact-derived identity onto a booking.
type BookingEnrichment struct {
	BookingID     string
	MatchedFactID string

	// GuestName is empty when the booking's name must be kept.
	GuestName string

	// GuestCount is 0 when the booking's count must be kept.
	GuestCount int
}

// guestFieldsLocked reports whether feed updates must keep the guest fields.
func (b *Booking) guestFieldsLocked() bool {
	return b.MatchedFactID != "" || b.IsManual()
}

// MergeFeed copies the feed-owned fields of in onto b and reactivates it.
// Guest name and count are kept once b is matched or manually resolved.
// Reports whether anything changed.
func (b *Booking) MergeFeed(in *Booking) bool {
	changed := false
	set := func(dst *string, v string) {
		if *dst != v {
			*dst = v
			changed = true
		}
	}

	if b.CheckIn != in.CheckIn || b.CheckOut != in.CheckOut {
		b.CheckIn, b.CheckOut = in.CheckIn, in.CheckOut
		changed = true
	}
	set(&b.Summary, in.Summary)
	set(&b.Platform, in.Platform)
	if !b.IsActive {
		b.IsActive = true
		changed = true
	}
	if !b.guestFieldsLocked() {
		set(&b.GuestName, in.GuestName)
		if b.GuestCount != in.GuestCount {
			b.GuestCount = in.GuestCount
			changed = true
		}
	}
	return changed
}

// Enrich applies e to b. Empty name and zero count keep the current values.
func (b *Booking) Enrich(e BookingEnrichment) {
	if e.MatchedFactID != "" {
		b.MatchedFactID = e.MatchedFactID
	}
	if e.GuestName != "" {
		b.GuestName = e.GuestName
	}
	if e.GuestCount > 0 {
		b.GuestCount = e.GuestCount
	}
}
