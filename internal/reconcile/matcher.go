package reconcile

import (
	"sort"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// WindowDays is the tolerance applied to both check-in and check-out.
const WindowDays = 1

// Decision is the matcher's verdict for one fact.
type Decision struct {
	Outcome domain.MatchOutcome

	// Booking is the single matched booking, if any.
	Booking *domain.Booking

	// Candidates are the bookings inside the window, ordered by ID.
	Candidates []*domain.Booking

	// Enrichment is set when the booking must be written.
	Enrichment *domain.BookingEnrichment

	// CorrectedStay is set when the fact's dates differ from the matched booking.
	CorrectedStay *domain.Stay
}

// NeedsReview reports whether the fact must be surfaced to a person.
func (d Decision) NeedsReview() bool {
	return d.Outcome == domain.MatchNoCandidates || d.Outcome == domain.MatchAmbiguous
}

// ReviewReason maps a review outcome to its reason.
func (d Decision) ReviewReason() domain.ReviewReason {
	if d.Outcome == domain.MatchAmbiguous {
		return domain.ReviewAmbiguous
	}
	return domain.ReviewNoCandidates
}

// CandidateIDs returns the IDs of the window candidates.
func (d Decision) CandidateIDs() []string {
	ids := make([]string, 0, len(d.Candidates))
	for _, b := range d.Candidates {
		ids = append(ids, b.ID)
	}
	return ids
}

// InWindow reports whether booking b is within tolerance of stay on both bounds.
func InWindow(stay domain.Stay, b *domain.Booking) bool {
	return domain.DaysBetween(stay.CheckIn, b.CheckIn) <= WindowDays &&
		domain.DaysBetween(stay.CheckOut, b.CheckOut) <= WindowDays
}

// Match decides what to do with fact given the bookings on the properties
// reachable from its connection. owners maps a fact ID that already claims
// a booking to that fact's confirmation code.
//
// A booking already matched to this fact wins outright. Otherwise every
// real, active booking inside the window is a candidate, including bookings
// claimed by another fact. Exactly one unclaimed candidate is enriched;
// zero or several send the fact to review and no booking is touched.
func Match(fact *domain.ReservationFact, bookings []*domain.Booking, owners map[string]string) Decision {
	if prior := previouslyMatched(fact, bookings); prior != nil {
		d := Decision{Booking: prior, Candidates: []*domain.Booking{prior}}
		d.CorrectedStay = correction(fact, prior)
		if !prior.IsManual() {
			d.Enrichment = enrichmentFor(fact, prior)
		}
		d.Outcome = domain.MatchUnchanged
		if d.Enrichment != nil {
			d.Outcome = domain.MatchEnriched
		}
		return d
	}

	var candidates []*domain.Booking
	duplicate := false
	for _, b := range bookings {
		if !b.IsActive || !b.IsReal() || !InWindow(fact.Stay(), b) {
			continue
		}
		if b.MatchedFactID != "" {
			code, ok := owners[b.MatchedFactID]
			if ok && code != "" && code == fact.ConfirmationCode {
				duplicate = true
			}
		}
		candidates = append(candidates, b)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	d := Decision{Candidates: candidates}
	switch {
	case duplicate:
		d.Outcome = domain.MatchDuplicate
	case len(candidates) == 0:
		d.Outcome = domain.MatchNoCandidates
	case len(candidates) > 1:
		d.Outcome = domain.MatchAmbiguous
	case candidates[0].MatchedFactID != "":
		// The only booking in the window belongs to another reservation.
		d.Outcome = domain.MatchAmbiguous
	case candidates[0].IsManual():
		d.Outcome = domain.MatchManualOverride
		d.Booking = candidates[0]
	default:
		d.Booking = candidates[0]
		d.Enrichment = enrichmentFor(fact, d.Booking)
		d.CorrectedStay = correction(fact, d.Booking)
		d.Outcome = domain.MatchEnriched
	}
	return d
}

// MatchAll matches every fact against the same bookings and owners, so the
// decisions do not depend on the order of facts. When several facts would
// claim the same booking none of them gets it, unless they all carry the
// same confirmation code: then the lowest fact ID claims it and the others
// are duplicates.
func MatchAll(facts []*domain.ReservationFact, bookings []*domain.Booking, owners map[string]string) []Decision {
	decisions := make([]Decision, len(facts))
	claims := make(map[string][]int)
	for i, f := range facts {
		decisions[i] = Match(f, bookings, owners)
		if d := decisions[i]; d.Outcome == domain.MatchEnriched && d.Booking.MatchedFactID != f.ID {
			claims[d.Booking.ID] = append(claims[d.Booking.ID], i)
		}
	}
	for _, contenders := range claims {
		if len(contenders) > 1 {
			settle(facts, decisions, contenders)
		}
	}
	return decisions
}

// settle demotes all but at most one of the contenders for a booking.
func settle(facts []*domain.ReservationFact, decisions []Decision, contenders []int) {
	code := facts[contenders[0]].ConfirmationCode
	shared := code != ""
	winner := contenders[0]
	for _, i := range contenders[1:] {
		if facts[i].ConfirmationCode != code {
			shared = false
		}
		if facts[i].ID < facts[winner].ID {
			winner = i
		}
	}

	for _, i := range contenders {
		if shared && i == winner {
			continue
		}
		d := &decisions[i]
		d.Booking, d.Enrichment, d.CorrectedStay = nil, nil, nil
		d.Outcome = domain.MatchAmbiguous
		if shared {
			d.Outcome = domain.MatchDuplicate
		}
	}
}

func previouslyMatched(fact *domain.ReservationFact, bookings []*domain.Booking) *domain.Booking {
	for _, b := range bookings {
		if b.IsActive && fact.ID != "" && b.MatchedFactID == fact.ID {
			return b
		}
	}
	return nil
}

// enrichmentFor returns the write needed to bring b in line with fact,
// or nil if b already carries everything the fact can contribute.
func enrichmentFor(fact *domain.ReservationFact, b *domain.Booking) *domain.BookingEnrichment {
	e := &domain.BookingEnrichment{BookingID: b.ID, MatchedFactID: fact.ID}
	changed := b.MatchedFactID != fact.ID
	if !fact.HasPlaceholderName() {
		if b.GuestName != fact.GuestName {
			e.GuestName = fact.GuestName
			changed = true
		}
		if fact.GuestCount > 0 && b.GuestCount != fact.GuestCount {
			e.GuestCount = fact.GuestCount
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return e
}

// correction returns the booking's stay when the fact's dates disagree.
// Calendar dates are authoritative.
func correction(fact *domain.ReservationFact, b *domain.Booking) *domain.Stay {
	if fact.Stay() == b.Stay() {
		return nil
	}
	s := b.Stay()
	return &s
}
