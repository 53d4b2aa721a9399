package reconcile

import "github.com/custodia-labs/rentsync/internal/core/domain"

// MaxSpanDays bounds the day-by-day walk over one booking. Generic blocks
// longer than this are never suppressed.
const MaxSpanDays = 365

// SuppressCovered removes generic placeholder blocks whose every day is
// covered by an active real booking on the same property. A block missing
// even one covered day is kept. Inactive bookings are ignored entirely.
func SuppressCovered(bookings []*domain.Booking) (kept, suppressed []*domain.Booking) {
	occupied := realOccupancy(bookings)
	for _, b := range bookings {
		if !b.IsActive {
			continue
		}
		if b.IsGenericBlock() && fullyCovered(b, occupied[b.PropertyID]) {
			suppressed = append(suppressed, b)
			continue
		}
		kept = append(kept, b)
	}
	return kept, suppressed
}

// fullyCovered walks [checkIn, checkOut) of block one day at a time.
func fullyCovered(block *domain.Booking, days map[domain.Date]bool) bool {
	span := block.Stay().Nights()
	if span <= 0 || span > MaxSpanDays {
		return false
	}
	for day := block.CheckIn; day.Before(block.CheckOut); day = day.AddDays(1) {
		if !days[day] {
			return false
		}
	}
	return true
}

// realOccupancy returns the days spanned by active real bookings, per property.
func realOccupancy(bookings []*domain.Booking) map[string]map[domain.Date]bool {
	out := make(map[string]map[domain.Date]bool)
	for _, b := range bookings {
		if !b.IsActive || !b.IsReal() {
			continue
		}
		days := out[b.PropertyID]
		if days == nil {
			days = make(map[domain.Date]bool)
			out[b.PropertyID] = days
		}
		n := 0
		for day := b.CheckIn; day.Before(b.CheckOut) && n < MaxSpanDays; day = day.AddDays(1) {
			days[day] = true
			n++
		}
	}
	return out
}
