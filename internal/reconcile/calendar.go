package reconcile

import (
	"sort"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// BuildCalendar assembles the occupancy read model for one property.
// bookings may include other properties and inactive rows; both are ignored.
func BuildCalendar(property *domain.Property, bookings []*domain.Booking, bufferPlatforms []string) *domain.PropertyCalendar {
	var own []*domain.Booking
	for _, b := range bookings {
		if b.PropertyID == property.ID && b.IsActive {
			own = append(own, b)
		}
	}

	kept, suppressed := SuppressCovered(own)
	kept, replaced := ReplaceCoincidingBlocks(kept, property.Cleaning, bufferPlatforms)
	sortBookings(kept)
	sortBookings(suppressed)
	sortBookings(replaced)

	return &domain.PropertyCalendar{
		Property:   property,
		Bookings:   kept,
		Buffers:    GenerateBuffers(property.ID, property.Cleaning, kept),
		Suppressed: suppressed,
		Replaced:   replaced,
		Conflicts:  FindConflicts(kept),
	}
}

// FindConflicts returns pairs of active real bookings on the same property
// whose stays overlap.
func FindConflicts(bookings []*domain.Booking) []domain.Conflict {
	var guests []*domain.Booking
	for _, b := range bookings {
		if b.IsActive && b.IsReal() {
			guests = append(guests, b)
		}
	}
	sortBookings(guests)

	var out []domain.Conflict
	for i := 0; i < len(guests); i++ {
		for j := i + 1; j < len(guests); j++ {
			if !guests[j].CheckIn.Before(guests[i].CheckOut) {
				break
			}
			if guests[i].PropertyID == guests[j].PropertyID && guests[i].Stay().Overlaps(guests[j].Stay()) {
				out = append(out, domain.Conflict{First: guests[i].ID, Second: guests[j].ID})
			}
		}
	}
	return out
}

// OverlappingReal returns the first active real booking on propertyID whose
// stay overlaps stay, or nil.
func OverlappingReal(propertyID string, stay domain.Stay, bookings []*domain.Booking) *domain.Booking {
	for _, b := range bookings {
		if b.PropertyID == propertyID && b.IsActive && b.IsReal() && b.Stay().Overlaps(stay) {
			return b
		}
	}
	return nil
}

func sortBookings(bs []*domain.Booking) {
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].CheckIn != bs[j].CheckIn {
			return bs[i].CheckIn.Before(bs[j].CheckIn)
		}
		return bs[i].ID < bs[j].ID
	})
}
