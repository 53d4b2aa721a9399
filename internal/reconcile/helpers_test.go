package reconcile

import (
	"time"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

func d(s string) domain.Date { return domain.MustParseDate(s) }

func booking(id, property, checkIn, checkOut, name string) *domain.Booking {
	return &domain.Booking{
		ID:         id,
		PropertyID: property,
		CheckIn:    d(checkIn),
		CheckOut:   d(checkOut),
		Summary:    name,
		GuestName:  name,
		IsActive:   true,
	}
}

func fact(id, name, checkIn, checkOut string) *domain.ReservationFact {
	return &domain.ReservationFact{
		ID:              id,
		SourceMessageID: "msg-" + id,
		GuestName:       name,
		GuestCount:      2,
		CheckIn:         d(checkIn),
		CheckOut:        d(checkOut),
		Confidence:      0.9,
	}
}

func manual(b *domain.Booking) *domain.Booking {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.ManuallyResolvedAt = &now
	return b
}
