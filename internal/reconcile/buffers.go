package reconcile

import (
	"sort"
	"strings"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// GenerateBuffers derives cleaning days for one property. Only active real
// bookings trigger buffers. Days already occupied by a real booking are
// skipped and each date appears at most once.
func GenerateBuffers(propertyID string, policy domain.CleaningPolicy, bookings []*domain.Booking) []domain.CleaningBuffer {
	if policy.PreDays <= 0 && policy.PostDays <= 0 {
		return nil
	}

	var guests []*domain.Booking
	for _, b := range bookings {
		if b.PropertyID == propertyID && b.IsActive && b.IsReal() {
			guests = append(guests, b)
		}
	}
	sort.Slice(guests, func(i, j int) bool {
		if guests[i].CheckIn != guests[j].CheckIn {
			return guests[i].CheckIn.Before(guests[j].CheckIn)
		}
		return guests[i].ID < guests[j].ID
	})

	occupied := realOccupancy(guests)[propertyID]
	seen := make(map[domain.Date]bool)
	var out []domain.CleaningBuffer
	add := func(b *domain.Booking, day domain.Date, side string) {
		if occupied[day] || seen[day] {
			return
		}
		seen[day] = true
		out = append(out, domain.CleaningBuffer{PropertyID: propertyID, Date: day, BookingID: b.ID, Side: side})
	}

	for _, b := range guests {
		for i := policy.PreDays; i >= 1; i-- {
			add(b, b.CheckIn.AddDays(-i), domain.BufferPre)
		}
		for i := 0; i < policy.PostDays; i++ {
			add(b, b.CheckOut.AddDays(i), domain.BufferPost)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// BufferWindows returns the pre and post windows policy places around b.
// Empty windows are omitted.
func BufferWindows(policy domain.CleaningPolicy, b *domain.Booking) []domain.Stay {
	var windows []domain.Stay
	if policy.PreDays > 0 {
		windows = append(windows, domain.Stay{CheckIn: b.CheckIn.AddDays(-policy.PreDays), CheckOut: b.CheckIn})
	}
	if policy.PostDays > 0 {
		windows = append(windows, domain.Stay{CheckIn: b.CheckOut, CheckOut: b.CheckOut.AddDays(policy.PostDays)})
	}
	return windows
}

// ReplaceCoincidingBlocks drops generic blocks from the listed platforms
// whose interval exactly equals a buffer window of a real booking on the
// same property. Partial-window blocks are kept.
func ReplaceCoincidingBlocks(bookings []*domain.Booking, policy domain.CleaningPolicy, platforms []string) (kept, replaced []*domain.Booking) {
	windows := make(map[string]map[domain.Stay]bool)
	for _, b := range bookings {
		if !b.IsActive || !b.IsReal() {
			continue
		}
		if windows[b.PropertyID] == nil {
			windows[b.PropertyID] = make(map[domain.Stay]bool)
		}
		for _, w := range BufferWindows(policy, b) {
			windows[b.PropertyID][w] = true
		}
	}

	for _, b := range bookings {
		if b.IsGenericBlock() && platformListed(b.Platform, platforms) && windows[b.PropertyID][b.Stay()] {
			replaced = append(replaced, b)
			continue
		}
		kept = append(kept, b)
	}
	return kept, replaced
}

func platformListed(platform string, platforms []string) bool {
	for _, p := range platforms {
		if strings.EqualFold(strings.TrimSpace(p), strings.TrimSpace(platform)) {
			return true
		}
	}
	return false
}
