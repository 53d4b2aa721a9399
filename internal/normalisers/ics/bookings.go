package ics

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// prodIDPlatforms maps a PRODID fragment to a platform label.
var prodIDPlatforms = []struct {
	hint     string
	platform string
}{
	{"airbnb", "Airbnb"},
	{"homeaway", "VRBO"},
	{"vrbo", "VRBO"},
	{"lodgify", "Lodgify"},
	{"booking.com", "Booking.com"},
}

// Platform guesses the source platform from the calendar's PRODID.
func (c *Calendar) Platform() string {
	lower := strings.ToLower(c.ProdID)
	for _, p := range prodIDPlatforms {
		if strings.Contains(lower, p.hint) {
			return p.platform
		}
	}
	return ""
}

// Bookings converts the calendar's events into bookings for one property.
// Cancelled events are dropped. When a UID repeats the last event wins.
// platform overrides the PRODID guess when non-empty.
func (c *Calendar) Bookings(propertyID, feedID, platform string) []*domain.Booking {
	if platform == "" {
		platform = c.Platform()
	}

	byUID := make(map[string]*domain.Booking, len(c.Events))
	for _, ev := range c.Events {
		if ev.Status == "CANCELLED" {
			delete(byUID, ev.UID)
			continue
		}
		byUID[ev.UID] = &domain.Booking{
			PropertyID:   propertyID,
			SourceFeedID: feedID,
			ExternalUID:  ev.UID,
			CheckIn:      ev.Start,
			CheckOut:     ev.End,
			Summary:      ev.Summary,
			GuestName:    GuestFromSummary(ev.Summary),
			Platform:     platform,
			IsActive:     true,
		}
	}

	out := make([]*domain.Booking, 0, len(byUID))
	for _, b := range byUID {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CheckIn != out[j].CheckIn {
			return out[i].CheckIn.Before(out[j].CheckIn)
		}
		return out[i].ExternalUID < out[j].ExternalUID
	})
	return out
}

var (
	reservedPrefix   = regexp.MustCompile(`(?i)^(?:reserved|booked|reservation)\s*[-–:]\s*`)
	platformSuffixRe = regexp.MustCompile(`(?i)\s*\((?:airbnb|vrbo|homeaway|booking\.com|lodgify|direct)\)\s*$`)
)

// GuestFromSummary extracts the guest identity from an event title.
// "Reserved - Eric" yields "Eric"; "Eric Smith (Airbnb)" yields "Eric Smith".
// Placeholder titles are returned unchanged.
func GuestFromSummary(summary string) string {
	s := strings.TrimSpace(summary)
	if s == "" || domain.IsPlaceholderGuestName(s) {
		return s
	}
	if stripped := reservedPrefix.ReplaceAllString(s, ""); stripped != "" {
		s = stripped
	}
	if stripped := platformSuffixRe.ReplaceAllString(s, ""); stripped != "" {
		s = stripped
	}
	return strings.TrimSpace(s)
}
