package calendar

import (
	"context"
	"sort"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/rentsync/internal/connectors/google"
	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
	"github.com/custodia-labs/rentsync/internal/logger"
	"github.com/custodia-labs/rentsync/internal/normalisers/ics"
)

// Verify interface compliance.
var _ driven.FeedFetcher = (*Feed)(nil)

const (
	// DefaultCalendarID is used when the connection names none.
	DefaultCalendarID = "primary"

	// DefaultPlatform labels bookings when the connection sets no platform.
	DefaultPlatform = "Google Calendar"

	// LookbackDays bounds how far into the past events are listed.
	LookbackDays = 90

	pageSize = 250
)

// Feed reads a Google Calendar as a booking feed.
type Feed struct {
	limiter *google.Throttle
	opts    []option.ClientOption
	now     func() time.Time
}

// NewFeed creates a Google Calendar feed fetcher.
func NewFeed(opts ...option.ClientOption) *Feed {
	return &Feed{
		limiter: google.SharedThrottle(google.APICalendar),
		opts:    opts,
		now:     time.Now,
	}
}

// FetchBookings lists the calendar's expanded events and converts them
// into bookings for the connection's property.
func (f *Feed) FetchBookings(ctx context.Context, conn *domain.Connection, token string) ([]*domain.Booking, error) {
	if token == "" {
		return nil, domain.ErrAuthRequired
	}

	svc, err := google.CalendarService(ctx, token, f.opts...)
	if err != nil {
		return nil, err
	}

	calendarID := conn.Config[domain.ConfigCalendarID]
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	platform := conn.Config[domain.ConfigPlatform]
	if platform == "" {
		platform = DefaultPlatform
	}

	timeMin := f.now().AddDate(0, 0, -LookbackDays).UTC().Format(time.RFC3339)
	byUID := make(map[string]*domain.Booking)
	pageToken := ""
	for {
		call := svc.Events.List(calendarID).
			SingleEvents(true).
			ShowDeleted(false).
			TimeMin(timeMin).
			MaxResults(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var resp *calendar.Events
		err := f.limiter.Call(ctx, "list events", func() error {
			var err error
			resp, err = call.Do()
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, ev := range resp.Items {
			b, ok := EventToBooking(ev, conn.FeedPropertyID(), conn.ID, platform)
			if !ok {
				continue
			}
			byUID[b.ExternalUID] = b
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
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

	logger.Debug("gcal %s: %d bookings from %s", conn.ID, len(out), calendarID)
	return out, nil
}

// EventToBooking converts one event. Cancelled events and events without
// a usable start are skipped. Recurring instances are keyed by their own
// event ID so each occurrence is a separate booking.
func EventToBooking(ev *calendar.Event, propertyID, feedID, platform string) (*domain.Booking, bool) {
	if ev == nil || ev.Status == "cancelled" {
		return nil, false
	}

	start, ok := eventDate(ev.Start)
	if !ok {
		return nil, false
	}
	end, ok := eventDate(ev.End)
	if !ok || !start.Before(end) {
		end = start.AddDays(1)
	}

	uid := ev.ICalUID
	if uid == "" || ev.RecurringEventId != "" {
		uid = ev.Id
	}
	if uid == "" {
		return nil, false
	}

	return &domain.Booking{
		PropertyID:   propertyID,
		SourceFeedID: feedID,
		ExternalUID:  uid,
		CheckIn:      start,
		CheckOut:     end,
		Summary:      ev.Summary,
		GuestName:    ics.GuestFromSummary(ev.Summary),
		Platform:     platform,
		IsActive:     true,
	}, true
}

// eventDate reads an all-day date or the calendar date of a timed event
// in the event's own offset.
func eventDate(t *calendar.EventDateTime) (domain.Date, bool) {
	if t == nil {
		return domain.Date{}, false
	}
	if t.Date != "" {
		d, err := domain.ParseDate(t.Date)
		return d, err == nil
	}
	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return domain.Date{}, false
		}
		return domain.DateOf(ts), true
	}
	return domain.Date{}, false
}
