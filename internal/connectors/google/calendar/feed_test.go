package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

func newTestFeed(t *testing.T, h http.HandlerFunc) *Feed {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	f := NewFeed(option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	f.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func feedConn() *domain.Connection {
	return &domain.Connection{
		ID:          "gcal-1",
		Type:        domain.ConnectionGoogleCalendar,
		PropertyIDs: []string{"prop-1"},
		Config:      map[string]string{domain.ConfigCalendarID: "bookings@group"},
	}
}

func TestFeed_FetchBookings(t *testing.T) {
	var gotTimeMin string
	f := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/events"), r.URL.Path)
		gotTimeMin = r.URL.Query().Get("timeMin")
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("pageToken") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{
						"id": "e1", "iCalUID": "uid-1@google.com", "summary": "Reserved - Eric",
						"start": map[string]string{"date": "2026-03-13"},
						"end":   map[string]string{"date": "2026-03-16"},
					},
					{
						"id": "e2", "iCalUID": "uid-2@google.com", "status": "cancelled",
						"start": map[string]string{"date": "2026-04-01"},
						"end":   map[string]string{"date": "2026-04-03"},
					},
				},
				"nextPageToken": "next",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id": "e3", "iCalUID": "uid-3@google.com", "summary": "Owner stay",
					"start": map[string]string{"dateTime": "2026-03-05T16:00:00-08:00"},
					"end":   map[string]string{"dateTime": "2026-03-07T11:00:00-08:00"},
				},
			},
		})
	})

	bookings, err := f.FetchBookings(context.Background(), feedConn(), "token")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "2025-12-01T00:00:00Z", gotTimeMin)

	owner := bookings[0]
	assert.Equal(t, "uid-3@google.com", owner.ExternalUID)
	assert.Equal(t, domain.MustParseDate("2026-03-05"), owner.CheckIn)
	assert.Equal(t, domain.MustParseDate("2026-03-07"), owner.CheckOut)
	assert.True(t, owner.IsHold())

	eric := bookings[1]
	assert.Equal(t, "prop-1", eric.PropertyID)
	assert.Equal(t, "gcal-1", eric.SourceFeedID)
	assert.Equal(t, "Eric", eric.GuestName)
	assert.Equal(t, DefaultPlatform, eric.Platform)
	assert.True(t, eric.IsActive)
}

func TestFeed_FetchBookings_Unauthorised(t *testing.T) {
	f := newTestFeed(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`)
	})

	_, err := f.FetchBookings(context.Background(), feedConn(), "stale")
	assert.ErrorIs(t, err, domain.ErrAuthExpired)
}

func TestEventToBooking(t *testing.T) {
	tests := []struct {
		name    string
		event   *gcal.Event
		ok      bool
		uid     string
		checkIn string
		nights  int
	}{
		{
			name:    "all day",
			event:   &gcal.Event{Id: "a", ICalUID: "u", Start: &gcal.EventDateTime{Date: "2026-05-01"}, End: &gcal.EventDateTime{Date: "2026-05-04"}},
			ok:      true,
			uid:     "u",
			checkIn: "2026-05-01",
			nights:  3,
		},
		{
			name:    "missing end is one night",
			event:   &gcal.Event{Id: "a", ICalUID: "u", Start: &gcal.EventDateTime{Date: "2026-05-01"}},
			ok:      true,
			uid:     "u",
			checkIn: "2026-05-01",
			nights:  1,
		},
		{
			name:    "recurring instance keyed by id",
			event:   &gcal.Event{Id: "a_20260501", ICalUID: "u", RecurringEventId: "a", Start: &gcal.EventDateTime{Date: "2026-05-01"}, End: &gcal.EventDateTime{Date: "2026-05-02"}},
			ok:      true,
			uid:     "a_20260501",
			checkIn: "2026-05-01",
			nights:  1,
		},
		{
			name:  "cancelled",
			event: &gcal.Event{Id: "a", Status: "cancelled", Start: &gcal.EventDateTime{Date: "2026-05-01"}},
		},
		{
			name:  "no start",
			event: &gcal.Event{Id: "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := EventToBooking(tt.event, "p", "f", "Airbnb")
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.uid, b.ExternalUID)
			assert.Equal(t, domain.MustParseDate(tt.checkIn), b.CheckIn)
			assert.Equal(t, tt.nights, b.Stay().Nights())
		})
	}
}
