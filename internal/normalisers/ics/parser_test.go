package ics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

const airbnbFeed = "BEGIN:VCALENDAR\r\n" +
	"PRODID:-//Airbnb Inc//Hosting Calendar 1.0//EN\r\n" +
	"VERSION:2.0\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTEND;VALUE=DATE:20260316\r\n" +
	"DTSTART;VALUE=DATE:20260313\r\n" +
	"UID:1418fb94e984-abc@airbnb.com\r\n" +
	"DESCRIPTION:Reservation URL: https://www.airbnb.com/hosting/reservations/details/HMABCD1234\\nPhone\r\n" +
	"  Number (Last 4 Digits): 1234\r\n" +
	"SUMMARY:Reserved\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTEND;VALUE=DATE:20260410\r\n" +
	"DTSTART;VALUE=DATE:20260401\r\n" +
	"UID:7f1d-blocked@airbnb.com\r\n" +
	"SUMMARY:Airbnb (Not available)\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParse_AirbnbFeed(t *testing.T) {
	cal, err := Parse([]byte(airbnbFeed))
	require.NoError(t, err)

	assert.Equal(t, "Airbnb", cal.Platform())
	require.Len(t, cal.Events, 2)

	ev := cal.Events[0]
	assert.Equal(t, "1418fb94e984-abc@airbnb.com", ev.UID)
	assert.Equal(t, "Reserved", ev.Summary)
	assert.Equal(t, "2026-03-13", ev.Start.String())
	assert.Equal(t, "2026-03-16", ev.End.String())
	assert.Contains(t, ev.Description, "Phone Number (Last 4 Digits)")
	assert.Contains(t, ev.Description, "\n")
}

func TestParse_MissingHeader(t *testing.T) {
	_, err := Parse([]byte("<html>not a calendar</html>"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Parse(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParse_CalendarName(t *testing.T) {
	cal, err := Parse([]byte("BEGIN:VCALENDAR\nPRODID:-//Vrbo//Calendar//EN\nX-WR-CALNAME:Beach House\\, Unit 2\nEND:VCALENDAR\n"))
	require.NoError(t, err)
	assert.Equal(t, "-//Vrbo//Calendar//EN", cal.ProdID)
	assert.Equal(t, "Beach House, Unit 2", cal.Name)
	assert.Zero(t, cal.Skipped)
}

func TestParse_ByteOrderMark(t *testing.T) {
	cal, err := Parse([]byte("\xef\xbb\xbfBEGIN:VCALENDAR\nEND:VCALENDAR\n"))
	require.NoError(t, err)
	assert.Empty(t, cal.Events)
}

func TestParse_EventDates(t *testing.T) {
	tests := []struct {
		name      string
		lines     string
		wantStart string
		wantEnd   string
	}{
		{
			name:      "date values",
			lines:     "DTSTART;VALUE=DATE:20260313\nDTEND;VALUE=DATE:20260316\n",
			wantStart: "2026-03-13",
			wantEnd:   "2026-03-16",
		},
		{
			name:      "date-time values keep the date part",
			lines:     "DTSTART:20260313T160000Z\nDTEND:20260316T100000Z\n",
			wantStart: "2026-03-13",
			wantEnd:   "2026-03-16",
		},
		{
			name:      "zoned date-time",
			lines:     "DTSTART;TZID=\"Europe/Lisbon\":20260313T150000\nDTEND;TZID=Europe/Lisbon:20260315T110000\n",
			wantStart: "2026-03-13",
			wantEnd:   "2026-03-15",
		},
		{
			name:      "missing end is one night",
			lines:     "DTSTART;VALUE=DATE:20260313\n",
			wantStart: "2026-03-13",
			wantEnd:   "2026-03-14",
		},
		{
			name:      "duration",
			lines:     "DTSTART;VALUE=DATE:20260313\nDURATION:P1W2D\n",
			wantStart: "2026-03-13",
			wantEnd:   "2026-03-22",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "BEGIN:VCALENDAR\nBEGIN:VEVENT\nUID:u1\n" + tt.lines + "END:VEVENT\nEND:VCALENDAR\n"
			cal, err := Parse([]byte(doc))
			require.NoError(t, err)
			require.Len(t, cal.Events, 1)
			assert.Equal(t, tt.wantStart, cal.Events[0].Start.String())
			assert.Equal(t, tt.wantEnd, cal.Events[0].End.String())
		})
	}
}

func TestParse_SkipsInvalidEvents(t *testing.T) {
	doc := "BEGIN:VCALENDAR\n" +
		"BEGIN:VEVENT\nSUMMARY:no uid\nDTSTART;VALUE=DATE:20260313\nEND:VEVENT\n" +
		"BEGIN:VEVENT\nUID:bad-date\nDTSTART:garbage\nEND:VEVENT\n" +
		"BEGIN:VEVENT\nUID:ok\nDTSTART;VALUE=DATE:20260313\nEND:VEVENT\n" +
		"END:VCALENDAR\n"

	cal, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Len(t, cal.Events, 1)
	assert.Equal(t, 2, cal.Skipped)
}

func TestUnescapeText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`Meeting with John\, Jane`, "Meeting with John, Jane"},
		{`Line one\nLine two`, "Line one\nLine two"},
		{`semi\;colon`, "semi;colon"},
		{`back\\slash`, `back\slash`},
		{`trailing\`, `trailing\`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, unescapeText(tt.input))
	}
}

func TestParse_LineFolding(t *testing.T) {
	doc := "BEGIN:VCALENDAR\nBEGIN:VEVENT\nUID:u1\nDTSTART;VALUE=DATE:20260313\n" +
		"SUMMARY:This is a very long summary that would normally be folded\n" +
		"  across multiple lines\nEND:VEVENT\nEND:VCALENDAR\n"

	cal, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cal.Events, 1)
	assert.Equal(t, "This is a very long summary that would normally be folded across multiple lines", cal.Events[0].Summary)
}

func TestCalendar_Bookings(t *testing.T) {
	doc := "BEGIN:VCALENDAR\nPRODID:-//Lodgify//Calendar//EN\n" +
		"BEGIN:VEVENT\nUID:b\nSUMMARY:Eric Smith (Airbnb)\nDTSTART;VALUE=DATE:20260313\nDTEND;VALUE=DATE:20260316\nEND:VEVENT\n" +
		"BEGIN:VEVENT\nUID:a\nSUMMARY:Closed Period\nDTSTART;VALUE=DATE:20260301\nDTEND;VALUE=DATE:20260305\nEND:VEVENT\n" +
		"BEGIN:VEVENT\nUID:c\nSUMMARY:Maya\nSTATUS:CANCELLED\nDTSTART;VALUE=DATE:20260320\nDTEND;VALUE=DATE:20260322\nEND:VEVENT\n" +
		"END:VCALENDAR\n"

	cal, err := Parse([]byte(doc))
	require.NoError(t, err)

	bookings := cal.Bookings("prop-1", "feed-1", "")
	require.Len(t, bookings, 2)

	assert.Equal(t, "a", bookings[0].ExternalUID)
	assert.Equal(t, domain.KindGenericBlock, bookings[0].Kind())
	assert.Equal(t, "Lodgify", bookings[0].Platform)

	b := bookings[1]
	assert.Equal(t, "b", b.ExternalUID)
	assert.Equal(t, "prop-1", b.PropertyID)
	assert.Equal(t, "feed-1", b.SourceFeedID)
	assert.Equal(t, "Eric Smith", b.GuestName)
	assert.Equal(t, "Eric Smith (Airbnb)", b.Summary)
	assert.True(t, b.IsActive)

	override := cal.Bookings("prop-1", "feed-1", "Direct")
	assert.Equal(t, "Direct", override[0].Platform)
}

func TestGuestFromSummary(t *testing.T) {
	tests := []struct {
		summary string
		want    string
	}{
		{"Reserved", "Reserved"},
		{"Reserved - Eric", "Eric"},
		{"Booked: Maya Lopez", "Maya Lopez"},
		{"Eric Smith (Airbnb)", "Eric Smith"},
		{"Not available", "Not available"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			assert.Equal(t, tt.want, GuestFromSummary(tt.summary))
		})
	}
}
