// Package ics turns iCalendar feeds into bookings.
//
// Documents are parsed with golang-ical. Only VEVENT blocks are read, and
// dates are kept as calendar dates in the zone they were written in.
// Rental calendar conventions (platform hints, guest names in summaries,
// cancelled events) are applied in bookings.go.
package ics
