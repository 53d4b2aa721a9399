// Package ical fetches iCalendar export feeds over HTTP and hands the
// body to the ics normaliser. Concurrent fetches of the same URL share one
// request, and validators from earlier responses make unchanged feeds cost
// a 304.
package ical
