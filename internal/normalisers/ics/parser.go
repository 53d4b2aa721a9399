package ics

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// Event is one parsed VEVENT.
type Event struct {
	UID         string
	Summary     string
	Description string
	Status      string
	Start       domain.Date
	End         domain.Date
}

// Calendar is a parsed VCALENDAR.
type Calendar struct {
	ProdID string
	Name   string
	Events []Event

	// Skipped counts events dropped for missing UID or unparseable dates.
	Skipped int
}

var byteOrderMark = []byte("\xef\xbb\xbf")

// Parse reads an iCalendar document.
func Parse(data []byte) (*Calendar, error) {
	data = bytes.TrimPrefix(data, byteOrderMark)
	if !hasCalendarHeader(data) {
		return nil, fmt.Errorf("parse ics: missing BEGIN:VCALENDAR: %w", domain.ErrInvalidInput)
	}

	parsed, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse ics: %v: %w", err, domain.ErrInvalidInput)
	}

	cal := &Calendar{}
	for _, p := range parsed.CalendarProperties {
		switch strings.ToUpper(p.IANAToken) {
		case string(ical.PropertyProductId):
			cal.ProdID = p.Value
		case string(ical.PropertyXWRCalName):
			cal.Name = unescapeText(p.Value)
		}
	}

	for _, ve := range parsed.Events() {
		ev, ok := eventFrom(ve)
		if !ok {
			cal.Skipped++
			continue
		}
		cal.Events = append(cal.Events, ev)
	}
	return cal, nil
}

func hasCalendarHeader(data []byte) bool {
	const header = "BEGIN:VCALENDAR"
	data = bytes.TrimLeft(data, " \t\r\n")
	return len(data) >= len(header) && strings.EqualFold(string(data[:len(header)]), header)
}

func eventFrom(ve *ical.VEvent) (Event, bool) {
	uid := strings.TrimSpace(ve.Id())
	if uid == "" {
		return Event{}, false
	}
	startAt, err := ve.GetStartAt()
	if err != nil {
		return Event{}, false
	}
	start := dateOf(startAt)

	end := start.AddDays(1)
	if endAt, err := ve.GetEndAt(); err == nil {
		end = dateOf(endAt)
	} else if days, ok := durationDays(propertyValue(ve, ical.ComponentPropertyDuration)); ok && days > 0 {
		end = start.AddDays(days)
	}

	return Event{
		UID:         uid,
		Summary:     strings.TrimSpace(unescapeText(propertyValue(ve, ical.ComponentPropertySummary))),
		Description: unescapeText(propertyValue(ve, ical.ComponentPropertyDescription)),
		Status:      strings.ToUpper(strings.TrimSpace(propertyValue(ve, ical.ComponentPropertyStatus))),
		Start:       start,
		End:         end,
	}, true
}

// dateOf keeps the calendar date as written in the property's own zone.
func dateOf(t time.Time) domain.Date {
	y, m, d := t.Date()
	return domain.NewDate(y, m, d)
}

func propertyValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

var textUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";")

// unescapeText decodes RFC 5545 TEXT escapes.
func unescapeText(s string) string {
	return textUnescaper.Replace(s)
}

var durationRe = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?`)

// durationDays reads the whole-day part of an RFC 5545 duration.
func durationDays(v string) (int, bool) {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}
	weeks, _ := strconv.Atoi(m[1])
	days, _ := strconv.Atoi(m[2])
	return weeks*7 + days, true
}
