package reservation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// document is the text a rule runs over.
type document struct {
	subject  string
	body     string
	from     string
	received time.Time
}

// text returns subject and body as one searchable string.
func (d *document) text() string {
	return d.subject + "\n" + d.body
}

// rule extracts one field value from a document.
type rule struct {
	name string
	find func(d *document) (string, bool)
}

// Field names used in traces.
const (
	fieldConfirmationCode = "confirmation_code"
	fieldGuestName        = "guest_name"
	fieldCheckIn          = "check_in"
	fieldCheckOut         = "check_out"
	fieldGuestCount       = "guest_count"
	fieldListing          = "listing_name"
)

// Rule tables. Order is priority: the first rule returning a value wins.
var (
	confirmationCodeRules = []rule{
		{"confirmation_code_label", labelledCode(`(?i:confirmation\s*(?:code|number|no\.?|#)?)`)},
		{"reservation_code_label", labelledCode(`(?i:(?:reservation|booking)\s*(?:code|number|no\.?|id|reference|#))`)},
		{"generic_code", genericCode},
	}

	guestNameRules = []rule{
		{"guest_name_label", labelledLine(`(?im)^[ \t]*(?:guest(?:\s+name)?|name|booked\s+by|booker)\s*:\s*(.+)$`, cleanName)},
		{"airbnb_subject", subjectMatch(`(?i)reservation\s+confirmed\s*[-–—:]\s*(.+?)\s+(?:arrives|is\s+arriving|will\s+arrive)\b`, cleanName)},
		{"booking_from_phrase", bodyMatch(`(?i:(?:new\s+)?(?:booking|reservation)\s+(?:from|by))\s+(\p{Lu}[\p{L}'.-]*(?:[ \t]+\p{Lu}[\p{L}'.-]*){0,3})`, cleanName)},
	}

	checkInRules = []rule{
		{"check_in_label", labelledDate(`(?i)\bcheck[\s-]?in(?:\s+date)?\b\s*:?[ \t]*([^\n]{0,80})`)},
		{"arrival_label", labelledDate(`(?i)\barriv(?:al|ing|es)(?:\s+date)?\s*:?[ \t]*([^\n]{0,80})`)},
		{"date_range_start", rangeEnd(true)},
	}

	checkOutRules = []rule{
		{"check_out_label", labelledDate(`(?i)\bcheck[\s-]?out(?:\s+date)?\b\s*:?[ \t]*([^\n]{0,80})`)},
		{"departure_label", labelledDate(`(?i)\bdepart(?:ure|ing|s)(?:\s+date)?\s*:?[ \t]*([^\n]{0,80})`)},
		{"date_range_end", rangeEnd(false)},
	}

	guestCountRules = []rule{
		{"adults_children", adultsChildren},
		{"guests_label", bodyMatch(`(?i)\bguests?\s*:\s*(\d{1,2})\b`, nil)},
		{"n_guests", bodyMatch(`(?i)\b(\d{1,2})\s+guests?\b`, nil)},
	}

	listingRules = []rule{
		{"listing_label", labelledLine(`(?im)^[ \t]*(?:listing|property|accommodation|rental)(?:\s+name)?\s*:\s*(.+)$`, strings.TrimSpace)},
	}
)

var (
	codeToken      = regexp.MustCompile(`\b[A-Z0-9]{8,12}\b`)
	adultsChildRe  = regexp.MustCompile(`(?i)\b(\d{1,2})\s+adults?\b(?:\s*(?:,|and|\+|&)\s*(\d{1,2})\s+(?:child|children|kids?)\b)?`)
	nameTrailingRe = regexp.MustCompile(`\s*[(\[|,].*$`)
)

// labelledCode matches label followed by an opaque uppercase code.
func labelledCode(label string) func(d *document) (string, bool) {
	re := regexp.MustCompile(label + `\s*[:#]?\s*([A-Z0-9][A-Z0-9-]{4,19})\b`)
	return func(d *document) (string, bool) {
		for _, m := range re.FindAllStringSubmatch(d.text(), -1) {
			if hasDigit(m[1]) || len(m[1]) >= 8 {
				return m[1], true
			}
		}
		return "", false
	}
}

// genericCode finds a standalone token mixing capitals and digits.
func genericCode(d *document) (string, bool) {
	for _, tok := range codeToken.FindAllString(d.text(), -1) {
		if hasDigit(tok) && hasLetter(tok) {
			return tok, true
		}
	}
	return "", false
}

// labelledLine matches a multi-line pattern over the body and cleans group 1.
func labelledLine(pattern string, clean func(string) string) func(d *document) (string, bool) {
	re := regexp.MustCompile(pattern)
	return func(d *document) (string, bool) {
		for _, m := range re.FindAllStringSubmatch(d.body, -1) {
			if v := clean(m[1]); v != "" {
				return v, true
			}
		}
		return "", false
	}
}

func subjectMatch(pattern string, clean func(string) string) func(d *document) (string, bool) {
	re := regexp.MustCompile(pattern)
	return func(d *document) (string, bool) {
		m := re.FindStringSubmatch(d.subject)
		if m == nil {
			return "", false
		}
		v := clean(m[1])
		return v, v != ""
	}
}

func bodyMatch(pattern string, clean func(string) string) func(d *document) (string, bool) {
	re := regexp.MustCompile(pattern)
	return func(d *document) (string, bool) {
		m := re.FindStringSubmatch(d.text())
		if m == nil {
			return "", false
		}
		v := m[1]
		if clean != nil {
			v = clean(v)
		}
		return v, v != ""
	}
}

// labelledDate matches a label and parses the first date in the text after it.
// Values are returned in YYYY-MM-DD form; a trailing "?" marks an inferred year.
func labelledDate(pattern string) func(d *document) (string, bool) {
	re := regexp.MustCompile(pattern)
	return func(d *document) (string, bool) {
		for _, m := range re.FindAllStringSubmatch(d.text(), -1) {
			if p, ok := findDate(m[1], d.received); ok {
				return encodeDate(p), true
			}
		}
		return "", false
	}
}

func rangeEnd(start bool) func(d *document) (string, bool) {
	return func(d *document) (string, bool) {
		from, to, ok := findRange(d.text())
		if !ok {
			return "", false
		}
		if start {
			return from.String(), true
		}
		return to.String(), true
	}
}

func adultsChildren(d *document) (string, bool) {
	m := adultsChildRe.FindStringSubmatch(d.text())
	if m == nil {
		return "", false
	}
	total := atoi(m[1]) + atoi(m[2])
	if total < 1 {
		return "", false
	}
	return strconv.Itoa(total), true
}

// cleanName trims a captured name to the name itself.
func cleanName(s string) string {
	s = nameTrailingRe.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.Trim(s, " .:-")
	if s == "" || len(s) > 80 || hasDigit(s) {
		return ""
	}
	return s
}

func encodeDate(p parsedDate) string {
	if p.inferred {
		return p.date.String() + "?"
	}
	return p.date.String()
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
