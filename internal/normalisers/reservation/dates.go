package reservation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// yearlessLookback is how far before receipt a yearless date may fall
// before it is read as next year's date.
const yearlessLookback = 30 * 24 * time.Hour

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

const monthPattern = `(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?`

var (
	isoDate       = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDayYear  = regexp.MustCompile(`(?i)\b` + monthPattern + `\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)
	dayMonthYear  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPattern + `(?:,?\s+(\d{4})\b)?`)
	numericDate   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	monthDayRange = regexp.MustCompile(`(?i)\b` + monthPattern + `\s+(\d{1,2})\s*[-–—]\s*(?:` + monthPattern + `\s+)?(\d{1,2}),?\s+(\d{4})\b`)
)

// parsedDate is a date found in free text.
type parsedDate struct {
	date     domain.Date
	pos      int
	inferred bool
}

// findDate returns the earliest date in s. Yearless dates take their year
// from ref, rolling forward a year when they would fall well before ref.
func findDate(s string, ref time.Time) (parsedDate, bool) {
	var best parsedDate
	found := false
	consider := func(p parsedDate, ok bool) {
		if ok && (!found || p.pos < best.pos) {
			best, found = p, true
		}
	}

	if m := isoDate.FindStringSubmatchIndex(s); m != nil {
		consider(build(atoi(s[m[2]:m[3]]), time.Month(atoi(s[m[4]:m[5]])), atoi(s[m[6]:m[7]]), m[0], ref))
	}
	if m := monthDayYear.FindStringSubmatchIndex(s); m != nil {
		year := 0
		if m[6] >= 0 {
			year = atoi(s[m[6]:m[7]])
		}
		consider(build(year, months[strings.ToLower(s[m[2]:m[3]])], atoi(s[m[4]:m[5]]), m[0], ref))
	}
	if m := dayMonthYear.FindStringSubmatchIndex(s); m != nil {
		year := 0
		if m[6] >= 0 {
			year = atoi(s[m[6]:m[7]])
		}
		consider(build(year, months[strings.ToLower(s[m[4]:m[5]])], atoi(s[m[2]:m[3]]), m[0], ref))
	}
	if m := numericDate.FindStringSubmatchIndex(s); m != nil {
		consider(build(atoi(s[m[6]:m[7]]), time.Month(atoi(s[m[2]:m[3]])), atoi(s[m[4]:m[5]]), m[0], ref))
	}
	return best, found
}

// findRange returns both ends of a "Mar 13 – 16, 2026" or
// "Mar 30 – Apr 2, 2026" style range.
func findRange(s string) (domain.Date, domain.Date, bool) {
	m := monthDayRange.FindStringSubmatch(s)
	if m == nil {
		return domain.Date{}, domain.Date{}, false
	}
	startMonth := months[strings.ToLower(m[1])]
	endMonth := startMonth
	if m[3] != "" {
		endMonth = months[strings.ToLower(m[3])]
	}
	year := atoi(m[5])
	startYear := year
	if endMonth < startMonth {
		startYear--
	}
	start, ok1 := exactDate(startYear, startMonth, atoi(m[2]))
	end, ok2 := exactDate(year, endMonth, atoi(m[4]))
	if !ok1 || !ok2 {
		return domain.Date{}, domain.Date{}, false
	}
	return start, end, true
}

func build(year int, month time.Month, day, pos int, ref time.Time) (parsedDate, bool) {
	if month == 0 {
		return parsedDate{}, false
	}
	inferred := year == 0
	if inferred {
		if ref.IsZero() {
			ref = time.Now()
		}
		year = ref.Year()
	}
	d, ok := exactDate(year, month, day)
	if !ok {
		return parsedDate{}, false
	}
	if inferred && d.Time().Before(ref.Add(-yearlessLookback)) {
		d, ok = exactDate(year+1, month, day)
		if !ok {
			return parsedDate{}, false
		}
	}
	return parsedDate{date: d, pos: pos, inferred: inferred}, true
}

// exactDate rejects components that time.Date would roll over (Feb 30).
func exactDate(year int, month time.Month, day int) (domain.Date, bool) {
	if year < 2000 || year > 2100 || month < time.January || month > time.December || day < 1 {
		return domain.Date{}, false
	}
	d := domain.NewDate(year, month, day)
	if d.Month != month || d.Day != day {
		return domain.Date{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
