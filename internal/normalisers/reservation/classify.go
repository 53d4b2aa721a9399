package reservation

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

var (
	cancellationSubject = regexp.MustCompile(`(?i)\bcancell?(?:ed|ation)\b`)
	cancellationBody    = regexp.MustCompile(`(?i)\b(?:reservation|booking|stay)\s+(?:has\s+been\s+|was\s+|is\s+)?cancell?ed\b`)

	confirmationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:reservation|booking)\s+(?:is\s+)?confirm(?:ed|ation)\b`),
		regexp.MustCompile(`(?i)\bconfirmed\s*[-–—:]?\s*(?:reservation|booking|stay)\b`),
		regexp.MustCompile(`(?i)\bnew\s+(?:booking|reservation)\b`),
		regexp.MustCompile(`(?i)\binstant\s+book(?:ing)?\b`),
		regexp.MustCompile(`(?i)\byou\s+have\s+a\s+new\s+guest\b`),
	}
)

// Classify decides whether a message is a reservation confirmation.
// Cancellations are detected first since they quote the original booking.
func Classify(subject, body string) domain.MessageClass {
	if cancellationSubject.MatchString(subject) || cancellationBody.MatchString(body) {
		return domain.ClassCancellation
	}
	for _, re := range confirmationPatterns {
		if re.MatchString(subject) || re.MatchString(body) {
			return domain.ClassConfirmation
		}
	}
	return domain.ClassOther
}

// platformHints maps a lowercase hint to the platform label used on bookings.
var platformHints = []struct {
	hint     string
	platform string
}{
	{"airbnb", "Airbnb"},
	{"vrbo", "VRBO"},
	{"homeaway", "VRBO"},
	{"booking.com", "Booking.com"},
	{"lodgify", "Lodgify"},
	{"expedia", "Expedia"},
}

// InferPlatform guesses the booking platform from sender and subject,
// falling back to the body.
func InferPlatform(from, subject, body string) string {
	head := strings.ToLower(from + " " + subject)
	for _, h := range platformHints {
		if strings.Contains(head, h.hint) {
			return h.platform
		}
	}
	lower := strings.ToLower(body)
	for _, h := range platformHints {
		if strings.Contains(lower, h.hint) {
			return h.platform
		}
	}
	return ""
}
