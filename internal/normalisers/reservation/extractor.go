package reservation

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/logger"
	"github.com/custodia-labs/rentsync/internal/normalisers/html"
)

// Body sources, in preference order.
const (
	BodyPlain   = "plain"
	BodyHTML    = "html"
	BodySnippet = "snippet"
)

// Confidence weights.
const (
	primaryWeight      = 1.0
	fallbackStep       = 0.2
	minRuleWeight      = 0.5
	defaultCountDebit  = 0.05
	snippetSourceDebit = 0.1
)

// Result is the outcome of extracting one message.
type Result struct {
	Class      domain.MessageClass
	BodySource string

	// Fact is set when the message parsed; it has no ID yet.
	Fact *domain.ReservationFact

	// Reason is set when a confirmation could not be parsed.
	Reason domain.RejectReason

	Trace []domain.RuleTrace
}

// Outcome summarises the result for the audit record.
func (r *Result) Outcome() domain.AttemptOutcome {
	switch {
	case r.Fact != nil:
		return domain.OutcomeParsed
	case r.Class != domain.ClassConfirmation:
		return domain.OutcomeIgnored
	default:
		return domain.OutcomeRejected
	}
}

// Attempt builds the audit record for msg.
func (r *Result) Attempt(msg *domain.MailMessage, connectionID string, at time.Time) *domain.ExtractionAttempt {
	return &domain.ExtractionAttempt{
		SourceMessageID: msg.ID,
		ConnectionID:    connectionID,
		Subject:         msg.Subject,
		BodySource:      r.BodySource,
		Classification:  r.Class,
		Outcome:         r.Outcome(),
		Reason:          r.Reason,
		Trace:           r.Trace,
		AttemptedAt:     at,
	}
}

// Extractor turns confirmation emails into reservation facts.
type Extractor struct{}

// New creates a new extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract classifies msg and, for confirmations, extracts a validated fact.
func (e *Extractor) Extract(msg *domain.MailMessage, connectionID string) *Result {
	body, source := BestBody(msg)
	doc := &document{subject: msg.Subject, body: body, from: msg.From, received: msg.ReceivedAt}

	res := &Result{BodySource: source, Class: Classify(msg.Subject, body)}
	if res.Class != domain.ClassConfirmation {
		logger.Debug("message %s classified %s, skipping", msg.ID, res.Class)
		return res
	}

	code, codeW := res.run(fieldConfirmationCode, confirmationCodeRules, doc)
	name, nameW := res.run(fieldGuestName, guestNameRules, doc)
	checkInRaw, inW := res.run(fieldCheckIn, checkInRules, doc)
	checkOutRaw, outW := res.run(fieldCheckOut, checkOutRules, doc)
	countRaw, _ := res.run(fieldGuestCount, guestCountRules, doc)
	listing, _ := res.run(fieldListing, listingRules, doc)

	switch {
	case code == "":
		res.Reason = domain.RejectNoConfirmationCode
	case name == "":
		res.Reason = domain.RejectNoGuestName
	case checkInRaw == "" || checkOutRaw == "":
		res.Reason = domain.RejectNoDates
	}
	if res.Reason != "" {
		logger.Debug("message %s rejected: %s", msg.ID, res.Reason)
		return res
	}

	checkIn, _ := decodeDate(checkInRaw)
	checkOut, outInferred := decodeDate(checkOutRaw)
	if outInferred && !checkIn.Before(checkOut) {
		// "Dec 30 - Jan 2" without years: check-out is in the next year.
		checkOut = domain.NewDate(checkOut.Year+1, checkOut.Month, checkOut.Day)
	}
	if !checkIn.Before(checkOut) || checkIn.DaysUntil(checkOut) > maxStayNights {
		res.Reason = domain.RejectInvalidDateRange
		logger.Debug("message %s rejected: %s (%s..%s)", msg.ID, res.Reason, checkIn, checkOut)
		return res
	}

	count := 1
	countDefaulted := true
	if n, err := strconv.Atoi(countRaw); err == nil && n > 0 {
		count = n
		countDefaulted = false
	}

	confidence := (codeW + nameW + inW + outW) / 4
	if countDefaulted {
		confidence -= defaultCountDebit
	}
	if source == BodySnippet {
		confidence -= snippetSourceDebit
	}

	res.Fact = &domain.ReservationFact{
		SourceMessageID:  msg.ID,
		ConnectionID:     connectionID,
		GuestName:        name,
		GuestCount:       count,
		ConfirmationCode: code,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		ListingName:      listing,
		Platform:         InferPlatform(msg.From, msg.Subject, body),
		Confidence:       clamp(confidence),
	}
	if err := res.Fact.Validate(); err != nil {
		res.Fact = nil
		res.Reason = domain.RejectInvalidFact
		if errors.Is(err, domain.ErrInvalidDateRange) {
			res.Reason = domain.RejectInvalidDateRange
		}
		logger.Debug("message %s rejected: %s: %v", msg.ID, res.Reason, err)
		return res
	}
	logger.Debug("message %s parsed: %s %s..%s (%.2f)", msg.ID, name, checkIn, checkOut, res.Fact.Confidence)
	return res
}

// maxStayNights rejects ranges that are certainly misreads.
const maxStayNights = 365

// run tries rules in order, recording the trace, and returns the first value
// with its confidence weight.
func (r *Result) run(field string, rules []rule, doc *document) (string, float64) {
	trace := domain.RuleTrace{Field: field}
	defer func() { r.Trace = append(r.Trace, trace) }()

	for i, rl := range rules {
		trace.Tried = append(trace.Tried, rl.name)
		if v, ok := rl.find(doc); ok {
			trace.Matched = rl.name
			w := primaryWeight - float64(i)*fallbackStep
			if w < minRuleWeight {
				w = minRuleWeight
			}
			return v, w
		}
	}
	return "", 0
}

// BestBody picks plain text, then text derived from HTML, then the snippet.
func BestBody(msg *domain.MailMessage) (string, string) {
	if s := strings.TrimSpace(strings.ReplaceAll(msg.PlainBody, "\r\n", "\n")); s != "" {
		return s, BodyPlain
	}
	if msg.HTMLBody != "" {
		if s := html.ToText(msg.HTMLBody); s != "" {
			return s, BodyHTML
		}
	}
	return strings.TrimSpace(msg.Snippet), BodySnippet
}

func decodeDate(s string) (domain.Date, bool) {
	inferred := strings.HasSuffix(s, "?")
	d, err := domain.ParseDate(strings.TrimSuffix(s, "?"))
	if err != nil {
		return domain.Date{}, false
	}
	return d, inferred
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
