package domain

import "time"

// RejectReason is the typed cause of a failed extraction.
type RejectReason string

const (
	RejectNoConfirmationCode RejectReason = "no_confirmation_code"
	RejectNoGuestName        RejectReason = "no_guest_name"
	RejectNoDates            RejectReason = "no_dates"
	RejectInvalidDateRange   RejectReason = "invalid_date_range"

	// RejectInvalidFact covers a fact that fails validation for anything
	// other than its dates, such as a message with no ID.
	RejectInvalidFact RejectReason = "invalid_fact"
)

// MessageClass is the classification of an inbound message.
type MessageClass string

const (
	// ClassConfirmation is a reservation confirmation and is extracted.
	ClassConfirmation MessageClass = "reservation_confirmation"

	// ClassCancellation is a cancellation notice; recorded, never extracted.
	ClassCancellation MessageClass = "cancellation"

	// ClassOther is anything else in the label.
	ClassOther MessageClass = "other"
)

// AttemptOutcome summarises an extraction attempt.
type AttemptOutcome string

const (
	OutcomeParsed   AttemptOutcome = "parsed"
	OutcomeRejected AttemptOutcome = "rejected"
	OutcomeIgnored  AttemptOutcome = "ignored"
)

// RuleTrace records which rules were tried for one field.
type RuleTrace struct {
	// Field is the fact field being extracted (e.g. "check_in").
	Field string `json:"field"`

	// Tried lists rule names in the order they were attempted.
	Tried []string `json:"tried"`

	// Matched is the rule that produced a value, empty if none did.
	Matched string `json:"matched,omitempty"`
}

// ExtractionAttempt is the audit record of processing one message.
// Its presence marks the message as processed; processed messages are
// not re-extracted automatically.
type ExtractionAttempt struct {
	// SourceMessageID identifies the message. Unique.
	SourceMessageID string

	// ConnectionID is the mailbox the message came from.
	ConnectionID string

	// Subject is kept for operator display.
	Subject string

	// BodySource names which body variant was used ("plain", "html", "snippet").
	BodySource string

	// Classification is the message class.
	Classification MessageClass

	// Outcome is parsed, rejected or ignored.
	Outcome AttemptOutcome

	// Reason is set when Outcome is rejected.
	Reason RejectReason

	// Trace lists the rules tried per field.
	Trace []RuleTrace

	// FactID is the stored fact when Outcome is parsed.
	FactID string

	// AttemptedAt is when extraction ran.
	AttemptedAt time.Time
}

// MailMessage is one label-scoped message from a mailbox.
type MailMessage struct {
	ID         string
	ThreadID   string
	Subject    string
	From       string
	Snippet    string
	PlainBody  string
	HTMLBody   string
	ReceivedAt time.Time
}
