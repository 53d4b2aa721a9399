package domain

import "time"

// RunStatus is the structured outcome of syncing one connection.
type RunStatus string

const (
	// RunSuccess means every step completed.
	RunSuccess RunStatus = "success"

	// RunPartial means the provider was reached but some items failed.
	RunPartial RunStatus = "partial"

	// RunFailed means the run stopped before completing.
	RunFailed RunStatus = "failed"
)

// SyncResult summarises one connection run.
type SyncResult struct {
	// ConnectionID identifies the connection.
	ConnectionID string `json:"connection_id"`

	// Status is success, partial or failed.
	Status RunStatus `json:"status"`

	// FactsParsed counts facts extracted and stored this run.
	FactsParsed int `json:"facts_parsed"`

	// FactsRejected counts messages that failed extraction this run.
	FactsRejected int `json:"facts_rejected"`

	// BookingsUpserted counts feed events written.
	BookingsUpserted int `json:"bookings_upserted"`

	// BookingsDeactivated counts events retired from the feed.
	BookingsDeactivated int `json:"bookings_deactivated"`

	// BookingsEnriched counts bookings written by the matcher.
	BookingsEnriched int `json:"bookings_enriched"`

	// ReviewItemsCreated counts new review items.
	ReviewItemsCreated int `json:"review_items_created"`

	// Errors holds per-item failure messages.
	Errors []string `json:"errors,omitempty"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// EndedAt is when the run finished.
	EndedAt time.Time `json:"ended_at"`
}

// Fail marks the result failed with err.
func (r *SyncResult) Fail(err error) {
	r.Status = RunFailed
	r.Errors = append(r.Errors, err.Error())
}

// AddItemError records a non-fatal item failure.
func (r *SyncResult) AddItemError(err error) {
	r.Errors = append(r.Errors, err.Error())
}

// Finish settles the status once the run is over.
func (r *SyncResult) Finish(now time.Time) {
	r.EndedAt = now
	if r.Status == RunFailed {
		return
	}
	if len(r.Errors) > 0 {
		r.Status = RunPartial
		return
	}
	r.Status = RunSuccess
}

// MatchOutcome is the result of reconciling one fact.
type MatchOutcome string

const (
	// MatchEnriched means a single candidate was found and written.
	MatchEnriched MatchOutcome = "enriched"

	// MatchUnchanged means the fact was already matched and nothing changed.
	MatchUnchanged MatchOutcome = "unchanged"

	// MatchManualOverride means the only candidate is human-resolved.
	MatchManualOverride MatchOutcome = "manual_override"

	// MatchDuplicate means another fact with the same confirmation code owns the booking.
	MatchDuplicate MatchOutcome = "duplicate"

	// MatchNoCandidates means the fact was sent to review with no candidates.
	MatchNoCandidates MatchOutcome = "no_candidates"

	// MatchAmbiguous means the fact was sent to review with several candidates.
	MatchAmbiguous MatchOutcome = "ambiguous"

	// MatchReviewClosed means a person already acted on the fact's review item.
	MatchReviewClosed MatchOutcome = "review_closed"
)
