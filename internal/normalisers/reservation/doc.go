// Package reservation extracts ReservationFacts from confirmation emails.
//
// Each fact field is extracted by an ordered table of rules (see rules.go).
// Rules are tried in order and the first one that yields a value wins;
// later rules are fallbacks for provider templates that lack the primary
// form. The tables are data, so a new provider template is a new rule
// rather than a change to the extraction loop.
//
// Every call returns a Result carrying either a validated fact or a typed
// rejection reason, plus a per-field trace of the rules that were tried.
package reservation
