// Package google holds what the Gmail and Google Calendar connectors
// share: API client construction from a bearer token, a per-API throttle
// that honours 429 Retry-After, and the mapping of API status codes onto
// the domain errors the sync guard acts on.
//
// Both connectors only read, with the gmail.readonly and calendar.readonly
// scopes.
package google
