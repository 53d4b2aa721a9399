package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDateRange indicates check-out is not after check-in.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrUnsupportedType indicates an unknown connection type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSyncInProgress indicates a run for the connection is already in flight.
	ErrSyncInProgress = errors.New("sync already in progress")

	// Reconciliation Errors.

	// ErrAmbiguous indicates several bookings fit and none was chosen.
	ErrAmbiguous = errors.New("ambiguous booking candidates")

	// ErrOverlap indicates a new booking would overlap an active real booking.
	ErrOverlap = errors.New("overlaps an active booking")

	// ErrReviewClosed indicates the review item was already resolved or dismissed.
	ErrReviewClosed = errors.New("review item already closed")

	// ErrManualBooking indicates a human-resolved booking cannot be changed automatically.
	ErrManualBooking = errors.New("booking is manually resolved")

	// Authentication Errors.

	// ErrAuthRequired indicates the connection requires credentials but none are configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthExpired indicates the provider rejected the access token.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrAuthInvalid indicates the credential is permanently invalid.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrTokenRefreshFailed indicates a token refresh failed transiently.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// Connector Errors.

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrFeedUnavailable indicates a calendar feed could not be fetched.
	ErrFeedUnavailable = errors.New("feed unavailable")
)

// NeedsReconnect reports whether err means the credential is permanently invalid.
func NeedsReconnect(err error) bool {
	return errors.Is(err, ErrAuthInvalid) || errors.Is(err, ErrAuthRequired)
}
