// Package domain defines the core business entities for rentsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Date: A civil calendar date with no time-of-day
//   - ReservationFact: Guest/date claims extracted from a confirmation email
//   - Booking: An occupied or blocked interval on a property calendar
//   - ReviewItem: A fact awaiting human resolution
//   - Connection: A configured mailbox or calendar feed
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
