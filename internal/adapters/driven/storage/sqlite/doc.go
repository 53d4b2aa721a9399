// Package sqlite provides a unified SQLite-based implementation of the
// driven store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database connection backs every store:
//
//   - FactStore: reservation facts keyed by source message
//   - BookingStore: calendar and manual bookings
//   - ReviewStore: review queue, one item per fact
//   - AttemptStore: extraction audit trail
//   - ConnectionStore, PropertyStore, CredentialsStore: configuration
//   - SchedulerStore: scheduled task state and history
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.rentsync/data/rentsync.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. Multi-statement writes run in
// transactions; SQLite in WAL mode serialises writers.
package sqlite
