// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Persistence
//
// Every write is an upsert keyed by a natural key; no port offers a blind insert:
//
//   - FactStore: facts keyed by source message id
//   - BookingStore: bookings keyed by (property, feed, external uid)
//   - ReviewStore: review items keyed by fact id
//   - AttemptStore: extraction audit keyed by source message id
//   - ConnectionStore, PropertyStore, CredentialsStore, SchedulerStore
//
// # External Inputs
//
//   - MailboxFetcher: label-scoped messages from a mail API
//   - FeedFetcher: calendar events normalised to bookings
//   - TokenProvider / TokenProviderFactory: OAuth access tokens
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
