// Package reconcile holds the pure algorithms that join reservation facts
// to calendar bookings and derive a property's occupancy.
//
// Everything here is synchronous and side-effect free: functions take
// domain values and return decisions. Persisting those decisions is the
// job of the services layer, which keeps the algorithms replay-safe.
//
// # Components
//
//   - Match: tolerant date-window join of one fact against bookings
//   - SuppressCovered: drops generic blocks fully covered by real bookings
//   - GenerateBuffers: derives cleaning days around real bookings
//   - ReplaceCoincidingBlocks: drops provider blocks equal to a buffer window
//   - BuildCalendar: composes the above into a PropertyCalendar
package reconcile
