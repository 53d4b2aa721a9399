package services

import "github.com/custodia-labs/rentsync/internal/core/ports/driven"

// Stores bundles the persistence ports shared by the services.
type Stores struct {
	Connections driven.ConnectionStore
	Properties  driven.PropertyStore
	Credentials driven.CredentialsStore
	Facts       driven.FactStore
	Bookings    driven.BookingStore
	Reviews     driven.ReviewStore
	Attempts    driven.AttemptStore
}
