package driving

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// SyncOrchestrator runs connections through the reconciliation pipeline.
type SyncOrchestrator interface {
	// Sync runs one connection. Returns domain.ErrSyncInProgress without
	// waiting when a run for the connection is already in flight.
	Sync(ctx context.Context, connectionID string) (*domain.SyncResult, error)

	// SyncAll runs every connection, feeds before mailboxes. One
	// connection's failure never stops the others; failures are joined
	// into the returned error alongside the per-connection results.
	SyncAll(ctx context.Context) ([]domain.SyncResult, error)

	// Status returns sync status for a connection.
	Status(ctx context.Context, connectionID string) (*SyncStatus, error)

	// RefreshTokens checks token freshness for every OAuth connection and
	// marks the ones whose grant was revoked. Returns how many are usable.
	RefreshTokens(ctx context.Context) (int, error)
}

// SyncStatus represents the current state of a connection.
type SyncStatus struct {
	// ConnectionID identifies the connection.
	ConnectionID string

	// Running indicates if a run is currently in progress.
	Running bool

	// Health is the connection status after its last run.
	Health domain.ConnectionStatus

	// LastError is the last failure message.
	LastError string
}

// ReconcileService joins stored facts against stored bookings.
type ReconcileService interface {
	// ReconcileConnection matches every fact of a mailbox connection.
	ReconcileConnection(ctx context.Context, connectionID string) (*ReconcileSummary, error)
}

// ReconcileSummary counts the outcomes of one reconciliation pass.
type ReconcileSummary struct {
	Facts              int
	BookingsEnriched   int
	ReviewItemsCreated int
	FactsCorrected     int
	Outcomes           map[domain.MatchOutcome]int
}
