package mcp

import (
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Review exposes the manual resolution queue.
	Review driving.ReviewService

	// Sync runs connections.
	Sync driving.SyncOrchestrator

	// Calendar builds property occupancy.
	Calendar driving.CalendarService

	// Connection lists mailboxes and feeds.
	Connection driving.ConnectionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Review == nil {
		return ErrMissingReviewService
	}
	// The remaining ports are optional; their tools report when absent.
	return nil
}
