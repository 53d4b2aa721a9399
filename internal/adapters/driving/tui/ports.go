// Package tui provides an interactive terminal user interface for rentsync.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"errors"

	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
)

var (
	// ErrMissingReviewService is returned when the review service is not provided.
	ErrMissingReviewService = errors.New("tui: review service is required")

	// ErrMissingSyncOrchestrator is returned when the sync orchestrator is not provided.
	ErrMissingSyncOrchestrator = errors.New("tui: sync orchestrator is required")

	// ErrInvalidPorts is returned for a nil Ports.
	ErrInvalidPorts = errors.New("tui: invalid ports configuration")
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Review works the queue of facts that could not be matched.
	Review driving.ReviewService

	// Sync runs connections through the pipeline.
	Sync driving.SyncOrchestrator

	// Connection lists mailboxes and feeds.
	Connection driving.ConnectionService

	// Property lists properties for the calendar view.
	Property driving.PropertyService

	// Calendar renders a property's occupancy.
	Calendar driving.CalendarService
}

// NewPorts creates a new Ports aggregate with the required services.
func NewPorts(review driving.ReviewService, sync driving.SyncOrchestrator) *Ports {
	return &Ports{
		Review: review,
		Sync:   sync,
	}
}

// Validate ensures all required ports are set.
// Connection, Property and Calendar are optional; their views report
// the missing service instead.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Review == nil {
		return ErrMissingReviewService
	}
	if p.Sync == nil {
		return ErrMissingSyncOrchestrator
	}
	return nil
}
