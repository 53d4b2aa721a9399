// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewReview is the review queue.
	ViewReview
	// ViewConnections lists mailboxes and feeds.
	ViewConnections
	// ViewCalendar shows property occupancy.
	ViewCalendar
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewReview:
		return "review"
	case ViewConnections:
		return "connections"
	case ViewCalendar:
		return "calendar"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// ReviewItemsLoaded carries the open review queue.
type ReviewItemsLoaded struct {
	Items []*domain.ReviewItem
	Err   error
}

// ReviewResolved signals an item was assigned or dismissed.
// BookingID is empty for a dismissal.
type ReviewResolved struct {
	ReviewID  string
	BookingID string
	Err       error
}

// ConnectionsLoaded carries the configured connections.
type ConnectionsLoaded struct {
	Connections []domain.Connection
	Err         error
}

// SyncCompleted carries the results of a sync started from the TUI.
// ConnectionID is empty when every connection was run.
type SyncCompleted struct {
	ConnectionID string
	Results      []domain.SyncResult
	Err          error
}

// PropertiesLoaded carries the configured properties.
type PropertiesLoaded struct {
	Properties []domain.Property
	Err        error
}

// CalendarLoaded carries one property's calendar.
type CalendarLoaded struct {
	PropertyID string
	Calendar   *domain.PropertyCalendar
	Err        error
}
