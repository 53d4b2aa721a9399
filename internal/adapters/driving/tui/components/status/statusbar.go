// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/styles"
)

// State selects the bar's left-hand text and its key hints.
type State string

// Bar states. The view states pick their own key hints.
const (
	StateReady       State = "ready"
	StateLoading     State = "loading"
	StateSyncing     State = "syncing"
	StateError       State = "error"
	StateReview      State = "review"
	StateConnections State = "connections"
	StateCalendar    State = "calendar"
)

// Bar is the one-line footer of the list views: a status or notice on the
// left, key hints on the right.
type Bar struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	state     State
	message   string
	openItems int
	width     int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateLoading:
		return s.styles.Muted.Render("Loading...")
	case StateSyncing:
		return s.styles.Muted.Render("Synchronising...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateReady, StateReview, StateConnections, StateCalendar:
	}

	if s.message != "" {
		return s.styles.Success.Render(s.message)
	}
	if s.openItems > 0 {
		return s.styles.Warning.Render(fmt.Sprintf("%d to review", s.openItems))
	}
	return s.styles.Muted.Render("Ready")
}

func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch s.state {
	case StateReview:
		bindings = s.keymap.ReviewHelp()
	case StateConnections, StateSyncing:
		bindings = s.keymap.ConnectionsHelp()
	case StateCalendar:
		bindings = s.keymap.CalendarHelp()
	default:
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return s.styles.Help.Render(strings.Join(hints, " · "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a notice or error text.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetOpenItems sets the number of open review items.
func (s *Bar) SetOpenItems(count int) {
	s.openItems = count
}

// OpenItems returns the number of open review items.
func (s *Bar) OpenItems() int {
	return s.openItems
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}
