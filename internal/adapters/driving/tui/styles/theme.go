// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// Theme is the colour palette. Accent colours mark headings and the
// cursor; state colours mark connection health and calendar rows.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Bar        lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	// Hold marks owner stays and maintenance, Cleaning the buffer days
	// derived around guest stays.
	Hold     lipgloss.Color
	Cleaning lipgloss.Color
}

// DefaultTheme is a dark palette with a teal accent.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    "#0F766E",
		Secondary:  "#38BDF8",
		Foreground: "#CDD6F4",
		Muted:      "#6C7086",
		Border:     "#45475A",
		Bar:        "#181825",
		Success:    "#A6E3A1",
		Warning:    "#F9E2AF",
		Error:      "#F38BA8",
		Hold:       "#FAB387",
		Cleaning:   "#94E2D5",
	}
}

// Styles are the lipgloss styles the views render with.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Help     lipgloss.Style

	// Selected is the cursor row.
	Selected lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	Hold     lipgloss.Style
	Cleaning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
}

// NewStyles builds styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		theme:    theme,
		Title:    fg(theme.Primary).Bold(true),
		Subtitle: fg(theme.Secondary).Bold(true),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),
		Help:     fg(theme.Muted),
		Selected: fg(theme.Foreground).Background(theme.Primary).Bold(true),
		Success:  fg(theme.Success),
		Warning:  fg(theme.Warning),
		Error:    fg(theme.Error),
		Hold:     fg(theme.Hold),
		Cleaning: fg(theme.Cleaning).Italic(true),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		StatusBar: fg(theme.Muted).Background(theme.Bar).Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Kind returns the calendar row style for a booking kind.
func (s *Styles) Kind(kind domain.BookingKind) lipgloss.Style {
	switch kind {
	case domain.KindReal:
		return s.Normal
	case domain.KindHold:
		return s.Hold
	default:
		return s.Muted
	}
}

// Health returns the style for a connection status.
func (s *Styles) Health(status domain.ConnectionStatus) lipgloss.Style {
	switch status {
	case domain.StatusActive:
		return s.Success
	case domain.StatusNeedsReconnect:
		return s.Warning
	default:
		return s.Error
	}
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
