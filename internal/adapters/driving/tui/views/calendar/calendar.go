// Package calendar provides the property calendar view for the TUI.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
)

// View lists properties and shows the occupancy of the selected one.
type View struct {
	styles          *styles.Styles
	propertyService driving.PropertyService
	calendarService driving.CalendarService
	bar             *status.Bar

	properties []domain.Property
	selected   int
	calendar   *domain.PropertyCalendar
	width      int
	height     int
	ready      bool
	loading    bool
	err        error
}

// NewView creates a new calendar view.
func NewView(
	s *styles.Styles,
	propertyService driving.PropertyService,
	calendarService driving.CalendarService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	bar := status.NewBar(s, nil)
	bar.SetState(status.StateCalendar)
	return &View{
		styles:          s,
		propertyService: propertyService,
		calendarService: calendarService,
		bar:             bar,
	}
}

// Init loads the property list.
func (v *View) Init() tea.Cmd {
	v.calendar = nil
	v.loading = true
	return v.loadProperties()
}

func (v *View) loadProperties() tea.Cmd {
	return func() tea.Msg {
		if v.propertyService == nil {
			return messages.PropertiesLoaded{Err: errors.New("property service not available")}
		}
		props, err := v.propertyService.List(context.Background())
		return messages.PropertiesLoaded{Properties: props, Err: err}
	}
}

func (v *View) loadCalendar(id string) tea.Cmd {
	return func() tea.Msg {
		if v.calendarService == nil {
			return messages.CalendarLoaded{PropertyID: id, Err: errors.New("calendar service not available")}
		}
		cal, err := v.calendarService.PropertyCalendar(context.Background(), id)
		return messages.CalendarLoaded{PropertyID: id, Calendar: cal, Err: err}
	}
}

// Update handles messages for the calendar view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.PropertiesLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.properties = msg.Properties
		}
		return v, nil

	case messages.CalendarLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.calendar = msg.Calendar
		}
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.calendar != nil {
		switch msg.String() {
		case "esc":
			v.calendar = nil
		case "r":
			v.loading = true
			return v, v.loadCalendar(v.calendar.Property.ID)
		}
		return v, nil
	}

	switch msg.String() {
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.properties)-1 {
			v.selected++
		}
	case "enter":
		if len(v.properties) > 0 {
			v.loading = true
			return v, v.loadCalendar(v.properties[v.selected].ID)
		}
	case "r":
		v.loading = true
		return v, v.loadProperties()
	}
	return v, nil
}

// View renders the property list or the selected calendar.
func (v *View) View() string {
	var b strings.Builder

	switch {
	case v.loading:
		b.WriteString(v.styles.Title.Render("Calendars"))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Title.Render("Calendars"))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.calendar != nil:
		b.WriteString(v.renderCalendar(v.calendar))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("r reload · esc properties"))
		return b.String()
	default:
		b.WriteString(v.styles.Title.Render("Calendars"))
		b.WriteString("\n\n")
		b.WriteString(v.renderProperties())
	}

	b.WriteString("\n\n")
	b.WriteString(v.bar.View())
	return b.String()
}

func (v *View) renderProperties() string {
	if len(v.properties) == 0 {
		return v.styles.Muted.Render("No properties configured.")
	}
	lines := make([]string, 0, len(v.properties))
	for i := range v.properties {
		p := &v.properties[i]
		label := fmt.Sprintf("%s  (%s)", p.Name, p.ID)
		if i == v.selected {
			lines = append(lines, v.styles.Selected.Render("> "+label))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+label))
		}
	}
	return strings.Join(lines, "\n")
}

// row is one dated line of the calendar, a stay or a cleaning day.
type row struct {
	date domain.Date
	text string
}

// renderCalendar interleaves stays and cleaning days by date.
func (v *View) renderCalendar(cal *domain.PropertyCalendar) string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(cal.Property.Name))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("cleaning %d day(s) before, %d after",
		cal.Property.Cleaning.PreDays, cal.Property.Cleaning.PostDays)))
	b.WriteString("\n\n")

	rows := make([]row, 0, len(cal.Bookings)+len(cal.Buffers))
	for _, bk := range cal.Bookings {
		text := fmt.Sprintf("%s  %s", bk.Stay(), bk.DisplayName())
		if bk.Platform != "" {
			text += "  [" + bk.Platform + "]"
		}
		if bk.IsManual() {
			text += "  (manual)"
		}
		rows = append(rows, row{date: bk.CheckIn, text: v.styles.Kind(bk.Kind()).Render(text)})
	}
	for _, buf := range cal.Buffers {
		rows = append(rows, row{date: buf.Date, text: v.styles.Cleaning.Render(fmt.Sprintf("%s  cleaning", buf.Date))})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	if len(rows) == 0 {
		b.WriteString(v.styles.Muted.Render("No active bookings."))
	}
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.text)
	}

	if n := len(cal.Suppressed) + len(cal.Replaced); n > 0 {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d provider block(s) hidden", n)))
	}
	for _, c := range cal.Conflicts {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("overlap: %s and %s", c.First, c.Second)))
	}
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.bar.SetWidth(width)
}

// Calendar returns the calendar on screen, or nil on the property list.
func (v *View) Calendar() *domain.PropertyCalendar {
	return v.calendar
}

// Properties returns the loaded properties.
func (v *View) Properties() []domain.Property {
	return v.properties
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
