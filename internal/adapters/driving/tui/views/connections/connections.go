// Package connections provides the connections view component for the TUI.
package connections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
)

// View lists mailboxes and feeds and runs them on demand.
type View struct {
	styles            *styles.Styles
	connectionService driving.ConnectionService
	syncOrchestrator  driving.SyncOrchestrator
	bar               *status.Bar

	connections []domain.Connection
	lastRun     []domain.SyncResult
	selected    int
	width       int
	height      int
	ready       bool
	err         error
	loading     bool
	syncing     bool
}

// NewView creates a new connections view.
func NewView(
	s *styles.Styles,
	connectionService driving.ConnectionService,
	syncOrchestrator driving.SyncOrchestrator,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:            s,
		connectionService: connectionService,
		syncOrchestrator:  syncOrchestrator,
		bar:               status.NewBar(s, nil),
		connections:       []domain.Connection{},
	}
}

// syncBar mirrors the view's state in the status bar.
func (v *View) syncBar() {
	switch {
	case v.syncing:
		v.bar.SetState(status.StateSyncing)
	case v.loading:
		v.bar.SetState(status.StateLoading)
	case v.err != nil:
		v.bar.SetState(status.StateError)
		v.bar.SetMessage(v.err.Error())
	default:
		v.bar.SetState(status.StateConnections)
		v.bar.SetMessage("")
	}
}

// Init initialises the view and loads connections.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.syncBar()
	return v.loadConnections()
}

// loadConnections returns a command that loads connections from the service.
func (v *View) loadConnections() tea.Cmd {
	return func() tea.Msg {
		if v.connectionService == nil {
			return messages.ConnectionsLoaded{Err: errors.New("connection service not available")}
		}
		conns, err := v.connectionService.List(context.Background())
		return messages.ConnectionsLoaded{Connections: conns, Err: err}
	}
}

// runSync returns a command that syncs one connection, or all when id is empty.
func (v *View) runSync(id string) tea.Cmd {
	return func() tea.Msg {
		if v.syncOrchestrator == nil {
			return messages.SyncCompleted{ConnectionID: id, Err: errors.New("sync service not available")}
		}
		ctx := context.Background()
		if id == "" {
			results, err := v.syncOrchestrator.SyncAll(ctx)
			return messages.SyncCompleted{Results: results, Err: err}
		}
		result, err := v.syncOrchestrator.Sync(ctx, id)
		var results []domain.SyncResult
		if result != nil {
			results = append(results, *result)
		}
		return messages.SyncCompleted{ConnectionID: id, Results: results, Err: err}
	}
}

// Update handles messages for the connections view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	defer v.syncBar()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ConnectionsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.connections = msg.Connections
		v.err = nil
		if v.selected >= len(v.connections) {
			v.selected = max(len(v.connections)-1, 0)
		}
		return v, nil

	case messages.SyncCompleted:
		v.syncing = false
		v.lastRun = msg.Results
		v.err = msg.Err
		// Health changes with every run.
		return v, v.loadConnections()
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
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
		if v.selected < len(v.connections)-1 {
			v.selected++
		}
	case "s":
		if v.syncing || len(v.connections) == 0 {
			return v, nil
		}
		v.syncing = true
		return v, v.runSync(v.connections[v.selected].ID)
	case "S":
		if v.syncing {
			return v, nil
		}
		v.syncing = true
		return v, v.runSync("")
	case "r":
		v.loading = true
		return v, v.loadConnections()
	}

	return v, nil
}

// View renders the connections view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Connections"))
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading connections..."))
		b.WriteString("\n\n")
		b.WriteString(v.bar.View())
		return b.String()
	}

	if len(v.connections) == 0 && v.err == nil {
		b.WriteString(v.styles.Muted.Render("No connections configured."))
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Add one with: rentsync connection add"))
		b.WriteString("\n\n")
		b.WriteString(v.bar.View())
		return b.String()
	}

	for i := range v.connections {
		b.WriteString(v.renderConnection(i, &v.connections[i]))
		b.WriteString("\n")
	}

	if len(v.lastRun) > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render("Last run"))
		b.WriteString("\n")
		for i := range v.lastRun {
			b.WriteString(v.renderResult(&v.lastRun[i]))
			b.WriteString("\n")
		}
	}
	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.bar.View())
	return b.String()
}

// renderConnection renders a single connection line.
func (v *View) renderConnection(index int, conn *domain.Connection) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	// Format: > [type] name  status
	typeStr := fmt.Sprintf("[%s]", conn.Type)
	name := conn.Name
	if name == "" {
		name = conn.ID
	}
	maxNameLen := 40
	if v.width > 0 {
		maxNameLen = max(v.width-len(typeStr)-30, 10)
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	health := v.styles.Health(conn.Status).Render(string(conn.Status))
	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-8s %-*s", indicator, typeStr, maxNameLen, name)) + "  " + health
	}
	return v.styles.Normal.Render(indicator) +
		v.styles.Subtitle.Render(fmt.Sprintf("%-8s ", typeStr)) +
		v.styles.Normal.Render(fmt.Sprintf("%-*s", maxNameLen, name)) + "  " + health
}

// renderResult renders one line of the last run.
func (v *View) renderResult(r *domain.SyncResult) string {
	line := fmt.Sprintf("  %s: %s  bookings %d, facts %d, rejected %d, review %d",
		r.ConnectionID, r.Status, r.BookingsUpserted, r.FactsParsed, r.FactsRejected, r.ReviewItemsCreated)
	switch r.Status {
	case domain.RunSuccess:
		return v.styles.Success.Render(line)
	case domain.RunPartial:
		return v.styles.Warning.Render(line)
	default:
		return v.styles.Error.Render(line)
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.bar.SetWidth(width)
}

// Connections returns the current list of connections.
func (v *View) Connections() []domain.Connection {
	return v.connections
}

// SelectedIndex returns the currently selected connection index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Syncing reports whether a run started from this view is in flight.
func (v *View) Syncing() bool {
	return v.syncing
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
