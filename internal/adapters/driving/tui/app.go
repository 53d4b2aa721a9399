package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/views/calendar"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/views/connections"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/views/review"
	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keys   *keymap.KeyMap

	menuView        *menu.View
	reviewView      *review.View
	connectionsView *connections.View
	calendarView    *calendar.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// openItems is the last known size of the review queue.
	openItems int

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:           ports,
		ctx:             context.Background(),
		styles:          s,
		keys:            keymap.DefaultKeyMap(),
		menuView:        menu.NewView(s),
		reviewView:      review.NewView(s, ports.Review),
		connectionsView: connections.NewView(s, ports.Connection, ports.Sync),
		calendarView:    calendar.NewView(s, ports.Property, ports.Calendar),
		currentView:     messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("rentsync - Reservation Reconciliation"),
		a.countOpenItems(),
	)
}

// countOpenItems refreshes the queue size shown on the menu.
func (a *App) countOpenItems() tea.Cmd {
	return func() tea.Msg {
		items, err := a.ports.Review.List(a.ctx, domain.ReviewFilter{Status: domain.ReviewOpen})
		return messages.ReviewItemsLoaded{Items: items, Err: err}
	}
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewReview:
			return a, a.reviewView.Init()
		case messages.ViewConnections:
			return a, a.connectionsView.Init()
		case messages.ViewCalendar:
			return a, a.calendarView.Init()
		case messages.ViewMenu:
			return a, a.countOpenItems()
		case messages.ViewHelp:
		}
		return a, nil

	case messages.ReviewItemsLoaded:
		if msg.Err == nil {
			a.openItems = len(msg.Items)
			a.menuView.SetOpenItems(a.openItems)
		}
		a.reviewView, cmd = a.reviewView.Update(msg)
		return a, cmd

	case messages.ReviewResolved:
		a.reviewView, cmd = a.reviewView.Update(msg)
		return a, cmd

	case messages.ConnectionsLoaded:
		a.connectionsView, cmd = a.connectionsView.Update(msg)
		return a, cmd

	case messages.SyncCompleted:
		a.connectionsView, cmd = a.connectionsView.Update(msg)
		// A run may have queued new review items.
		return a, tea.Batch(cmd, a.countOpenItems())

	case messages.PropertiesLoaded, messages.CalendarLoaded:
		a.calendarView, cmd = a.calendarView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward hands msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewReview:
		a.reviewView, cmd = a.reviewView.Update(msg)
	case messages.ViewConnections:
		a.connectionsView, cmd = a.connectionsView.Update(msg)
	case messages.ViewCalendar:
		a.calendarView, cmd = a.calendarView.Update(msg)
	case messages.ViewHelp:
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewReview:
		return a.reviewView.View()
	case messages.ViewConnections:
		return a.connectionsView.View()
	case messages.ViewCalendar:
		return a.calendarView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp lists every key binding, grouped by screen.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n")
	for _, sec := range a.keys.Sections() {
		b.WriteString("\n")
		b.WriteString(a.styles.Subtitle.Render(sec.Title))
		b.WriteString("\n")
		for _, kb := range sec.Bindings {
			h := kb.Help()
			fmt.Fprintf(&b, "  %-8s %s\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("esc back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// OpenItems returns the last known number of open review items.
func (a *App) OpenItems() int {
	return a.openItems
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.reviewView.SetDimensions(width, height)
	a.connectionsView.SetDimensions(width, height)
	a.calendarView.SetDimensions(width, height)
}
