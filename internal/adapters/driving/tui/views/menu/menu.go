// Package menu provides the start screen of the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/styles"
)

// Item is one entry on the start screen.
type Item struct {
	Label    string
	Hint     string
	Shortcut string
	View     messages.ViewType
	Quit     bool
}

// items is the fixed menu, review first since it is the only screen that
// needs the host's attention.
var items = []Item{
	{Label: "Review queue", Hint: "emails that need a decision", Shortcut: "r", View: messages.ViewReview},
	{Label: "Connections", Hint: "mailboxes and calendar feeds", Shortcut: "c", View: messages.ViewConnections},
	{Label: "Calendars", Hint: "occupancy per property", Shortcut: "l", View: messages.ViewCalendar},
	{Label: "Help", Shortcut: "?", View: messages.ViewHelp},
	{Label: "Quit", Shortcut: "q", Quit: true},
}

// View is the start screen.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	selected int
	width    int
	height   int
	ready    bool

	openItems int
}

// NewView creates the start screen.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		width:  80,
		height: 24,
	}
}

// Init implements the view contract; the menu loads nothing.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor or opens a screen.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keys.Quit):
			return v, tea.Quit
		case keymap.Matches(k, v.keys.Up):
			if v.selected > 0 {
				v.selected--
			}
		case keymap.Matches(k, v.keys.Down):
			if v.selected < len(items)-1 {
				v.selected++
			}
		case keymap.Matches(k, v.keys.Select):
			return v, open(items[v.selected])
		default:
			for i, it := range items {
				if it.Shortcut == k {
					v.selected = i
					return v, open(it)
				}
			}
		}
	}
	return v, nil
}

func open(it Item) tea.Cmd {
	if it.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: it.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("rentsync"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Reservation Reconciliation"))
	b.WriteString("\n\n")

	if v.openItems > 0 {
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("%d item(s) waiting for review", v.openItems)))
		b.WriteString("\n\n")
	}

	for i, it := range items {
		label := fmt.Sprintf("[%s] %s", it.Shortcut, it.Label)
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + label))
		}
		if it.Hint != "" {
			b.WriteString("  ")
			b.WriteString(v.styles.Muted.Render(it.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] move  [enter] open  [q] quit"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// SetOpenItems sets the review queue size shown above the options.
func (v *View) SetOpenItems(n int) {
	v.openItems = n
}

// Selected returns the cursor position.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return items
}
