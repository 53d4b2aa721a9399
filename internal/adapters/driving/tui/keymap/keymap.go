// Package keymap defines keybindings for the TUI.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds every binding the views react to.
type KeyMap struct {
	Quit   key.Binding
	Help   key.Binding
	Back   key.Binding
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Reload key.Binding

	// Assign places a review item on a property; AssignBooking attaches
	// it to an existing booking.
	Assign        key.Binding
	AssignBooking key.Binding
	Dismiss       key.Binding

	Sync    key.Binding
	SyncAll key.Binding
}

// Section is a titled group of bindings on the help screen.
type Section struct {
	Title    string
	Bindings []key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:          bind("q", "quit", "q", "ctrl+c"),
		Help:          bind("?", "help", "?"),
		Back:          bind("esc", "back", "esc"),
		Up:            bind("↑/k", "up", "up", "k"),
		Down:          bind("↓/j", "down", "down", "j"),
		Select:        bind("enter", "select", "enter"),
		Reload:        bind("r", "reload", "r"),
		Assign:        bind("a", "assign to property", "a"),
		AssignBooking: bind("b", "assign to booking", "b"),
		Dismiss:       bind("x", "dismiss", "x"),
		Sync:          bind("s", "sync selected", "s"),
		SyncAll:       bind("S", "sync all", "S"),
	}
}

// ShortHelp is shown in the status bar outside the list views.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ReviewHelp is shown in the status bar of the review queue.
func (k *KeyMap) ReviewHelp() []key.Binding {
	return []key.Binding{k.Assign, k.AssignBooking, k.Dismiss, k.Reload, k.Back}
}

// ConnectionsHelp is shown in the status bar of the connections list.
func (k *KeyMap) ConnectionsHelp() []key.Binding {
	return []key.Binding{k.Sync, k.SyncAll, k.Reload, k.Back}
}

// CalendarHelp is shown in the status bar of the calendar view.
func (k *KeyMap) CalendarHelp() []key.Binding {
	return []key.Binding{k.Select, k.Reload, k.Back}
}

// Sections groups the bindings for the help screen.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{Title: "Navigation", Bindings: []key.Binding{k.Up, k.Down, k.Select, k.Back, k.Help, k.Quit}},
		{Title: "Review queue", Bindings: k.ReviewHelp()},
		{Title: "Connections", Bindings: k.ConnectionsHelp()},
		{Title: "Calendars", Bindings: k.CalendarHelp()},
	}
}

// Matches reports whether keyStr is one of the binding's keys.
func Matches(keyStr string, binding key.Binding) bool {
	return slices.Contains(binding.Keys(), keyStr)
}
