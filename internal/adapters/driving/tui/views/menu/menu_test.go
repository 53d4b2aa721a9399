package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/messages"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView(t *testing.T) {
	view := NewView(nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Len(t, view.Items(), 5)
	assert.Equal(t, 0, view.Selected())
	assert.Nil(t, view.Init())
	assert.Equal(t, "Initialising...", view.View())
}

func TestView_Navigation(t *testing.T) {
	view := NewView(nil)

	keys := []struct {
		msg  tea.KeyMsg
		want int
	}{
		{msg: tea.KeyMsg{Type: tea.KeyUp}, want: 0},
		{msg: tea.KeyMsg{Type: tea.KeyDown}, want: 1},
		{msg: runes("j"), want: 2},
		{msg: runes("j"), want: 3},
		{msg: runes("j"), want: 4},
		{msg: runes("j"), want: 4},
		{msg: runes("k"), want: 3},
	}
	for _, k := range keys {
		view.Update(k.msg)
		assert.Equal(t, k.want, view.Selected(), k.msg.String())
	}
}

func TestView_Open(t *testing.T) {
	tests := []struct {
		name     string
		keys     []tea.KeyMsg
		want     messages.ViewType
		selected int
	}{
		{name: "enter on first", keys: []tea.KeyMsg{{Type: tea.KeyEnter}}, want: messages.ViewReview},
		{
			name:     "enter after move",
			keys:     []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyEnter}},
			want:     messages.ViewConnections,
			selected: 1,
		},
		{name: "shortcut c", keys: []tea.KeyMsg{runes("c")}, want: messages.ViewConnections, selected: 1},
		{name: "shortcut l", keys: []tea.KeyMsg{runes("l")}, want: messages.ViewCalendar, selected: 2},
		{name: "shortcut ?", keys: []tea.KeyMsg{runes("?")}, want: messages.ViewHelp, selected: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewView(nil)

			var cmd tea.Cmd
			for _, k := range tt.keys {
				_, cmd = view.Update(k)
			}
			require.NotNil(t, cmd)

			changed, ok := cmd().(messages.ViewChanged)
			require.True(t, ok)
			assert.Equal(t, tt.want, changed.View)
			assert.Equal(t, tt.selected, view.Selected())
		})
	}
}

func TestView_Quit(t *testing.T) {
	for _, k := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		view := NewView(nil)

		_, cmd := view.Update(k)

		require.NotNil(t, cmd, k.String())
		_, ok := cmd().(tea.QuitMsg)
		assert.True(t, ok, k.String())
	}
}

func TestView_UnknownKey(t *testing.T) {
	view := NewView(nil)

	_, cmd := view.Update(runes("z"))

	assert.Nil(t, cmd)
	assert.Equal(t, 0, view.Selected())
}

func TestView_Render(t *testing.T) {
	view := NewView(nil)
	view.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	out := view.View()
	assert.Contains(t, out, "rentsync")
	assert.Contains(t, out, "[r] Review queue")
	assert.Contains(t, out, "mailboxes and calendar feeds")
	assert.NotContains(t, out, "waiting for review")

	view.SetOpenItems(2)
	assert.Contains(t, view.View(), "2 item(s) waiting for review")
}
