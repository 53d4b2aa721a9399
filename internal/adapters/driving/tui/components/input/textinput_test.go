package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/styles"
)

func TestNewPrompt(t *testing.T) {
	p := NewPrompt(styles.DefaultStyles(), "Property", "property id")

	require.NotNil(t, p)
	assert.Equal(t, "", p.Value())
	assert.Equal(t, "Property", p.Label())
	assert.False(t, p.Focused())
	assert.Equal(t, 50, p.Width())
}

func TestNewPrompt_NilStyles(t *testing.T) {
	p := NewPrompt(nil, "Property", "")

	require.NotNil(t, p)
	assert.NotNil(t, p.styles)
}

func TestPrompt_Init(t *testing.T) {
	p := NewPrompt(nil, "Property", "")

	// Blink command should be returned
	assert.NotNil(t, p.Init())
}

func TestPrompt_Typing(t *testing.T) {
	p := NewPrompt(nil, "Property", "")
	p.Focus()

	for _, r := range "beach" {
		p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Equal(t, "beach", p.Value())

	p.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "beac", p.Value())
}

func TestPrompt_IgnoresInputWhenBlurred(t *testing.T) {
	p := NewPrompt(nil, "Property", "")

	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, "", p.Value())
}

func TestPrompt_ValueIsTrimmed(t *testing.T) {
	p := NewPrompt(nil, "Property", "")
	p.SetValue("  loft  ")

	assert.Equal(t, "loft", p.Value())
}

func TestPrompt_FocusBlur(t *testing.T) {
	p := NewPrompt(nil, "Property", "")

	p.Focus()
	assert.True(t, p.Focused())

	p.Blur()
	assert.False(t, p.Focused())
}

func TestPrompt_View(t *testing.T) {
	p := NewPrompt(nil, "Property", "")
	p.SetLabel("Booking")

	assert.Contains(t, p.View(), "Booking")
}

func TestPrompt_SetWidth(t *testing.T) {
	p := NewPrompt(nil, "Property", "")

	p.SetWidth(100)
	assert.Equal(t, 100, p.Width())

	p.SetWidth(10)
	assert.Equal(t, 10, p.Width())
	assert.Equal(t, 20, p.textinput.Width)
}

func TestPrompt_Reset(t *testing.T) {
	p := NewPrompt(nil, "Property", "")
	p.SetValue("some text")

	p.Reset()

	assert.Equal(t, "", p.Value())
}
