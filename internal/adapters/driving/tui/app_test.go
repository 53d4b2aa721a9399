package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rentsync/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Review: &MockReviewService{},
		Sync:   &MockSyncOrchestrator{},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(newTestPorts())
	require.NoError(t, err)
	app.SetDimensions(80, 24)
	return app
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Sync: &MockSyncOrchestrator{}})

	assert.ErrorIs(t, err, ErrMissingReviewService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	result := app.WithContext(ctx)

	assert.Equal(t, app, result)
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.NotNil(t, app.Init())
}

func TestApp_View_NotReady(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Equal(t, 120, app.width)
	assert.Equal(t, 40, app.height)
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_OpenItemsCountedOnMenu(t *testing.T) {
	ports := newTestPorts()
	ports.Review = &MockReviewService{
		ListFunc: func(_ context.Context, filter domain.ReviewFilter) ([]*domain.ReviewItem, error) {
			assert.Equal(t, domain.ReviewOpen, filter.Status)
			return []*domain.ReviewItem{{ID: "rv-1"}, {ID: "rv-2"}, {ID: "rv-3"}}, nil
		},
	}
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(80, 24)

	app.Update(app.countOpenItems()())

	assert.Equal(t, 3, app.OpenItems())
	assert.Contains(t, app.View(), "3 item(s) waiting for review")
}

func TestApp_OpenItemsErrorKeepsCount(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ReviewItemsLoaded{Items: []*domain.ReviewItem{{ID: "rv-1"}}})

	app.Update(messages.ReviewItemsLoaded{Err: errors.New("locked")})

	assert.Equal(t, 1, app.OpenItems())
}

func TestApp_ViewChanged(t *testing.T) {
	tests := []struct {
		name     string
		view     messages.ViewType
		wantCmd  bool
		contains string
	}{
		{name: "review", view: messages.ViewReview, wantCmd: true, contains: "Review queue"},
		{name: "connections", view: messages.ViewConnections, wantCmd: true, contains: "Connections"},
		{name: "calendar", view: messages.ViewCalendar, wantCmd: true, contains: "Calendars"},
		{name: "help", view: messages.ViewHelp, wantCmd: false, contains: "Help"},
		{name: "menu", view: messages.ViewMenu, wantCmd: true, contains: "rentsync"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)

			_, cmd := app.Update(messages.ViewChanged{View: tt.view})

			assert.Equal(t, tt.view, app.CurrentView())
			if tt.wantCmd {
				assert.NotNil(t, cmd)
			} else {
				assert.Nil(t, cmd)
			}
			assert.Contains(t, app.View(), tt.contains)
		})
	}
}

func TestApp_MenuNavigatesToReview(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg := cmd()
	changed, ok := msg.(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewReview, changed.View)

	app.Update(msg)
	assert.Equal(t, messages.ViewReview, app.CurrentView())
}

func TestApp_ReviewEscapeReturnsToMenu(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewReview})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_HelpListsBindings(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	out := app.View()
	for _, want := range []string{"Review queue", "assign to booking", "sync all", "Calendars"} {
		assert.Contains(t, out, want)
	}
}

func TestApp_HelpEscape(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_SyncCompletedRefreshesCount(t *testing.T) {
	app := newTestApp(t)
	_, load := app.Update(messages.ViewChanged{View: messages.ViewConnections})
	require.NotNil(t, load)
	app.Update(load())

	_, cmd := app.Update(messages.SyncCompleted{
		ConnectionID: "gmail-1",
		Results:      []domain.SyncResult{{ConnectionID: "gmail-1", Status: domain.RunSuccess}},
	})

	assert.NotNil(t, cmd)
	assert.Contains(t, app.View(), "gmail-1: success")
}

func TestApp_ReviewItemsReachReviewView(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewReview})

	app.Update(messages.ReviewItemsLoaded{Items: []*domain.ReviewItem{
		{ID: "rv-1", ConfirmationCode: "HMABC123", Reason: domain.ReviewNoCandidates, Status: domain.ReviewOpen},
	}})

	assert.Contains(t, app.View(), "HMABC123")
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t)
	want := errors.New("boom")

	app.Update(messages.ErrorOccurred{Err: want})

	assert.Equal(t, want, app.Err())
}

func TestApp_CalendarWithoutServices(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewCalendar})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Contains(t, app.View(), "property service not available")
}
