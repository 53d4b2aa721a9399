// Package review provides the review queue view for the TUI.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
)

// mode is what the keyboard currently drives.
type mode int

const (
	modeBrowse mode = iota
	modeAssignProperty
	modeAssignBooking
)

// View is the review queue: open items with assign and dismiss actions.
type View struct {
	styles        *styles.Styles
	reviewService driving.ReviewService

	list   *list.ReviewList
	prompt *input.Prompt
	bar    *status.Bar
	mode   mode

	width   int
	height  int
	ready   bool
	loading bool
	err     error
}

// NewView creates a new review view.
func NewView(s *styles.Styles, reviewService driving.ReviewService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	bar := status.NewBar(s, nil)
	bar.SetState(status.StateReview)

	return &View{
		styles:        s,
		reviewService: reviewService,
		list:          list.NewReviewList(s),
		prompt:        input.NewPrompt(s, "Property", "property id"),
		bar:           bar,
	}
}

// Init initialises the view and loads the queue.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.bar.SetState(status.StateLoading)
	return v.loadItems()
}

// loadItems returns a command that loads open review items.
func (v *View) loadItems() tea.Cmd {
	return func() tea.Msg {
		if v.reviewService == nil {
			return messages.ReviewItemsLoaded{Err: errors.New("review service not available")}
		}
		items, err := v.reviewService.List(context.Background(), domain.ReviewFilter{Status: domain.ReviewOpen})
		return messages.ReviewItemsLoaded{Items: items, Err: err}
	}
}

// assign returns a command that resolves id onto a property or booking.
func (v *View) assign(res domain.Resolution) tea.Cmd {
	return func() tea.Msg {
		booking, err := v.reviewService.Assign(context.Background(), res)
		if err != nil {
			return messages.ReviewResolved{ReviewID: res.ReviewID, Err: err}
		}
		return messages.ReviewResolved{ReviewID: res.ReviewID, BookingID: booking.ID}
	}
}

// dismiss returns a command that dismisses id.
func (v *View) dismiss(id string) tea.Cmd {
	return func() tea.Msg {
		err := v.reviewService.Dismiss(context.Background(), id)
		return messages.ReviewResolved{ReviewID: id, Err: err}
	}
}

// Update handles messages for the review view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.mode != modeBrowse {
			return v.handlePromptKey(msg)
		}
		return v.handleBrowseKey(msg)

	case messages.ReviewItemsLoaded:
		v.loading = false
		v.bar.SetState(status.StateReview)
		if msg.Err != nil {
			v.err = msg.Err
			v.bar.SetState(status.StateError)
			v.bar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.err = nil
		v.list.SetItems(msg.Items)
		v.bar.SetOpenItems(len(msg.Items))
		return v, nil

	case messages.ReviewResolved:
		if msg.Err != nil {
			v.bar.SetState(status.StateError)
			v.bar.SetMessage(resolveError(msg.Err))
			return v, nil
		}
		v.bar.SetState(status.StateReview)
		if msg.BookingID != "" {
			v.bar.SetMessage(fmt.Sprintf("Assigned to booking %s", msg.BookingID))
		} else {
			v.bar.SetMessage("Dismissed")
		}
		return v, v.loadItems()
	}

	return v, nil
}

func resolveError(err error) string {
	switch {
	case errors.Is(err, domain.ErrAmbiguous):
		return "several bookings match; press b to pick one"
	case errors.Is(err, domain.ErrOverlap):
		return "stay overlaps another booking on that property"
	default:
		return err.Error()
	}
}

// handleBrowseKey handles keys while moving through the queue.
func (v *View) handleBrowseKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	item := v.list.SelectedItem()

	switch msg.String() {
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "r":
		v.bar.SetMessage("")
		return v, v.Init()
	case "a":
		if item != nil {
			v.startPrompt(modeAssignProperty, "Property", "")
			return v, v.prompt.Focus()
		}
	case "b":
		if item != nil {
			first := ""
			if len(item.CandidateBookingIDs) > 0 {
				first = item.CandidateBookingIDs[0]
			}
			v.startPrompt(modeAssignBooking, "Booking", first)
			return v, v.prompt.Focus()
		}
	case "x", "delete":
		if item != nil {
			return v, v.dismiss(item.ID)
		}
	default:
		var cmd tea.Cmd
		v.list, cmd = v.list.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) startPrompt(m mode, label, value string) {
	v.mode = m
	v.bar.SetMessage("")
	v.prompt.Reset()
	v.prompt.SetLabel(label)
	v.prompt.SetValue(value)
}

// handlePromptKey handles keys while typing a property or booking ID.
func (v *View) handlePromptKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // only the keys that end the prompt matter here
	switch msg.Type {
	case tea.KeyEsc:
		v.endPrompt()
		return v, nil
	case tea.KeyEnter:
		item := v.list.SelectedItem()
		value := v.prompt.Value()
		m := v.mode
		v.endPrompt()
		if item == nil || value == "" {
			return v, nil
		}
		res := domain.Resolution{ReviewID: item.ID}
		if m == modeAssignBooking {
			res.BookingID = value
		} else {
			res.PropertyID = value
		}
		return v, v.assign(res)
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

func (v *View) endPrompt() {
	v.mode = modeBrowse
	v.prompt.Blur()
}

// View renders the review view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Review queue"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading review items..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	default:
		b.WriteString(v.list.View())
		if item := v.list.SelectedItem(); item != nil {
			b.WriteString("\n\n")
			b.WriteString(v.renderDetail(item))
		}
	}

	if v.mode != modeBrowse {
		b.WriteString("\n\n")
		b.WriteString(v.prompt.View())
		b.WriteString("\n")
		b.WriteString(v.styles.Help.Render("[enter] confirm  [esc] cancel"))
	}

	b.WriteString("\n\n")
	b.WriteString(v.bar.View())
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[a] assign to property  [b] assign to booking  [x] dismiss  [r] reload  [esc] back"))
	return b.String()
}

// renderDetail renders the fields of the selected item.
func (v *View) renderDetail(item *domain.ReviewItem) string {
	lines := []string{
		v.styles.Subtitle.Render(item.ConfirmationCode),
		fmt.Sprintf("Guests:  %d", item.GuestCount),
	}
	if item.ListingName != "" {
		lines = append(lines, "Listing: "+item.ListingName)
	}
	if len(item.CandidateBookingIDs) > 0 {
		lines = append(lines, "Candidates: "+strings.Join(item.CandidateBookingIDs, ", "))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.list.SetDimensions(width, height-12)
	v.prompt.SetWidth(width)
	v.bar.SetWidth(width)
}

// Items returns the listed review items.
func (v *View) Items() []*domain.ReviewItem {
	return v.list.Items()
}

// Prompting reports whether an assign prompt is open.
func (v *View) Prompting() bool {
	return v.mode != modeBrowse
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
