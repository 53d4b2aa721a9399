// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/rentsync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// ReviewList displays review items in a navigable list.
type ReviewList struct {
	items    []*domain.ReviewItem
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewReviewList creates a new review list component.
func NewReviewList(s *styles.Styles) *ReviewList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ReviewList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the review list.
func (r *ReviewList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ReviewList) Update(msg tea.Msg) (*ReviewList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the review list.
func (r *ReviewList) View() string {
	if len(r.items) == 0 {
		return r.styles.Muted.Render("Nothing to review")
	}

	lines := make([]string, 0, len(r.items)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Open items (%d)", len(r.items))), "")

	// Each item takes two lines.
	visibleCount := (r.height - 4) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(r.items))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderItem(i, r.items[i]))
	}

	return strings.Join(lines, "\n")
}

// renderItem formats a single review item with its reason underneath.
func (r *ReviewList) renderItem(index int, item *domain.ReviewItem) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	guest := item.GuestName
	if guest == "" {
		guest = "(no name)"
	}
	maxGuestLen := max(r.width-36, 10)
	if len(guest) > maxGuestLen {
		guest = guest[:maxGuestLen-3] + "..."
	}

	stay := fmt.Sprintf("%s → %s", item.CheckIn, item.CheckOut)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxGuestLen, guest, stay))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxGuestLen, guest)) +
			r.styles.Muted.Render(stay)
	}

	detail := fmt.Sprintf("    %s  %s", item.ConfirmationCode, reasonText(item))
	return titleLine + "\n" + r.styles.Warning.Render(detail)
}

func reasonText(item *domain.ReviewItem) string {
	switch item.Reason {
	case domain.ReviewAmbiguous:
		return fmt.Sprintf("%d bookings in window", len(item.CandidateBookingIDs))
	case domain.ReviewNoCandidates:
		return "no booking in window"
	default:
		return string(item.Reason)
	}
}

// SetItems replaces the listed items, keeping the cursor in range.
func (r *ReviewList) SetItems(items []*domain.ReviewItem) {
	r.items = items
	if r.selected >= len(items) {
		r.selected = max(len(items)-1, 0)
	}
}

// Items returns the current items.
func (r *ReviewList) Items() []*domain.ReviewItem {
	return r.items
}

// Selected returns the index of the selected item.
func (r *ReviewList) Selected() int {
	return r.selected
}

// SelectedItem returns the currently selected item, or nil if none.
func (r *ReviewList) SelectedItem() *domain.ReviewItem {
	if len(r.items) == 0 || r.selected < 0 || r.selected >= len(r.items) {
		return nil
	}
	return r.items[r.selected]
}

// MoveUp moves selection up.
func (r *ReviewList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ReviewList) MoveDown() {
	if r.selected < len(r.items)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ReviewList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of items.
func (r *ReviewList) Count() int {
	return len(r.items)
}
