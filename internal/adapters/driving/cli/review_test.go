package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
)

func sampleReviewItems() []*domain.ReviewItem {
	return []*domain.ReviewItem{
		{
			ID:                  "rv-1",
			Status:              domain.ReviewOpen,
			Reason:              domain.ReviewAmbiguous,
			GuestName:           "Jamie Doe",
			GuestCount:          2,
			ConfirmationCode:    "HMABC123",
			ListingName:         "Sea View Loft",
			CheckIn:             domain.NewDate(2026, 7, 1),
			CheckOut:            domain.NewDate(2026, 7, 4),
			CandidateBookingIDs: []string{"bk-1", "bk-2"},
		},
	}
}

func TestReviewListCmd(t *testing.T) {
	mock := &mockReview{items: sampleReviewItems()}
	useServices(t, Services{Review: mock})

	out, err := execute(t, "review", "list")

	require.NoError(t, err)
	assert.Equal(t, domain.ReviewFilter{Status: domain.ReviewOpen}, mock.lastFilter)
	assert.Contains(t, out, "rv-1  [open] ambiguous")
	assert.Contains(t, out, "Guest:   Jamie Doe (2)")
	assert.Contains(t, out, "Stay:    2026-07-01 to 2026-07-04")
	assert.Contains(t, out, "Listing: Sea View Loft")
	assert.Contains(t, out, "Candidates: bk-1, bk-2")
}

func TestReviewListCmd_Filters(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want domain.ReviewFilter
	}{
		{name: "all statuses", args: []string{"--status", "all"}, want: domain.ReviewFilter{}},
		{name: "resolved", args: []string{"--status", "resolved"}, want: domain.ReviewFilter{Status: domain.ReviewResolved}},
		{
			name: "by mailbox",
			args: []string{"--connection", "gmail-1"},
			want: domain.ReviewFilter{Status: domain.ReviewOpen, ConnectionID: "gmail-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockReview{}
			useServices(t, Services{Review: mock})

			out, err := execute(t, append([]string{"review", "list"}, tt.args...)...)

			require.NoError(t, err)
			assert.Equal(t, tt.want, mock.lastFilter)
			assert.Contains(t, out, "No review items.")
		})
	}
}

func TestReviewAssignCmd(t *testing.T) {
	mock := &mockReview{booking: &domain.Booking{
		ID:        "bk-9",
		GuestName: "Jamie Doe",
		CheckIn:   domain.NewDate(2026, 7, 1),
		CheckOut:  domain.NewDate(2026, 7, 4),
	}}
	useServices(t, Services{Review: mock})

	out, err := execute(t, "review", "assign", "rv-1", "--property", "loft")

	require.NoError(t, err)
	assert.Equal(t, domain.Resolution{ReviewID: "rv-1", PropertyID: "loft"}, mock.assigned)
	assert.Contains(t, out, "Assigned rv-1 to booking bk-9 (Jamie Doe, 2026-07-01..2026-07-04)")
}

func TestReviewAssignCmd_ToBooking(t *testing.T) {
	mock := &mockReview{booking: &domain.Booking{ID: "bk-2"}}
	useServices(t, Services{Review: mock})

	_, err := execute(t, "review", "assign", "rv-1", "--booking", "bk-2")

	require.NoError(t, err)
	assert.Equal(t, domain.Resolution{ReviewID: "rv-1", BookingID: "bk-2"}, mock.assigned)
}

func TestReviewAssignCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		err     error
		wantErr string
	}{
		{name: "no target", args: []string{"review", "assign", "rv-1"}, wantErr: "--property or --booking is required"},
		{
			name:    "ambiguous",
			args:    []string{"review", "assign", "rv-1", "--property", "loft"},
			err:     fmt.Errorf("two bookings: %w", domain.ErrAmbiguous),
			wantErr: "pick one with --booking",
		},
		{
			name:    "closed",
			args:    []string{"review", "assign", "rv-1", "--property", "loft"},
			err:     domain.ErrReviewClosed,
			wantErr: "failed to assign",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useServices(t, Services{Review: &mockReview{assignErr: tt.err}})

			_, err := execute(t, tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestReviewDismissCmd(t *testing.T) {
	mock := &mockReview{}
	useServices(t, Services{Review: mock})

	out, err := execute(t, "review", "dismiss", "rv-3")

	require.NoError(t, err)
	assert.Equal(t, "rv-3", mock.dismissed)
	assert.Contains(t, out, "Dismissed rv-3")
}

func TestReviewDismissCmd_Error(t *testing.T) {
	useServices(t, Services{Review: &mockReview{dismissErr: domain.ErrReviewClosed}})

	_, err := execute(t, "review", "dismiss", "rv-3")

	assert.ErrorIs(t, err, domain.ErrReviewClosed)
}

func TestReviewCmds_ServiceNotConfigured(t *testing.T) {
	useServices(t, Services{})

	for _, args := range [][]string{
		{"review", "list"},
		{"review", "assign", "rv-1", "--property", "loft"},
		{"review", "dismiss", "rv-1"},
	} {
		_, err := execute(t, args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "review service not configured", args)
	}
}

func TestReconcileCmd(t *testing.T) {
	useServices(t, Services{Reconcile: &mockReconcile{summary: &driving.ReconcileSummary{
		Facts:              4,
		BookingsEnriched:   2,
		ReviewItemsCreated: 1,
		FactsCorrected:     1,
		Outcomes: map[domain.MatchOutcome]int{
			domain.MatchUnchanged:    1,
			domain.MatchEnriched:     2,
			domain.MatchNoCandidates: 1,
		},
	}}})

	out, err := execute(t, "reconcile", "gmail-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Facts: 4, enriched: 2, corrected: 1, new review items: 1")
	assert.Contains(t, out, "  enriched: 2\n  no_candidates: 1\n  unchanged: 1\n")
}

func TestReconcileCmd_Error(t *testing.T) {
	useServices(t, Services{Reconcile: &mockReconcile{err: errors.New("store closed")}})

	_, err := execute(t, "reconcile", "gmail-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconcile failed")
}

func TestReconcileCmd_ServiceNotConfigured(t *testing.T) {
	useServices(t, Services{})

	_, err := execute(t, "reconcile", "gmail-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconcile service not configured")
}
