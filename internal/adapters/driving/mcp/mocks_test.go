package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
)

// mockReviewService is a mock implementation of driving.ReviewService.
type mockReviewService struct {
	items      []*domain.ReviewItem
	booking    *domain.Booking
	err        error
	filter     domain.ReviewFilter
	resolution domain.Resolution
	dismissed  string
}

func (m *mockReviewService) List(_ context.Context, filter domain.ReviewFilter) ([]*domain.ReviewItem, error) {
	m.filter = filter
	return m.items, m.err
}

func (m *mockReviewService) Get(_ context.Context, _ string) (*domain.ReviewItem, error) {
	if len(m.items) == 0 {
		return nil, domain.ErrNotFound
	}
	return m.items[0], m.err
}

func (m *mockReviewService) Assign(_ context.Context, res domain.Resolution) (*domain.Booking, error) {
	m.resolution = res
	return m.booking, m.err
}

func (m *mockReviewService) Dismiss(_ context.Context, id string) error {
	m.dismissed = id
	return m.err
}

// mockSyncOrchestrator is a mock implementation of driving.SyncOrchestrator.
type mockSyncOrchestrator struct {
	result  *domain.SyncResult
	results []domain.SyncResult
	err     error
}

func (m *mockSyncOrchestrator) Sync(_ context.Context, _ string) (*domain.SyncResult, error) {
	return m.result, m.err
}

func (m *mockSyncOrchestrator) SyncAll(_ context.Context) ([]domain.SyncResult, error) {
	return m.results, m.err
}

func (m *mockSyncOrchestrator) Status(_ context.Context, id string) (*driving.SyncStatus, error) {
	return &driving.SyncStatus{ConnectionID: id}, nil
}

func (m *mockSyncOrchestrator) RefreshTokens(_ context.Context) (int, error) {
	return 0, nil
}

// mockCalendarService is a mock implementation of driving.CalendarService.
type mockCalendarService struct {
	calendar   *domain.PropertyCalendar
	err        error
	propertyID string
}

func (m *mockCalendarService) PropertyCalendar(_ context.Context, id string) (*domain.PropertyCalendar, error) {
	m.propertyID = id
	return m.calendar, m.err
}

// mockConnectionService is a mock implementation of driving.ConnectionService.
type mockConnectionService struct {
	connections []domain.Connection
	err         error
}

func (m *mockConnectionService) Add(_ context.Context, _ domain.Connection) error {
	return m.err
}

func (m *mockConnectionService) Get(_ context.Context, _ string) (*domain.Connection, error) {
	return nil, domain.ErrNotFound
}

func (m *mockConnectionService) List(_ context.Context) ([]domain.Connection, error) {
	return m.connections, m.err
}

func (m *mockConnectionService) Remove(_ context.Context, _ string) error {
	return m.err
}

func (m *mockConnectionService) SetCredentials(_ context.Context, _ string, _ domain.OAuthCredentials) error {
	return m.err
}

func (m *mockConnectionService) Attempts(
	_ context.Context, _ string, _ domain.AttemptOutcome, _ int,
) ([]*domain.ExtractionAttempt, error) {
	return nil, m.err
}

func date(y int, m time.Month, d int) domain.Date {
	return domain.Date{Year: y, Month: m, Day: d}
}

func sampleCalendar() *domain.PropertyCalendar {
	return &domain.PropertyCalendar{
		Property: &domain.Property{ID: "beach", Name: "Beach House"},
		Bookings: []*domain.Booking{{
			ID:        "b-1",
			CheckIn:   date(2025, 3, 13),
			CheckOut:  date(2025, 3, 16),
			Summary:   "Reserved",
			GuestName: "Eric Smith",
			Platform:  "Airbnb",
		}},
		Buffers: []domain.CleaningBuffer{
			{PropertyID: "beach", Date: date(2025, 3, 12), BookingID: "b-1", Side: domain.BufferPre},
			{PropertyID: "beach", Date: date(2025, 3, 16), BookingID: "b-1", Side: domain.BufferPost},
		},
		Suppressed: []*domain.Booking{{
			ID:       "blk-1",
			CheckIn:  date(2025, 3, 13),
			CheckOut: date(2025, 3, 16),
			Summary:  "Not available",
		}},
		Conflicts: []domain.Conflict{{First: "b-1", Second: "b-2"}},
	}
}

func sampleReviewItem() *domain.ReviewItem {
	return &domain.ReviewItem{
		ID:                  "rev-1",
		FactID:              "fact-1",
		ConnectionID:        "mail-1",
		Reason:              domain.ReviewAmbiguous,
		CandidateBookingIDs: []string{"b-1", "b-2"},
		Status:              domain.ReviewOpen,
		GuestName:           "Eric Smith",
		GuestCount:          2,
		ConfirmationCode:    "HMABC123",
		CheckIn:             date(2025, 3, 13),
		CheckOut:            date(2025, 3, 16),
	}
}
