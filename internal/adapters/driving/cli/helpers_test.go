package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
)

// execute runs rootCmd with args and returns everything written to
// stdout and stderr. Flag values from earlier runs are reset first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every changed flag of cmd and its children to its
// default, since cobra keeps parsed values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// useServices swaps the wired services for the duration of the test.
func useServices(t *testing.T, s Services) {
	t.Helper()
	old := Services{
		Sync:            syncOrchestrator,
		Reconcile:       reconcileService,
		Review:          reviewService,
		Calendar:        calendarService,
		Connection:      connectionService,
		Property:        propertyService,
		Settings:        settingsService,
		Scheduler:       scheduler,
		SchedulerConfig: schedulerConfig,
		GoogleOAuth:     googleOAuth,
	}
	SetServices(s)
	t.Cleanup(func() { SetServices(old) })
}

type mockSync struct {
	SyncFunc    func(ctx context.Context, id string) (*domain.SyncResult, error)
	SyncAllFunc func(ctx context.Context) ([]domain.SyncResult, error)
	StatusFunc  func(ctx context.Context, id string) (*driving.SyncStatus, error)
}

func (m *mockSync) Sync(ctx context.Context, id string) (*domain.SyncResult, error) {
	if m.SyncFunc != nil {
		return m.SyncFunc(ctx, id)
	}
	return &domain.SyncResult{ConnectionID: id, Status: domain.RunSuccess}, nil
}

func (m *mockSync) SyncAll(ctx context.Context) ([]domain.SyncResult, error) {
	if m.SyncAllFunc != nil {
		return m.SyncAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockSync) Status(ctx context.Context, id string) (*driving.SyncStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, id)
	}
	return &driving.SyncStatus{ConnectionID: id, Health: domain.StatusActive}, nil
}

func (m *mockSync) RefreshTokens(_ context.Context) (int, error) {
	return 0, nil
}

type mockReconcile struct {
	summary *driving.ReconcileSummary
	err     error
}

func (m *mockReconcile) ReconcileConnection(_ context.Context, _ string) (*driving.ReconcileSummary, error) {
	return m.summary, m.err
}

type mockReview struct {
	items      []*domain.ReviewItem
	listErr    error
	lastFilter domain.ReviewFilter

	assigned   domain.Resolution
	booking    *domain.Booking
	assignErr  error
	dismissed  string
	dismissErr error
}

func (m *mockReview) List(_ context.Context, filter domain.ReviewFilter) ([]*domain.ReviewItem, error) {
	m.lastFilter = filter
	return m.items, m.listErr
}

func (m *mockReview) Get(_ context.Context, _ string) (*domain.ReviewItem, error) {
	return nil, domain.ErrNotFound
}

func (m *mockReview) Assign(_ context.Context, res domain.Resolution) (*domain.Booking, error) {
	m.assigned = res
	if m.assignErr != nil {
		return nil, m.assignErr
	}
	return m.booking, nil
}

func (m *mockReview) Dismiss(_ context.Context, id string) error {
	m.dismissed = id
	return m.dismissErr
}

type mockCalendar struct {
	cal *domain.PropertyCalendar
	err error
}

func (m *mockCalendar) PropertyCalendar(_ context.Context, _ string) (*domain.PropertyCalendar, error) {
	return m.cal, m.err
}

type mockConnection struct {
	byID     map[string]*domain.Connection
	added    *domain.Connection
	addErr   error
	conns    []domain.Connection
	removed  string
	credsFor string
	creds    domain.OAuthCredentials

	attempts       []*domain.ExtractionAttempt
	attemptOutcome domain.AttemptOutcome
	attemptLimit   int
}

func (m *mockConnection) Add(_ context.Context, conn domain.Connection) error {
	m.added = &conn
	return m.addErr
}

func (m *mockConnection) Get(_ context.Context, id string) (*domain.Connection, error) {
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockConnection) List(_ context.Context) ([]domain.Connection, error) {
	return m.conns, nil
}

func (m *mockConnection) Remove(_ context.Context, id string) error {
	m.removed = id
	return nil
}

func (m *mockConnection) SetCredentials(_ context.Context, id string, oauth domain.OAuthCredentials) error {
	m.credsFor = id
	m.creds = oauth
	return nil
}

func (m *mockConnection) Attempts(
	_ context.Context, _ string, outcome domain.AttemptOutcome, limit int,
) ([]*domain.ExtractionAttempt, error) {
	m.attemptOutcome = outcome
	m.attemptLimit = limit
	return m.attempts, nil
}

type mockProperty struct {
	added     *domain.Property
	props     []domain.Property
	policyFor string
	policy    domain.CleaningPolicy
	policyErr error
}

func (m *mockProperty) Add(_ context.Context, p domain.Property) error {
	m.added = &p
	return nil
}

func (m *mockProperty) Get(_ context.Context, _ string) (*domain.Property, error) {
	return nil, domain.ErrNotFound
}

func (m *mockProperty) List(_ context.Context) ([]domain.Property, error) {
	return m.props, nil
}

func (m *mockProperty) SetCleaningPolicy(_ context.Context, id string, policy domain.CleaningPolicy) error {
	m.policyFor = id
	m.policy = policy
	return m.policyErr
}

type mockSettings struct {
	settings *domain.AppSettings
	saved    *domain.AppSettings
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := *m.settings
	return &s, nil
}

func (m *mockSettings) Save(settings *domain.AppSettings) error {
	m.saved = settings
	return nil
}

func (m *mockSettings) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettings) GetSchedulerConfig() domain.SchedulerConfig {
	return domain.SchedulerConfig{}
}

type mockScheduler struct {
	started bool
	stopped bool
	err     error

	tasks      []domain.ScheduledTask
	history    map[string][]domain.TaskResult
	historyLim int
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.started = true
	if m.err != nil {
		return m.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error {
	m.stopped = true
	return nil
}

func (m *mockScheduler) Tasks(_ context.Context) ([]domain.ScheduledTask, error) {
	return m.tasks, m.err
}

func (m *mockScheduler) History(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.historyLim = limit
	return m.history[taskID], nil
}

// Compile-time interface checks.
var (
	_ driving.SyncOrchestrator  = (*mockSync)(nil)
	_ driving.ReconcileService  = (*mockReconcile)(nil)
	_ driving.ReviewService     = (*mockReview)(nil)
	_ driving.CalendarService   = (*mockCalendar)(nil)
	_ driving.ConnectionService = (*mockConnection)(nil)
	_ driving.PropertyService   = (*mockProperty)(nil)
	_ driving.SettingsService   = (*mockSettings)(nil)
	_ driving.Scheduler         = (*mockScheduler)(nil)
)
