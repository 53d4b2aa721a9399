package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

func TestSchedulerStore_TaskRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ss := store.SchedulerStore()

	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	task := &domain.ScheduledTask{
		ID:          domain.TaskIDReservationSync,
		Name:        "Reservation Sync",
		Interval:    15 * time.Minute,
		Enabled:     true,
		LastRun:     at.Add(-time.Minute),
		NextRun:     at.Add(2 * time.Minute),
		LastSuccess: at.Add(-time.Hour),
		LastError:   "gmail-1: auth expired",
		Failures:    2,
	}
	require.NoError(t, ss.SaveTask(ctx, task))

	got, err := ss.GetTask(ctx, domain.TaskIDReservationSync)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.Name, got.Name)
	assert.Equal(t, task.Interval, got.Interval)
	assert.True(t, got.Enabled)
	assert.True(t, task.LastRun.Equal(got.LastRun))
	assert.True(t, task.NextRun.Equal(got.NextRun))
	assert.True(t, task.LastSuccess.Equal(got.LastSuccess))
	assert.Equal(t, task.LastError, got.LastError)
	assert.Equal(t, 2, got.Failures)

	task.Failures = 0
	task.LastError = ""
	task.Interval = time.Hour
	require.NoError(t, ss.SaveTask(ctx, task))

	got, err = ss.GetTask(ctx, domain.TaskIDReservationSync)
	require.NoError(t, err)
	assert.Zero(t, got.Failures)
	assert.Empty(t, got.LastError)
	assert.Equal(t, time.Hour, got.Interval)
}

func TestSchedulerStore_ZeroTimesStayZero(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ss := store.SchedulerStore()

	require.NoError(t, ss.SaveTask(ctx, &domain.ScheduledTask{ID: "t", Name: "T", Interval: time.Minute}))

	got, err := ss.GetTask(ctx, "t")
	require.NoError(t, err)
	assert.True(t, got.LastRun.IsZero())
	assert.True(t, got.NextRun.IsZero())
	assert.True(t, got.LastSuccess.IsZero())
	assert.False(t, got.Enabled)
}

func TestSchedulerStore_MissingAndInvalid(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ss := store.SchedulerStore()

	got, err := ss.GetTask(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, ss.SaveTask(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, ss.RecordResult(ctx, nil), domain.ErrInvalidInput)
	assert.NoError(t, ss.DeleteTask(ctx, "missing"))
}

func TestSchedulerStore_ListAndDelete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ss := store.SchedulerStore()

	tasks, err := ss.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	for _, b := range domain.BuiltinTasks {
		require.NoError(t, ss.SaveTask(ctx, &domain.ScheduledTask{ID: b.ID, Name: b.Name, Interval: time.Hour, Enabled: true}))
	}

	tasks, err = ss.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.TaskIDOAuthRefresh, tasks[0].ID)
	assert.Equal(t, domain.TaskIDReservationSync, tasks[1].ID)

	require.NoError(t, ss.DeleteTask(ctx, domain.TaskIDOAuthRefresh))
	tasks, err = ss.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.TaskIDReservationSync, tasks[0].ID)
}

func TestSchedulerStore_History(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ss := store.SchedulerStore()

	start := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		r := &domain.TaskResult{
			TaskID:         domain.TaskIDReservationSync,
			StartedAt:      start.Add(time.Duration(i) * 15 * time.Minute),
			EndedAt:        start.Add(time.Duration(i)*15*time.Minute + 3*time.Second),
			Success:        i != 3,
			ItemsProcessed: i,
		}
		if !r.Success {
			r.Error = "ical-1: feed returned 503"
		}
		require.NoError(t, ss.RecordResult(ctx, r))
	}
	require.NoError(t, ss.RecordResult(ctx, &domain.TaskResult{
		TaskID: domain.TaskIDOAuthRefresh, StartedAt: start, EndedAt: start, Success: true,
	}))

	history, err := ss.GetTaskHistory(ctx, domain.TaskIDReservationSync, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []int{4, 3, 2}, []int{history[0].ItemsProcessed, history[1].ItemsProcessed, history[2].ItemsProcessed})
	assert.False(t, history[1].Success)
	assert.Equal(t, "ical-1: feed returned 503", history[1].Error)
	assert.Equal(t, 3*time.Second, history[0].Duration())

	none, err := ss.GetTaskHistory(ctx, "never-ran", 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, ss.PruneHistory(ctx, 2))

	history, err = ss.GetTaskHistory(ctx, domain.TaskIDReservationSync, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].ItemsProcessed)

	other, err := ss.GetTaskHistory(ctx, domain.TaskIDOAuthRefresh, 10)
	require.NoError(t, err)
	assert.Len(t, other, 1, "pruning is per task")
}

func TestFormatNullableTime(t *testing.T) {
	assert.Nil(t, formatNullableTime(time.Time{}))

	at := time.Date(2026, 3, 13, 9, 30, 0, 5, time.FixedZone("PST", -8*3600))
	got := formatNullableTime(at)
	assert.Equal(t, "2026-03-13T17:30:00.000000005Z", got)
	assert.Equal(t, at.UTC(), parseTime(got.(string)))
}

func TestBoolToInt(t *testing.T) {
	assert.Equal(t, 1, boolToInt(true))
	assert.Equal(t, 0, boolToInt(false))
}

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))
	assert.Equal(t, "hello", nullString("hello"))
}
