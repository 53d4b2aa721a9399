package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	assert.True(t, config.Enabled)
	assert.Len(t, config.TaskConfigs, 2)

	oauthCfg := config.TaskConfigs[TaskIDOAuthRefresh]
	assert.True(t, oauthCfg.Enabled)
	assert.Equal(t, 45*time.Minute, oauthCfg.Interval)

	syncCfg := config.TaskConfigs[TaskIDReservationSync]
	assert.True(t, syncCfg.Enabled)
	assert.Equal(t, 15*time.Minute, syncCfg.Interval)
}

func TestSchedulerConfig_GetTaskConfig_NilMap(t *testing.T) {
	config := SchedulerConfig{Enabled: true}

	cfg := config.GetTaskConfig("any-task")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Interval)
}

func TestTaskConfig_Active(t *testing.T) {
	assert.True(t, TaskConfig{Enabled: true, Interval: time.Minute}.Active())
	assert.False(t, TaskConfig{Enabled: true}.Active())
	assert.False(t, TaskConfig{Interval: time.Minute}.Active())
}

func TestScheduledTask_Due(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		task ScheduledTask
		want bool
	}{
		{name: "never run", task: ScheduledTask{Enabled: true}, want: true},
		{name: "exactly due", task: ScheduledTask{Enabled: true, NextRun: now}, want: true},
		{name: "overdue", task: ScheduledTask{Enabled: true, NextRun: now.Add(-time.Minute)}, want: true},
		{name: "not yet", task: ScheduledTask{Enabled: true, NextRun: now.Add(time.Second)}, want: false},
		{name: "disabled", task: ScheduledTask{NextRun: now.Add(-time.Hour)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Due(now))
		})
	}
}

func TestScheduledTask_Complete(t *testing.T) {
	start := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Second)
	task := ScheduledTask{Interval: 15 * time.Minute, Enabled: true}

	fail := TaskResult{StartedAt: start, EndedAt: end, Error: "feed down"}
	task.Complete(fail)
	assert.Equal(t, 1, task.Failures)
	assert.Equal(t, "feed down", task.LastError)
	assert.Equal(t, start, task.LastRun)
	assert.Equal(t, end.Add(time.Minute), task.NextRun)

	task.Complete(fail)
	assert.Equal(t, end.Add(2*time.Minute), task.NextRun)

	task.Complete(TaskResult{StartedAt: start, EndedAt: end, Success: true})
	assert.Zero(t, task.Failures)
	assert.Empty(t, task.LastError)
	assert.Equal(t, end, task.LastSuccess)
	assert.Equal(t, end.Add(15*time.Minute), task.NextRun)
}

func TestScheduledTask_RetryDelay(t *testing.T) {
	tests := []struct {
		failures int
		interval time.Duration
		want     time.Duration
	}{
		{failures: 0, interval: time.Hour, want: time.Hour},
		{failures: 1, interval: time.Hour, want: time.Minute},
		{failures: 3, interval: time.Hour, want: 4 * time.Minute},
		{failures: 10, interval: time.Hour, want: time.Hour},
		{failures: 2, interval: 90 * time.Second, want: 90 * time.Second},
	}
	for _, tt := range tests {
		task := ScheduledTask{Failures: tt.failures, Interval: tt.interval}
		assert.Equal(t, tt.want, task.RetryDelay(), "failures=%d", tt.failures)
	}
}

func TestTaskResult_Duration(t *testing.T) {
	start := time.Now()
	r := TaskResult{StartedAt: start, EndedAt: start.Add(3 * time.Second)}
	assert.Equal(t, 3*time.Second, r.Duration())
}

func TestOAuthCredentials_ExpiresWithin(t *testing.T) {
	c := &OAuthCredentials{Expiry: time.Now().Add(3 * time.Minute)}
	assert.False(t, c.IsExpired())
	assert.True(t, c.ExpiresWithin(5*time.Minute))
	assert.False(t, c.ExpiresWithin(time.Minute))

	never := &OAuthCredentials{}
	assert.False(t, never.ExpiresWithin(time.Hour))
}
