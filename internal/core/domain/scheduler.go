package domain

import "time"

// Task IDs for built-in tasks.
const (
	TaskIDOAuthRefresh    = "oauth-refresh"
	TaskIDReservationSync = "reservation-sync"
)

// BuiltinTasks lists the tasks the scheduler knows how to run, in the order
// they are created.
var BuiltinTasks = []struct {
	ID   string
	Name string
}{
	{TaskIDOAuthRefresh, "OAuth Token Refresh"},
	{TaskIDReservationSync, "Reservation Sync"},
}

// minRetryDelay is the first retry delay after a failed run; it doubles per
// consecutive failure up to the task interval.
const minRetryDelay = time.Minute

// ScheduledTask is the persisted state of one recurring task.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time
	LastError   string

	// Failures counts consecutive failed runs; a success resets it.
	Failures int
}

// Due reports whether the task should run at now.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && !t.NextRun.After(now)
}

// Complete folds a finished run into the task and schedules the next one.
// Failed runs are retried sooner than the interval, backing off
// exponentially.
func (t *ScheduledTask) Complete(r TaskResult) {
	t.LastRun = r.StartedAt
	if r.Success {
		t.LastError = ""
		t.LastSuccess = r.EndedAt
		t.Failures = 0
		t.NextRun = r.EndedAt.Add(t.Interval)
		return
	}
	t.LastError = r.Error
	t.Failures++
	t.NextRun = r.EndedAt.Add(t.RetryDelay())
}

// RetryDelay is the wait before the next attempt after Failures failures.
func (t *ScheduledTask) RetryDelay() time.Duration {
	if t.Failures <= 0 {
		return t.Interval
	}
	delay := minRetryDelay
	for i := 1; i < t.Failures && delay < t.Interval; i++ {
		delay *= 2
	}
	if t.Interval > 0 && delay > t.Interval {
		return t.Interval
	}
	return delay
}

// TaskResult is one execution of a task.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed is connections synced or tokens refreshed.
	ItemsProcessed int
}

// Duration is how long the run took.
func (r TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	TaskConfigs map[string]TaskConfig
}

// TaskConfig enables a task and sets its interval.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Active reports whether the task should be scheduled at all.
func (c TaskConfig) Active() bool {
	return c.Enabled && c.Interval > 0
}

// GetTaskConfig returns the configuration for a task, or the zero value.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig syncs every 15 minutes and refreshes tokens well
// inside Google's one-hour access token lifetime.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDOAuthRefresh:    {Enabled: true, Interval: 45 * time.Minute},
			TaskIDReservationSync: {Enabled: true, Interval: 15 * time.Minute},
		},
	}
}
