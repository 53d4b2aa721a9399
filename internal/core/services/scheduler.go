package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/rentsync/internal/core/domain"
	"github.com/custodia-labs/rentsync/internal/core/ports/driven"
	"github.com/custodia-labs/rentsync/internal/core/ports/driving"
	"github.com/custodia-labs/rentsync/internal/logger"
)

var _ driving.Scheduler = (*Scheduler)(nil)

const (
	// historyKeep is how many results are kept per task.
	historyKeep = 100

	defaultTick = time.Minute
)

// Scheduler runs the periodic reservation sync and token refresh. A task
// never overlaps itself: a slow sync is not started again until it ends.
type Scheduler struct {
	config   domain.SchedulerConfig
	store    driven.SchedulerStore
	syncOrch driving.SyncOrchestrator

	tick time.Duration
	now  func() time.Time

	mu       sync.Mutex
	running  bool
	stopping bool
	inFlight map[string]bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	syncOrch driving.SyncOrchestrator,
) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		syncOrch: syncOrch,
		tick:     defaultTick,
		now:      time.Now,
		inFlight: make(map[string]bool),
	}
}

// Start runs the loop until ctx ends or Stop is called. A second Start on a
// running scheduler returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopping = false
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.syncTasks(ctx); err != nil {
		logger.Warn("scheduler: initialising tasks: %v", err)
	}

	s.runDue(ctx)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop ends the loop and waits for running tasks to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	s.stopping = true
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Tasks returns the persisted state of every task.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// History returns the latest runs of a task.
func (s *Scheduler) History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		limit = historyKeep
	}
	results, err := s.store.GetTaskHistory(ctx, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history of %s: %w", taskID, err)
	}
	return results, nil
}

// syncTasks makes the stored tasks match the configuration. Tasks turned
// off in the config are removed so they stop showing as scheduled.
func (s *Scheduler) syncTasks(ctx context.Context) error {
	for _, b := range domain.BuiltinTasks {
		cfg := s.config.GetTaskConfig(b.ID)
		task, err := s.store.GetTask(ctx, b.ID)
		if err != nil {
			return err
		}

		if !cfg.Active() {
			if task != nil {
				if err := s.store.DeleteTask(ctx, b.ID); err != nil {
					return err
				}
			}
			continue
		}

		switch {
		case task == nil:
			task = &domain.ScheduledTask{ID: b.ID, Name: b.Name, NextRun: s.now()}
		case task.Interval != cfg.Interval:
			task.NextRun = s.now().Add(cfg.Interval)
		}
		task.Interval = cfg.Interval
		task.Enabled = true
		if err := s.store.SaveTask(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

// runDue starts every due task that is not already running.
func (s *Scheduler) runDue(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: listing tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		if tasks[i].Due(now) {
			s.launch(ctx, tasks[i])
		}
	}
}

func (s *Scheduler) launch(ctx context.Context, task domain.ScheduledTask) {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: %s still running, skipping", task.ID)
		return
	}
	s.inFlight[task.ID] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
			s.wg.Done()
		}()
		s.execute(ctx, &task)
	}()
}

// execute runs one task and persists its outcome.
func (s *Scheduler) execute(ctx context.Context, task *domain.ScheduledTask) {
	result := domain.TaskResult{TaskID: task.ID, StartedAt: s.now()}

	var err error
	switch task.ID {
	case domain.TaskIDReservationSync:
		result.ItemsProcessed, err = s.runReservationSync(ctx)
	case domain.TaskIDOAuthRefresh:
		result.ItemsProcessed, err = s.runOAuthRefresh(ctx)
	default:
		logger.Warn("scheduler: unknown task %s", task.ID)
		return
	}

	result.EndedAt = s.now()
	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
	}
	task.Complete(result)
	if err != nil {
		logger.Warn("scheduler: %s failed (%d in a row), retrying at %s: %v",
			task.ID, task.Failures, task.NextRun.Format(time.TimeOnly), err)
	} else {
		logger.Info("scheduler: %s done in %s, %d item(s)", task.ID, result.Duration().Round(time.Millisecond), result.ItemsProcessed)
	}

	if err := s.store.SaveTask(ctx, task); err != nil {
		logger.Warn("scheduler: saving %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, &result); err != nil {
		logger.Warn("scheduler: recording result of %s: %v", task.ID, err)
	}
	if err := s.store.PruneHistory(ctx, historyKeep); err != nil {
		logger.Warn("scheduler: pruning history: %v", err)
	}
}

// runReservationSync runs every connection and returns how many ran.
// Per-connection failures are reported but do not stop the others.
func (s *Scheduler) runReservationSync(ctx context.Context) (int, error) {
	if s.syncOrch == nil {
		return 0, nil
	}

	results, err := s.syncOrch.SyncAll(ctx)
	for _, r := range results {
		logger.Debug("scheduler: %s %s bookings=%d facts=%d review=%d",
			r.ConnectionID, r.Status, r.BookingsUpserted, r.FactsParsed, r.ReviewItemsCreated)
	}
	return len(results), err
}

// runOAuthRefresh keeps access tokens ahead of expiry.
func (s *Scheduler) runOAuthRefresh(ctx context.Context) (int, error) {
	if s.syncOrch == nil {
		return 0, nil
	}
	return s.syncOrch.RefreshTokens(ctx)
}
