package driving

import (
	"context"

	"github.com/custodia-labs/rentsync/internal/core/domain"
)

// Scheduler runs token refresh and reservation sync on their intervals.
type Scheduler interface {
	// Start runs due tasks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends the loop and waits for running tasks.
	Stop() error

	// Tasks returns the persisted state of every task, ordered by ID.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// History returns the latest runs of a task, newest first.
	History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)
}
