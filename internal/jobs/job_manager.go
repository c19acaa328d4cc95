package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/ports"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	enqueueSweepJob *EnqueueSweepJob
}

// NewJobManager creates a new job manager with all required jobs.
// Takes the unit of work factory and the queue as dependencies to wire up
// job execution.
func NewJobManager(
	uowFactory commands.OrderUoWFactory,
	queue ports.JobQueue,
	sweepStaleAfter time.Duration,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		enqueueSweepJob: NewEnqueueSweepJob(uowFactory, queue, sweepStaleAfter, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.enqueueSweepJob.Start(); err != nil {
		return fmt.Errorf("failed to start enqueue sweep job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.enqueueSweepJob.Stop()
}
