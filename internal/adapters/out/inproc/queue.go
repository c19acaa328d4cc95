// Package inproc provides an in-process job queue backed by a worker pool.
// It implements the same at-least-once contract as the broker transport and
// is the default when no broker is configured: local development, tests, and
// single-node deployments. Jobs do not survive a process restart; the
// enqueue sweep re-creates lost processing jobs on the next run.
package inproc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"orderflow/internal/core/ports"
	"orderflow/internal/jobs"
)

// ErrQueueStopped is returned by Enqueue after Stop was called.
var ErrQueueStopped = errors.New("in-process job queue is stopped")

// redeliveryDelay is the pause before redelivering a job whose handler could
// not reach a decision, typically because the store was unreachable.
const redeliveryDelay = 5 * time.Second

// Queue is a worker-pool job queue living inside the service process.
type Queue struct {
	registry *jobs.HandlerRegistry
	jobs     chan ports.Job
	quit     chan struct{}
	workers  int
	logger   *slog.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewQueue creates a queue delivering jobs to workers goroutines through a
// buffer of the given size.
func NewQueue(registry *jobs.HandlerRegistry, workers, buffer int, logger *slog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}

	return &Queue{
		registry: registry,
		jobs:     make(chan ports.Job, buffer),
		quit:     make(chan struct{}),
		workers:  workers,
		logger:   logger.With("component", "inproc_queue"),
	}
}

// Start launches the worker pool.
func (q *Queue) Start() {
	for range q.workers {
		q.wg.Add(1)
		go q.worker()
	}

	q.logger.Info("In-process job queue started", "workers", q.workers)
}

// Stop shuts the pool down. Workers finish their current delivery; buffered
// and delay-pending jobs are dropped and left to the enqueue sweep.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.quit)
	})
	q.wg.Wait()
	q.logger.Info("In-process job queue stopped")
}

// Enqueue hands a job to the worker pool.
// Blocks while the buffer is full until the context is done or the queue stops.
func (q *Queue) Enqueue(ctx context.Context, job ports.Job) error {
	select {
	case <-q.quit:
		return ErrQueueStopped
	case <-ctx.Done():
		return ctx.Err()
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.quit:
			return
		case job := <-q.jobs:
			q.deliver(job)
		}
	}
}

// deliver executes one job delivery and enforces the handler's decision.
func (q *Queue) deliver(job ports.Job) {
	ctx := context.Background()

	handler, err := q.registry.Resolve(job.Type)
	if err != nil {
		// No handler can ever serve this job; redelivering would loop.
		q.logger.ErrorContext(ctx, "Dropped job of unregistered type",
			"job_type", job.Type, "error", err)
		return
	}

	result, err := handler.Execute(ctx, job)
	if err != nil {
		q.logger.WarnContext(ctx, "Job handler reached no decision, redelivering",
			"job_type", job.Type, "attempt", job.Attempt, "error", err)
		q.enqueueAfter(redeliveryDelay, job)
		return
	}

	switch result.Outcome {
	case ports.JobOutcomeRetry:
		next := job
		next.Attempt++
		q.enqueueAfter(result.Delay, next)
	case ports.JobOutcomeFailed:
		q.logger.ErrorContext(ctx, "Job failed terminally",
			"job_type", job.Type, "attempt", job.Attempt, "error", result.Err)
	case ports.JobOutcomeDone, ports.JobOutcomeUnknown:
	}
}

// enqueueAfter schedules a redelivery. A delivery scheduled while the queue
// is stopping is silently dropped.
func (q *Queue) enqueueAfter(delay time.Duration, job ports.Job) {
	if delay <= 0 {
		_ = q.Enqueue(context.Background(), job)
		return
	}

	time.AfterFunc(delay, func() {
		_ = q.Enqueue(context.Background(), job)
	})
}
