package jobs

import (
	"context"
	"log/slog"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// EnqueueSweepJob periodically re-enqueues orders stuck in Pending.
// An order can lose its processing job when the broker is down at intake or
// the process dies between commit and enqueue; under at-least-once delivery
// re-enqueueing is always safe, so the sweep simply retries the handoff for
// every Pending order older than the staleness threshold.
type EnqueueSweepJob struct {
	uowFactory commands.OrderUoWFactory
	queue      ports.JobQueue
	staleAfter time.Duration
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewEnqueueSweepJob creates the sweep job. staleAfter controls how long an
// order may sit in Pending before the sweep considers its enqueue lost; it
// must comfortably exceed the normal intake-to-dequeue latency.
func NewEnqueueSweepJob(
	uowFactory commands.OrderUoWFactory,
	queue ports.JobQueue,
	staleAfter time.Duration,
	logger *slog.Logger,
) *EnqueueSweepJob {
	return &EnqueueSweepJob{
		uowFactory: uowFactory,
		queue:      queue,
		staleAfter: staleAfter,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "enqueue_sweep_job"),
	}
}

// Start begins the sweep, running twice a minute.
func (j *EnqueueSweepJob) Start() error {
	_, err := j.cron.AddFunc("*/30 * * * * *", func() {
		ctx := context.Background()
		if err := j.sweep(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Enqueue sweep failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Enqueue sweep job started (running every 30 seconds)")
	return nil
}

// Stop stops the sweep job.
func (j *EnqueueSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Enqueue sweep job stopped")
}

// sweep re-enqueues every stale Pending order once.
// The failure directive is not persisted, so recovered jobs run without one.
func (j *EnqueueSweepJob) sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-j.staleAfter)
	stale, err := j.uowFactory.Create().OrderRepository().GetAllPendingBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, ord := range stale {
		if err = j.queue.Enqueue(ctx, ports.NewProcessOrderJob(ord.ID(), "")); err != nil {
			j.logger.WarnContext(ctx, "Re-enqueue failed, will retry next sweep",
				"order_id", ord.ID().String(), "error", err)
			continue
		}

		j.logger.InfoContext(ctx, "Re-enqueued stale pending order",
			"order_id", ord.ID().String())
		j.recordEnqueue(ctx, ord)
	}

	return nil
}

// recordEnqueue appends the enqueue event, best effort.
func (j *EnqueueSweepJob) recordEnqueue(ctx context.Context, ord *order.Order) {
	ord.MarkEnqueued()

	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.OrderRepository().Update(ctx, ord); err != nil {
		j.logger.WarnContext(ctx, "Enqueue bookkeeping skipped",
			"order_id", ord.ID().String(), "error", err)
		return
	}

	_ = uow.Commit(ctx)
}
