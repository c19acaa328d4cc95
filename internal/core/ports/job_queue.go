package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
)

// JobTypeProcessOrder is the job type of the order processing pipeline.
// It is the only job type this service registers.
const JobTypeProcessOrder = "order.process"

// Job is the unit of asynchronous work delivered by the queue.
// Delivery is at-least-once: the same logical job may be delivered multiple
// times, and Attempt carries the zero-based retry attempt assigned by the
// transport on redelivery.
type Job struct {
	Type             string
	OrderID          kernel.UUID
	FailureDirective string
	Attempt          int
}

// NewProcessOrderJob creates the initial (attempt 0) processing job for an order.
func NewProcessOrderJob(orderID kernel.UUID, failureDirective string) Job {
	return Job{
		Type:             JobTypeProcessOrder,
		OrderID:          orderID,
		FailureDirective: failureDirective,
	}
}

// JobQueue hands jobs to the asynchronous transport.
// Implementations must deliver each enqueued job at least once and support
// redelivery with an incremented attempt counter when a handler requests a retry.
type JobQueue interface {
	Enqueue(ctx context.Context, job Job) error
}

// JobOutcome is the tagged result of one job execution, consumed by the
// queue's scheduling loop. It replaces exception-driven retry signaling:
// the handler returns the decision, the transport enforces it.
type JobOutcome int

const (
	// JobOutcomeUnknown represents an invalid or undefined outcome.
	JobOutcomeUnknown JobOutcome = iota

	// JobOutcomeDone means the delivery is finished: acknowledge and forget.
	// Covers success, idempotent no-ops, and handled terminal failures.
	JobOutcomeDone

	// JobOutcomeRetry means the attempt hit a transient failure: redeliver
	// after Delay with the attempt counter incremented.
	JobOutcomeRetry

	// JobOutcomeFailed means the job failed terminally after the handler
	// recorded a consistent state: acknowledge, stop retrying, and alert.
	JobOutcomeFailed
)

// String returns the human-readable name of the outcome.
func (o JobOutcome) String() string {
	switch o {
	case JobOutcomeDone:
		return "done"
	case JobOutcomeRetry:
		return "retry"
	case JobOutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobResult carries the outcome of one job execution back to the transport.
// Delay is set only for JobOutcomeRetry. Err carries detail for operational
// alerting on JobOutcomeFailed; the order's own state is already consistent.
type JobResult struct {
	Outcome JobOutcome
	Delay   time.Duration
	Err     error
}

// JobHandler executes one delivery of a job.
// A returned error means the handler could not reach a decision (for example
// the store was unreachable); the transport treats it as a failed delivery.
type JobHandler interface {
	Execute(ctx context.Context, job Job) (JobResult, error)
}
