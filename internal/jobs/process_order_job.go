package jobs

import (
	"context"
	"fmt"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/ports"
)

// ProcessOrderHandler is the slice of the processing command handler the job
// adapter needs.
type ProcessOrderHandler interface {
	Handle(ctx context.Context, cmd commands.ProcessOrderCommand) (commands.ProcessOrderResult, error)
}

// ProcessOrderJobHandler adapts the ProcessOrderCommandHandler to the job
// queue contract: it translates the delivered job into a command and the
// command's result into the ack/retry/fail decision the transport enforces.
type ProcessOrderJobHandler struct {
	handler ProcessOrderHandler
}

// NewProcessOrderJobHandler creates the queue-facing wrapper around the
// processing command handler.
func NewProcessOrderJobHandler(handler ProcessOrderHandler) *ProcessOrderJobHandler {
	return &ProcessOrderJobHandler{handler: handler}
}

// Execute runs one delivery of the order processing job.
func (h *ProcessOrderJobHandler) Execute(ctx context.Context, job ports.Job) (ports.JobResult, error) {
	cmd, err := commands.NewProcessOrderCommand(job.OrderID, job.FailureDirective, job.Attempt)
	if err != nil {
		return ports.JobResult{}, err
	}

	result, err := h.handler.Handle(ctx, cmd)
	if err != nil {
		return ports.JobResult{}, err
	}

	switch result.Outcome {
	case commands.ProcessOrderOutcomeRetry:
		return ports.JobResult{
			Outcome: ports.JobOutcomeRetry,
			Delay:   result.RetryDelay,
		}, nil
	case commands.ProcessOrderOutcomeFailedExhausted:
		return ports.JobResult{
			Outcome: ports.JobOutcomeFailed,
			Err: fmt.Errorf("order %s failed after %d retries: %s",
				job.OrderID, result.Retries, result.FailureDetail),
		}, nil
	default:
		// Completed, no-op duplicates and recorded business failures are all
		// finished deliveries from the transport's point of view.
		return ports.JobResult{Outcome: ports.JobOutcomeDone}, nil
	}
}
