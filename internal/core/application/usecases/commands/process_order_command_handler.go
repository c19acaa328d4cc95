package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// ProcessOrderOutcome is the tagged result of one processing attempt.
// The queue transport maps it to its own acknowledge/redeliver decision.
type ProcessOrderOutcome int

const (
	// ProcessOrderOutcomeUnknown represents an invalid or undefined outcome.
	ProcessOrderOutcomeUnknown ProcessOrderOutcome = iota

	// ProcessOrderOutcomeCompleted means the order was processed and completed.
	ProcessOrderOutcomeCompleted

	// ProcessOrderOutcomeAlreadyDone means nothing was done: the order is
	// unknown or already in a terminal status. Duplicate and stale deliveries
	// land here.
	ProcessOrderOutcomeAlreadyDone

	// ProcessOrderOutcomeFailedBusiness means a business rule rejected the
	// order. The failure is recorded on the order; the delivery itself is
	// handled and must not be retried.
	ProcessOrderOutcomeFailedBusiness

	// ProcessOrderOutcomeRetry means a transient failure occurred and the
	// job should be redelivered after RetryDelay with the attempt counter
	// incremented. No order state was changed by this attempt's failure.
	ProcessOrderOutcomeRetry

	// ProcessOrderOutcomeFailedExhausted means the transient-failure retry
	// budget ran out and the order was marked Failed. The delivery is
	// handled; the transport should alert, not retry.
	ProcessOrderOutcomeFailedExhausted
)

// String returns the human-readable name of the outcome.
func (o ProcessOrderOutcome) String() string {
	switch o {
	case ProcessOrderOutcomeCompleted:
		return "completed"
	case ProcessOrderOutcomeAlreadyDone:
		return "already_done"
	case ProcessOrderOutcomeFailedBusiness:
		return "failed_business"
	case ProcessOrderOutcomeRetry:
		return "retry"
	case ProcessOrderOutcomeFailedExhausted:
		return "failed_exhausted"
	default:
		return "unknown"
	}
}

// ProcessOrderResult describes what one processing attempt decided.
// RetryDelay is set only for ProcessOrderOutcomeRetry. FailureDetail carries
// the processor's error detail for the two failure outcomes.
type ProcessOrderResult struct {
	Outcome       ProcessOrderOutcome
	RetryDelay    time.Duration
	Retries       int
	FailureDetail string
}

// ProcessedOrderObserver is notified once per finished processing attempt.
// Used for metrics emission; fire-and-forget.
type ProcessedOrderObserver interface {
	OrderProcessed(outcome ProcessOrderOutcome)
}

// ProcessOrderCommandHandler executes one delivery of an order's processing
// job. It is the only writer of the Processing, Completed and Failed
// statuses.
//
// Each attempt spans two transactions. The first claims the order: re-read
// under a row lock, skip if terminal, move to Processing. The second, after
// the business-logic step ran without any lock held, records the final
// status, again under a row lock with a terminal re-check. Between the two
// transactions the order row is unlocked on purpose: the business-logic step
// may be slow and must not serialize unrelated reads.
//
// Transient failures change no order state at all. The attempt simply asks
// the transport to redeliver later, and the order stays in Processing until
// an attempt reaches a verdict.
type ProcessOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	processor  ports.OrderProcessor
	scheduler  services.RetryScheduler
	observer   ProcessedOrderObserver
	logger     *slog.Logger
}

// NewProcessOrderCommandHandler creates the handler executing processing
// attempts. The observer may be nil when no metrics sink is configured.
func NewProcessOrderCommandHandler(
	uowFactory OrderUoWFactory,
	processor ports.OrderProcessor,
	scheduler services.RetryScheduler,
	observer ProcessedOrderObserver,
	logger *slog.Logger,
) ProcessOrderCommandHandler {
	return ProcessOrderCommandHandler{
		uowFactory: uowFactory,
		processor:  processor,
		scheduler:  scheduler,
		observer:   observer,
		logger:     logger.With("component", "process_order_handler"),
	}
}

// Handle executes one processing attempt and returns the resulting decision.
// A non-nil error means no decision could be reached (for example the store
// was unreachable); the transport treats that as a failed delivery. All
// modeled outcomes, including terminal failures, return a nil error.
func (h *ProcessOrderCommandHandler) Handle(
	ctx context.Context,
	cmd ProcessOrderCommand,
) (ProcessOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return ProcessOrderResult{}, err
	}

	claimed, err := h.claim(ctx, cmd)
	if err != nil {
		return ProcessOrderResult{}, err
	}
	if claimed == nil {
		return h.observed(ProcessOrderResult{Outcome: ProcessOrderOutcomeAlreadyDone}), nil
	}

	result, err := h.runProcessor(ctx, cmd, claimed)
	if err != nil {
		return ProcessOrderResult{}, err
	}
	return h.observed(result), nil
}

// claim moves the order to Processing under a row lock and returns the
// claimed aggregate. Returns nil when there is nothing to do: the order is
// unknown or already terminal.
func (h *ProcessOrderCommandHandler) claim(
	ctx context.Context,
	cmd ProcessOrderCommand,
) (*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	ord, err := orderRepo.GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			h.logger.WarnContext(ctx, "processing job for unknown order dropped",
				"order_id", cmd.OrderID().String())
			return nil, nil
		}
		return nil, err
	}

	if ord.Status().IsTerminal() {
		return nil, nil
	}

	started, err := ord.StartProcessing()
	if err != nil {
		return nil, err
	}
	if !started {
		// Already Processing: a redelivery or a recovered in-flight attempt.
		// Proceed without appending a second start event.
		return ord, nil
	}

	if err = orderRepo.Update(ctx, ord); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return ord, nil
}

// runProcessor executes the business-logic step and records its verdict.
// The aggregate passed to the processor is the snapshot taken at claim time;
// the verdict is recorded against a fresh read.
func (h *ProcessOrderCommandHandler) runProcessor(
	ctx context.Context,
	cmd ProcessOrderCommand,
	claimed *order.Order,
) (ProcessOrderResult, error) {
	procErr := h.processor.Process(ctx, claimed, cmd.FailureDirective())
	if procErr == nil {
		return h.finalize(ctx, cmd, ProcessOrderResult{
			Outcome: ProcessOrderOutcomeCompleted,
		}, func(ord *order.Order) error {
			return ord.Complete()
		})
	}

	failure, ok := ports.ClassifyFailure(procErr)
	if !ok {
		// Outside the modeled taxonomy: a defect, not an outcome.
		return ProcessOrderResult{}, procErr
	}

	if failure.Kind == ports.FailureKindBusiness {
		return h.finalize(ctx, cmd, ProcessOrderResult{
			Outcome:       ProcessOrderOutcomeFailedBusiness,
			FailureDetail: failure.Detail,
		}, func(ord *order.Order) error {
			return ord.Fail(order.FailureReasonBusiness, failure.Detail)
		})
	}

	decision := h.scheduler.Schedule(cmd.Attempt())
	if decision.Retry {
		h.logger.InfoContext(ctx, "transient failure, retry scheduled",
			"order_id", cmd.OrderID().String(),
			"attempt", cmd.Attempt(),
			"delay", decision.Delay.String(),
			"error", failure.Detail)
		return ProcessOrderResult{
			Outcome:       ProcessOrderOutcomeRetry,
			RetryDelay:    decision.Delay,
			FailureDetail: failure.Detail,
		}, nil
	}

	retries := cmd.Attempt()
	return h.finalize(ctx, cmd, ProcessOrderResult{
		Outcome:       ProcessOrderOutcomeFailedExhausted,
		Retries:       retries,
		FailureDetail: failure.Detail,
	}, func(ord *order.Order) error {
		return ord.FailAfterRetries(failure.Detail, retries)
	})
}

// finalize records the attempt's verdict in a fresh transaction with a row
// lock and a terminal re-check, so a racing duplicate that finished first
// wins and this delivery degrades to a no-op.
func (h *ProcessOrderCommandHandler) finalize(
	ctx context.Context,
	cmd ProcessOrderCommand,
	result ProcessOrderResult,
	transition func(ord *order.Order) error,
) (ProcessOrderResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ProcessOrderResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	ord, err := orderRepo.GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return ProcessOrderResult{}, err
	}

	if ord.Status().IsTerminal() {
		return ProcessOrderResult{Outcome: ProcessOrderOutcomeAlreadyDone}, nil
	}

	if err = transition(ord); err != nil {
		return ProcessOrderResult{}, err
	}

	if err = orderRepo.Update(ctx, ord); err != nil {
		return ProcessOrderResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ProcessOrderResult{}, err
	}

	return result, nil
}

func (h *ProcessOrderCommandHandler) observed(result ProcessOrderResult) ProcessOrderResult {
	if h.observer != nil {
		h.observer.OrderProcessed(result.Outcome)
	}
	return result
}
