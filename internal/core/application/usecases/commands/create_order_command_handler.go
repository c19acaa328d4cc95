package commands

import (
	"context"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatedOrderObserver is notified after an order was durably created.
// Used for metrics emission; notification is fire-and-forget and must not
// influence the outcome of the command.
type CreatedOrderObserver interface {
	OrderCreated(ord *order.Order)
}

// CreateOrderResult is the client-facing view of a freshly accepted order.
type CreateOrderResult struct {
	ExternalRef string
	Status      order.Status
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

// CreateOrderCommandHandler handles the business logic for order intake.
// Persists the new order in Pending status, then hands the processing job to
// the queue. Persist-then-enqueue ordering guarantees the job never races a
// not-yet-committed order.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, queue, observer, logger)
//	cmd, _ := NewCreateOrderCommand(kernel.NewUUID(), items, "")
//
//	result, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order intake failed: %w", err)
//	}
//	// result.ExternalRef identifies the order to the client
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	queue      ports.JobQueue
	observer   CreatedOrderObserver
	logger     *slog.Logger
}

// NewCreateOrderCommandHandler creates a handler for order intake operations.
// The observer may be nil when no metrics sink is configured.
func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	queue ports.JobQueue,
	observer CreatedOrderObserver,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		queue:      queue,
		observer:   observer,
		logger:     logger.With("component", "create_order_handler"),
	}
}

// Handle processes the order creation command.
// Persists the order with its creation event in one transaction, notifies
// the metrics observer, then enqueues the processing job. An enqueue failure
// does not fail the command: the order stays Pending and the enqueue sweep
// picks it up later.
func (h *CreateOrderCommandHandler) Handle(
	ctx context.Context,
	cmd CreateOrderCommand,
) (CreateOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return CreateOrderResult{}, err
	}

	ord, err := order.NewOrder(cmd.OrderID(), uuid.NewString(), cmd.LineItems())
	if err != nil {
		return CreateOrderResult{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return CreateOrderResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, ord); err != nil {
		return CreateOrderResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CreateOrderResult{}, err
	}

	if h.observer != nil {
		h.observer.OrderCreated(ord)
	}

	h.enqueueProcessing(ctx, cmd, ord)

	events := ord.Events()
	return CreateOrderResult{
		ExternalRef: ord.ExternalRef(),
		Status:      ord.Status(),
		TotalAmount: ord.TotalAmount(),
		CreatedAt:   events[0].CreatedAt(),
	}, nil
}

// enqueueProcessing hands the processing job to the queue and records the
// enqueue in the order's event log, both best-effort. The order itself is
// already durable; anything lost here is recovered by the enqueue sweep.
func (h *CreateOrderCommandHandler) enqueueProcessing(
	ctx context.Context,
	cmd CreateOrderCommand,
	ord *order.Order,
) {
	job := ports.NewProcessOrderJob(ord.ID(), cmd.FailureDirective())
	if err := h.queue.Enqueue(ctx, job); err != nil {
		h.logger.WarnContext(ctx, "processing job enqueue failed, sweep will recover",
			"order_id", ord.ID().String(), "error", err)
		return
	}

	ord.MarkEnqueued()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		h.logger.WarnContext(ctx, "enqueue bookkeeping skipped",
			"order_id", ord.ID().String(), "error", err)
		return
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.OrderRepository().Update(ctx, ord); err != nil {
		h.logger.WarnContext(ctx, "enqueue bookkeeping skipped",
			"order_id", ord.ID().String(), "error", err)
		return
	}

	if err := uow.Commit(ctx); err != nil {
		h.logger.WarnContext(ctx, "enqueue bookkeeping skipped",
			"order_id", ord.ID().String(), "error", err)
	}
}
