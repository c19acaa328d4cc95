package commands

import (
	"context"
)

// CancelOrderCommandHandler handles client-initiated order cancellation.
// Cancellation races the processing pipeline, so the decision is made under
// a row lock: the order is re-read with the lock held and the Pending check
// happens inside the same transaction as the write.
type CancelOrderCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewCancelOrderCommandHandler creates a handler for order cancellation.
func NewCancelOrderCommandHandler(uowFactory OrderUoWFactory) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the cancellation command.
// Returns errs.ObjectNotFoundError for an unknown reference and an
// order.InvalidTransitionError when the order already left Pending, for
// example because a worker claimed it first.
func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	ord, err := orderRepo.GetByExternalRefForUpdate(ctx, cmd.ExternalRef())
	if err != nil {
		return err
	}

	if err = ord.Cancel(); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, ord); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
