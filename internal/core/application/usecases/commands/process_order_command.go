package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrProcessOrderCommandIsNotConstructed = errors.New(
		"ProcessOrderCommand must be created via NewProcessOrderCommand constructor",
	)
)

// ProcessOrderCommand represents one delivery of an order's processing job.
// Attempt is the zero-based retry counter assigned by the queue transport:
// 0 for the initial delivery, incremented on every redelivery.
type ProcessOrderCommand struct { //nolint:recvcheck //using for validation
	orderID          kernel.UUID
	failureDirective string
	attempt          int

	guard guard.ConstructorGuard
}

// NewProcessOrderCommand creates a command for one processing attempt.
func NewProcessOrderCommand(
	orderID kernel.UUID,
	failureDirective string,
	attempt int,
) (ProcessOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ProcessOrderCommand{}, err
	}
	if attempt < 0 {
		return ProcessOrderCommand{}, errs.NewValueIsInvalidError("attempt")
	}

	return ProcessOrderCommand{
		orderID:          orderID,
		failureDirective: failureDirective,
		attempt:          attempt,
		guard:            guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c ProcessOrderCommand) Validate() error {
	return c.guard.Validate(ErrProcessOrderCommandIsNotConstructed)
}

// OrderID returns the internal identifier of the order to process.
func (c ProcessOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// FailureDirective returns the simulated-failure directive, empty for none.
func (c ProcessOrderCommand) FailureDirective() string {
	return c.failureDirective
}

// Attempt returns the zero-based retry attempt of this delivery.
func (c ProcessOrderCommand) Attempt() int {
	return c.attempt
}
