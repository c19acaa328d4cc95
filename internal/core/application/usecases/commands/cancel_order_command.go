package commands

import (
	"errors"

	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrCancelOrderCommandIsNotConstructed = errors.New(
		"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
	)
)

// CancelOrderCommand represents a client request to cancel an order that has
// not started processing yet. Orders are addressed by their external
// reference, the only identifier clients ever see.
type CancelOrderCommand struct { //nolint:recvcheck //using for validation
	externalRef string

	guard guard.ConstructorGuard
}

// NewCancelOrderCommand creates a command to cancel an order.
func NewCancelOrderCommand(externalRef string) (CancelOrderCommand, error) {
	if externalRef == "" {
		return CancelOrderCommand{}, errs.NewValueIsRequiredError("externalRef")
	}

	return CancelOrderCommand{
		externalRef: externalRef,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}

// ExternalRef returns the client-facing reference of the order to cancel.
func (c CancelOrderCommand) ExternalRef() string {
	return c.externalRef
}
