package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
)

// CreateOrderCommand represents a request to accept a new order at intake.
// Carries already-validated line items plus an optional failure directive
// that is passed through to the simulated business-logic step.
//
// Example:
//
//	items := []order.LineItem{item}
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), items, "")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	result, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID          kernel.UUID
	lineItems        []order.LineItem
	failureDirective string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to accept a new order.
// Validates that the order ID is valid and at least one constructed line
// item is present. The failure directive is opaque at this layer.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	lineItems []order.LineItem,
	failureDirective string,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		failureDirective: failureDirective,
		guard:            guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setLineItems(lineItems),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the identifier for the new order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// LineItems returns the validated line items of the order.
func (c CreateOrderCommand) LineItems() []order.LineItem {
	return c.lineItems
}

// FailureDirective returns the simulated-failure directive, empty for none.
func (c CreateOrderCommand) FailureDirective() string {
	return c.failureDirective
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setLineItems(lineItems []order.LineItem) error {
	if len(lineItems) == 0 {
		return order.ErrLineItemsAreRequired
	}
	for _, item := range lineItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	c.lineItems = lineItems
	return nil
}
