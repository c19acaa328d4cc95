package queries

import (
	"errors"
	"time"

	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrGetOrderQueryIsNotConstructed = errors.New(
		"GetOrderQuery must be created via NewGetOrderQuery constructor",
	)
)

// GetOrderQuery retrieves one order with its line items and full event
// history, addressed by the client-facing external reference.
//
// Example:
//
//	query, err := NewGetOrderQuery("0f8fad5b-d9cb-469f-a165-70867728950e")
//	if err != nil {
//	    return fmt.Errorf("bad reference: %w", err)
//	}
//
//	view, err := handler.Handle(ctx, query)
type GetOrderQuery struct {
	externalRef string

	guard guard.ConstructorGuard
}

// NewGetOrderQuery creates a query for the order behind an external reference.
func NewGetOrderQuery(externalRef string) (GetOrderQuery, error) {
	if externalRef == "" {
		return GetOrderQuery{}, errs.NewValueIsRequiredError("externalRef")
	}

	return GetOrderQuery{
		externalRef: externalRef,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetOrderQueryIsNotConstructed if validation fails.
func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// ExternalRef returns the client-facing reference of the queried order.
func (q GetOrderQuery) ExternalRef() string {
	return q.externalRef
}

// GetOrderQueryResponse is the read model of one order: current status,
// the creation-time total and the complete lifecycle history.
type GetOrderQueryResponse struct {
	ExternalRef string
	Status      string
	TotalAmount decimal.Decimal
	LineItems   []LineItemResponse
	Events      []EventResponse
}

// LineItemResponse is the read model of one order line.
type LineItemResponse struct {
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// EventResponse is the read model of one lifecycle event.
// Payload is nil for event types that carry none.
type EventResponse struct {
	Type      string
	CreatedAt time.Time
	Payload   map[string]any
}
