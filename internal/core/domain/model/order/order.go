package order

import (
	"errors"
	"slices"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created
	// through the NewOrder or RestoreOrder factory methods.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrLineItemsAreRequired is returned when constructing an order with no line items.
	ErrLineItemsAreRequired = errs.NewValueIsRequiredError("lineItems")
)

// Order is the aggregate root for a customer purchase request tracked through
// the processing lifecycle.
//
// Order maintains these invariants:
//   - always has at least one line item
//   - totalAmount is a snapshot computed once at creation (Σ quantity×price,
//     rounded to 2 decimal places half-up) and never recomputed afterward
//   - status changes only along the state machine edges in Status
//   - the event log is append-only and ordered by non-decreasing createdAt
//
// All mutation goes through the transition methods below; fields are private
// so external code cannot bypass the state machine or the event log.
type Order struct {
	// id is the stable internal identifier
	id kernel.UUID

	// externalRef is the opaque, client-facing reference. Immutable.
	externalRef string

	// items are the ordered line items. Never empty.
	items []LineItem

	// events is the append-only lifecycle event log
	events []Event

	// status is the current state in the processing lifecycle
	status Status

	// totalAmount is the creation-time snapshot of the order value
	totalAmount decimal.Decimal

	// isConstructed ensures the order was created via a factory method
	isConstructed bool
}

// NewOrder creates a new order in Pending status with an OrderCreated event
// already recorded. The total amount is computed here, once, as the rounded
// sum of the line item subtotals.
//
// Returns ErrLineItemsAreRequired when items is empty, or the joined
// validation errors of the individual line items.
func NewOrder(id kernel.UUID, externalRef string, items []LineItem) (*Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if externalRef == "" {
		return nil, errs.NewValueIsRequiredError("externalRef")
	}
	if len(items) == 0 {
		return nil, ErrLineItemsAreRequired
	}

	total := decimal.Zero
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		total = total.Add(item.Subtotal())
	}

	order := &Order{
		id:            id,
		externalRef:   externalRef,
		items:         slices.Clone(items),
		status:        Pending,
		totalAmount:   total.Round(2),
		isConstructed: true,
	}
	order.recordEvent(EventOrderCreated, nil)

	return order, nil
}

// RestoreOrder reconstructs an order from persistence. The total amount is
// restored as stored, never recomputed: it is a creation-time snapshot.
func RestoreOrder(
	id kernel.UUID,
	externalRef string,
	items []LineItem,
	events []Event,
	status Status,
	totalAmount decimal.Decimal,
) (*Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if externalRef == "" {
		return nil, errs.NewValueIsRequiredError("externalRef")
	}
	if len(items) == 0 {
		return nil, ErrLineItemsAreRequired
	}
	if err := status.Validate(); err != nil {
		return nil, err
	}

	return &Order{
		id:            id,
		externalRef:   externalRef,
		items:         slices.Clone(items),
		events:        slices.Clone(events),
		status:        status,
		totalAmount:   totalAmount,
		isConstructed: true,
	}, nil
}

// Validate ensures the Order instance was properly constructed through a
// factory method. Call when reconstructing orders from external input.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their internal identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's stable internal identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// ExternalRef returns the opaque client-facing reference.
func (o *Order) ExternalRef() string {
	return o.externalRef
}

// LineItems returns a copy of the order's line items.
func (o *Order) LineItems() []LineItem {
	return slices.Clone(o.items)
}

// Events returns a copy of the append-only event log, in append order.
func (o *Order) Events() []Event {
	return slices.Clone(o.events)
}

// Status returns the current status of the order.
func (o *Order) Status() Status {
	return o.status
}

// TotalAmount returns the creation-time total amount snapshot.
func (o *Order) TotalAmount() decimal.Decimal {
	return o.totalAmount
}

// StartProcessing moves the order from Pending to Processing and records a
// ProcessingStarted event.
//
// Re-entry is idempotent: when the order is already Processing (a duplicate
// job delivery), no second ProcessingStarted event is appended and no state
// is reset; started is false and err is nil. Terminal statuses return an
// InvalidTransitionError; callers are expected to check IsTerminal first.
func (o *Order) StartProcessing() (started bool, err error) {
	if o.status == Processing {
		return false, nil
	}

	newStatus, err := o.status.StartProcessing()
	if err != nil {
		return false, err
	}

	o.status = newStatus
	o.recordEvent(EventProcessingStarted, nil)
	return true, nil
}

// Complete moves the order from Processing to Completed and records an
// OrderCompleted event. Any other starting status is an InvalidTransitionError.
func (o *Order) Complete() error {
	newStatus, err := o.status.Complete()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.recordEvent(EventOrderCompleted, nil)
	return nil
}

// Fail moves the order from Processing to Failed and records a
// ProcessingFailed event carrying the failure reason and error detail.
func (o *Order) Fail(reason, detail string) error {
	return o.fail(map[string]any{
		PayloadKeyReason: reason,
		PayloadKeyError:  detail,
	})
}

// FailAfterRetries moves the order from Processing to Failed after the retry
// budget for a transient failure was exhausted. The ProcessingFailed event
// additionally records how many retries were attempted.
func (o *Order) FailAfterRetries(detail string, retries int) error {
	return o.fail(map[string]any{
		PayloadKeyReason:  FailureReasonInfrastructure,
		PayloadKeyError:   detail,
		PayloadKeyRetries: retries,
	})
}

func (o *Order) fail(payload map[string]any) error {
	newStatus, err := o.status.Fail()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.recordEvent(EventProcessingFailed, payload)
	return nil
}

// Cancel moves the order from Pending to Cancelled and records an
// OrderCancelled event. Cancellation is only possible before processing starts.
func (o *Order) Cancel() error {
	newStatus, err := o.status.Cancel()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.recordEvent(EventOrderCancelled, nil)
	return nil
}

// MarkEnqueued records an OrderEnqueued event after the processing job was
// handed to the queue. A no-op once the order left Pending, so late or
// repeated enqueue bookkeeping cannot corrupt the log of a processed order.
func (o *Order) MarkEnqueued() {
	if o.status != Pending {
		return
	}
	o.recordEvent(EventOrderEnqueued, nil)
}

// recordEvent appends a lifecycle event with a timestamp clamped to be
// non-decreasing within the order, so the event sequence stays time-ordered
// even across clock adjustments. Appended in the same unit of work as the
// status change that produced it.
func (o *Order) recordEvent(eventType EventType, payload map[string]any) {
	now := time.Now().UTC()
	if last := len(o.events) - 1; last >= 0 && now.Before(o.events[last].createdAt) {
		now = o.events[last].createdAt
	}
	o.events = append(o.events, newEvent(eventType, now, payload))
}
