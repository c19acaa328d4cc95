package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// A missing order is reported as errs.ObjectNotFoundError, which callers
// treat as a distinct, non-exceptional outcome.
type OrderRepository interface {
	// Add persists a new order aggregate together with its line items and
	// the events recorded so far, atomically.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists the current status and any newly recorded events of an
	// existing order in one atomic write.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its internal identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate retrieves an order by its internal identifier and locks
	// the row for the duration of the surrounding transaction. This is the
	// mechanism that serializes racing deliveries of the same order's job.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByExternalRef retrieves an order by its client-facing reference.
	GetByExternalRef(ctx context.Context, externalRef string) (*order.Order, error)

	// GetByExternalRefForUpdate is GetByExternalRef with a row lock, used by
	// the cancellation path.
	GetByExternalRefForUpdate(ctx context.Context, externalRef string) (*order.Order, error)

	// GetAllPendingBefore retrieves orders still Pending whose creation event
	// predates the cutoff. Used by the enqueue sweep to recover orders whose
	// enqueue was lost.
	GetAllPendingBefore(ctx context.Context, cutoff time.Time) ([]*order.Order, error)
}
