// Package order provides the domain model for order intake and asynchronous
// processing. It implements the Order aggregate root with its line items,
// append-only event log, and status state machine.
//
// The package includes:
//   - Order: The aggregate root owning line items and lifecycle events
//   - LineItem: A value object for product name, quantity, and unit price
//   - Event: An immutable, timestamped lifecycle record with an open payload
//   - Status: A state machine that enforces valid status transitions
//
// Key business rules:
//   - Orders must have at least one valid line item
//   - The total amount is computed once at creation (rounded half-up to two
//     decimal places) and never recomputed afterward
//   - Status follows Pending -> Processing -> {Completed, Failed}, with
//     Pending -> Cancelled as the only cancellation path
//   - Re-delivery of the processing job while already Processing is an
//     idempotent no-op; terminal statuses accept no further transitions
//   - Every status change records exactly one event in the same unit of work
//
// The package follows Domain-Driven Design principles, providing rich domain
// behavior, encapsulation, and validation to ensure business rules are enforced.
package order
