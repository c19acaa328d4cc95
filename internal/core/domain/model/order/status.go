package order

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the sentinel wrapped by every InvalidTransitionError.
// Use errors.Is(err, ErrInvalidTransition) to classify transition failures.
var ErrInvalidTransition = errors.New("invalid order status transition")

// InvalidTransitionError reports an attempt to apply a status transition that
// is not an edge of the order state machine. The order state is left untouched.
type InvalidTransitionError struct {
	From Status
	To   Status
}

// NewInvalidTransitionError creates an InvalidTransitionError for the given edge.
func NewInvalidTransitionError(from, to Status) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Status represents the lifecycle state of an order.
// It implements a state machine with defined transitions so that orders
// follow the processing workflow:
//
//	Pending ──> Processing ──> Completed
//	   │             │
//	   │             └──> Failed
//	   └──> Cancelled
//
// Processing -> Processing is an idempotent no-op (duplicate job delivery).
// Completed, Failed, and Cancelled are terminal: no outgoing transitions.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status assigned at order intake.
	// Pending orders are waiting to be picked up by the processing job.
	Pending

	// Processing indicates the processing job has picked up the order.
	Processing

	// Completed indicates business logic finished successfully. Terminal.
	Completed

	// Failed indicates a business rule violation or exhausted retries. Terminal.
	Failed

	// Cancelled indicates the order was cancelled before processing started. Terminal.
	Cancelled
)

// getStatusStrings returns a map of Status values to their string representations.
// All statuses are included for string conversion.
func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "Unknown",
		Pending:    "Pending",
		Processing: "Processing",
		Completed:  "Completed",
		Failed:     "Failed",
		Cancelled:  "Cancelled",
	}
}

// getValidStatusStrings returns a map of only valid Status values.
// Only valid statuses are included to support validation.
func getValidStatusStrings() map[Status]string {
	//nolint:exhaustive // Unknown is intentionally excluded as it's invalid
	return map[Status]string{
		Pending:    "Pending",
		Processing: "Processing",
		Completed:  "Completed",
		Failed:     "Failed",
		Cancelled:  "Cancelled",
	}
}

// Validate checks if the Status value is valid.
// Unknown (0) and out-of-range values are invalid.
func (s Status) Validate() error {
	if _, ok := getValidStatusStrings()[s]; !ok {
		return NewInvalidTransitionError(s, s)
	}
	return nil
}

// String returns the human-readable name of the status.
// Implements fmt.Stringer and is safe on any Status value.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// StartProcessing transitions the status to Processing.
//
// Valid transitions:
//   - Pending -> Processing (job picks up the order)
//   - Processing -> Processing (duplicate delivery, idempotent no-op)
//
// Any other starting status returns an InvalidTransitionError.
func (s Status) StartProcessing() (Status, error) {
	if s != Pending && s != Processing {
		return 0, NewInvalidTransitionError(s, Processing)
	}
	return Processing, nil
}

// Complete transitions the status to Completed.
// Only Processing -> Completed is valid.
func (s Status) Complete() (Status, error) {
	if s != Processing {
		return 0, NewInvalidTransitionError(s, Completed)
	}
	return Completed, nil
}

// Fail transitions the status to Failed.
// Only Processing -> Failed is valid.
func (s Status) Fail() (Status, error) {
	if s != Processing {
		return 0, NewInvalidTransitionError(s, Failed)
	}
	return Failed, nil
}

// Cancel transitions the status to Cancelled.
// Only Pending -> Cancelled is valid: cancellation is a pre-processing path.
func (s Status) Cancel() (Status, error) {
	if s != Pending {
		return 0, NewInvalidTransitionError(s, Cancelled)
	}
	return Cancelled, nil
}
