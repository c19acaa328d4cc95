package ports

import (
	"context"
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/order"
)

// OrderProcessor is the business-logic step of order processing, an external
// collaborator from the pipeline's point of view. One call either succeeds or
// returns a ProcessingError of exactly one of the two failure kinds; any
// other error is a programming defect, not a modeled outcome.
type OrderProcessor interface {
	Process(ctx context.Context, ord *order.Order, failureDirective string) error
}

// FailureKind discriminates the two modeled failure classes of the
// business-logic step. The processing job branches on the kind field rather
// than on error type hierarchies.
type FailureKind int

const (
	// FailureKindUnknown represents an invalid or undefined kind.
	FailureKindUnknown FailureKind = iota

	// FailureKindBusiness is a domain rule violation: terminal, recorded,
	// never retried.
	FailureKindBusiness

	// FailureKindInfrastructure is a transient condition that may succeed on
	// retry; it becomes terminal only after the retry budget is exhausted.
	FailureKindInfrastructure
)

// String returns the failure reason string recorded in event payloads.
func (k FailureKind) String() string {
	switch k {
	case FailureKindBusiness:
		return order.FailureReasonBusiness
	case FailureKindInfrastructure:
		return order.FailureReasonInfrastructure
	default:
		return "unknown"
	}
}

// ProcessingError is the tagged failure returned by an OrderProcessor.
type ProcessingError struct {
	Kind   FailureKind
	Detail string
}

// NewBusinessError creates a business-rule failure.
func NewBusinessError(detail string) *ProcessingError {
	return &ProcessingError{Kind: FailureKindBusiness, Detail: detail}
}

// NewInfrastructureError creates a transient infrastructure failure.
func NewInfrastructureError(detail string) *ProcessingError {
	return &ProcessingError{Kind: FailureKindInfrastructure, Detail: detail}
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s failure: %s", e.Kind, e.Detail)
}

// ClassifyFailure extracts the ProcessingError from err, if any.
// Returns (nil, false) for errors outside the modeled taxonomy.
func ClassifyFailure(err error) (*ProcessingError, bool) {
	var procErr *ProcessingError
	if errors.As(err, &procErr) {
		return procErr, true
	}
	return nil, false
}
