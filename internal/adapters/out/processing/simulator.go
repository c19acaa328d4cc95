// Package processing provides the business-logic step of the order pipeline.
// The real work is simulated: a configurable delay plus failure injection
// through the order's failure directive, which exercises every path of the
// processing state machine without external systems.
package processing

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
)

// Failure directives recognized by the simulator.
const (
	DirectiveBusinessFailure       = "business"
	DirectiveInfrastructureFailure = "infrastructure"
)

// SimulatedProcessor implements ports.OrderProcessor with simulated work.
// An empty directive succeeds after the configured work delay; the two
// failure directives produce the corresponding ProcessingError kind.
type SimulatedProcessor struct {
	workDelay time.Duration
}

// NewSimulatedProcessor creates a processor simulating workDelay of work per
// order. A zero delay is valid and useful in tests.
func NewSimulatedProcessor(workDelay time.Duration) *SimulatedProcessor {
	return &SimulatedProcessor{workDelay: workDelay}
}

// Process simulates the business-logic step for one order.
// Honors context cancellation during the simulated work.
func (p *SimulatedProcessor) Process(ctx context.Context, _ *order.Order, failureDirective string) error {
	if p.workDelay > 0 {
		timer := time.NewTimer(p.workDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	switch failureDirective {
	case DirectiveBusinessFailure:
		return ports.NewBusinessError("order rejected by simulated business rule")
	case DirectiveInfrastructureFailure:
		return ports.NewInfrastructureError("simulated infrastructure outage")
	default:
		return nil
	}
}
