package jobs

import (
	"fmt"

	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// HandlerRegistry maps job types to their handlers. The composition root
// registers every handler explicitly at startup; nothing self-registers
// through package side effects, so the full job surface of the service is
// visible in one place.
//
// The registry is populated once before any consumer starts and read-only
// afterwards, which is why it carries no locking.
type HandlerRegistry struct {
	handlers map[string]ports.JobHandler
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]ports.JobHandler)}
}

// Register binds a job type to its handler.
// Registering the same type twice is a wiring mistake and returns an error.
func (r *HandlerRegistry) Register(jobType string, handler ports.JobHandler) error {
	if jobType == "" {
		return errs.NewValueIsRequiredError("jobType")
	}
	if handler == nil {
		return errs.NewValueIsRequiredError("handler")
	}
	if _, exists := r.handlers[jobType]; exists {
		return errs.NewValueIsInvalidErrorWithCause("jobType",
			fmt.Errorf("handler for %q already registered", jobType))
	}

	r.handlers[jobType] = handler
	return nil
}

// Resolve returns the handler for a job type.
// Returns errs.ObjectNotFoundError for unregistered types.
func (r *HandlerRegistry) Resolve(jobType string) (ports.JobHandler, error) {
	handler, ok := r.handlers[jobType]
	if !ok {
		return nil, errs.NewObjectNotFoundError("jobType", jobType)
	}
	return handler, nil
}
