package order

import (
	"maps"
	"time"

	"orderflow/internal/pkg/errs"
)

// EventType identifies the kind of lifecycle event recorded on an order.
type EventType int

const (
	// EventUnknown represents an invalid or undefined event type.
	EventUnknown EventType = iota

	// EventOrderCreated is recorded once, atomically with order intake.
	EventOrderCreated

	// EventOrderEnqueued is recorded after the processing job was handed to the queue.
	EventOrderEnqueued

	// EventProcessingStarted is recorded when the job first moves the order to Processing.
	EventProcessingStarted

	// EventProcessingFailed is recorded when the order reaches Failed, with a
	// payload describing the failure.
	EventProcessingFailed

	// EventOrderCompleted is recorded when business logic succeeds.
	EventOrderCompleted

	// EventOrderCancelled is recorded when a pending order is cancelled.
	EventOrderCancelled
)

// Payload keys recognized by the processing pipeline. The payload itself is
// an open key/value map; these are the keys this core reads and writes.
const (
	PayloadKeyReason  = "reason"
	PayloadKeyError   = "error"
	PayloadKeyRetries = "retries"
)

// Failure reasons recorded under PayloadKeyReason.
const (
	FailureReasonBusiness       = "business"
	FailureReasonInfrastructure = "infrastructure"
)

// getEventTypeStrings returns a map of EventType values to their wire names.
func getEventTypeStrings() map[EventType]string {
	return map[EventType]string{
		EventUnknown:           "unknown",
		EventOrderCreated:      "order_created",
		EventOrderEnqueued:     "order_enqueued",
		EventProcessingStarted: "processing_started",
		EventProcessingFailed:  "processing_failed",
		EventOrderCompleted:    "order_completed",
		EventOrderCancelled:    "order_cancelled",
	}
}

// EventTypeFromString resolves a wire name back to its EventType.
// Returns an error for names no event type carries.
func EventTypeFromString(name string) (EventType, error) {
	for eventType, str := range getEventTypeStrings() {
		if str == name && eventType != EventUnknown {
			return eventType, nil
		}
	}
	return EventUnknown, errs.NewValueIsInvalidError("eventType")
}

// Validate checks if the EventType value is valid.
func (t EventType) Validate() error {
	if t == EventUnknown {
		return errs.NewValueIsInvalidError("eventType")
	}
	if _, ok := getEventTypeStrings()[t]; !ok {
		return errs.NewValueIsInvalidError("eventType")
	}
	return nil
}

// String returns the wire name of the event type.
// Implements fmt.Stringer and is safe on any EventType value.
func (t EventType) String() string {
	if str, ok := getEventTypeStrings()[t]; ok {
		return str
	}
	return "unknown"
}

// Event is an immutable, timestamped record of something that happened to an
// order. Events belong to exactly one order, are appended through the order's
// transition methods, and are never updated or deleted once recorded.
type Event struct {
	eventType EventType
	createdAt time.Time
	payload   map[string]any
}

// newEvent creates an event with the given timestamp and an owned copy of the
// payload. Only the aggregate appends events, so this stays package-private.
func newEvent(eventType EventType, createdAt time.Time, payload map[string]any) Event {
	return Event{
		eventType: eventType,
		createdAt: createdAt,
		payload:   maps.Clone(payload),
	}
}

// RestoreEvent reconstructs an event from persistence.
// Validates the event type; the timestamp and payload are trusted as stored.
func RestoreEvent(eventType EventType, createdAt time.Time, payload map[string]any) (Event, error) {
	if err := eventType.Validate(); err != nil {
		return Event{}, err
	}
	if createdAt.IsZero() {
		return Event{}, errs.NewValueIsRequiredError("createdAt")
	}
	return newEvent(eventType, createdAt, payload), nil
}

// Type returns the kind of event.
func (e Event) Type() EventType {
	return e.eventType
}

// CreatedAt returns the timestamp assigned when the event was appended.
func (e Event) CreatedAt() time.Time {
	return e.createdAt
}

// Payload returns a copy of the event payload, or nil when the event has none.
// Returning a copy keeps the recorded event immutable.
func (e Event) Payload() map[string]any {
	return maps.Clone(e.payload)
}
