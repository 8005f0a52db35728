package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "THOUGHT_QUEUED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Pipeline event codes published by the thought-processing subsystem.
const (
	EventThoughtQueued           = "THOUGHT_QUEUED"
	EventThoughtProcessingFailed = "THOUGHT_PROCESSING_FAILED"
	EventActionExecuted          = "ACTION_EXECUTED"
	EventQueueReverted           = "QUEUE_REVERTED"
)

// BaseEvent is the standard Event implementation used across services.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
