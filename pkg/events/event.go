package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// ID is used by the broker for de-duplication.
	ID() string

	// EventType returns the unique code for this event (e.g., "ORDER_CREATED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeTurnCompleted = "TURN_COMPLETED"
	TypeOrderCreated  = "ORDER_CREATED"
)

type BaseEvent struct {
	Id         string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) ID() string {
	return e.Id
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
