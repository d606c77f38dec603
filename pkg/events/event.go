package events

import "time"

// Event is anything that can be relayed on the NATS bus under events.<type>.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// BaseEvent is the generic shape used when an event is read back off the bus.
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
