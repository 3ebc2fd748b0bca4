package session

import "encoding/json"

type EventType string

const (
	EventBlock            EventType = "block"
	EventUpdateBlock      EventType = "updateBlock"
	EventResearchComplete EventType = "researchComplete"
	EventMessageEnd       EventType = "messageEnd"
	EventError            EventType = "error"
)

// Event is one line of the streaming protocol.
type Event struct {
	Type    EventType       `json:"type"`
	Block   *Block          `json:"block,omitempty"`
	BlockID string          `json:"blockId,omitempty"`
	Patch   []Patch         `json:"patch,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e Event) Terminal() bool {
	return e.Type == EventMessageEnd || e.Type == EventError
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorEvent(err error) Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	data, _ := json.Marshal(errorPayload{Message: msg})
	return Event{Type: EventError, Data: data}
}
