package workflow

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies an event that can drive a state transition
type EventType string

const (
	EventSubmit   EventType = "SUBMIT"
	EventApprove  EventType = "APPROVE"
	EventReject   EventType = "REJECT"
	EventAssign   EventType = "ASSIGN"
	EventStart    EventType = "START"
	EventComplete EventType = "COMPLETE"
	EventCancel   EventType = "CANCEL"
	EventHold     EventType = "HOLD"
	EventResume   EventType = "RESUME"
)

var validEventTypes = map[EventType]bool{
	EventSubmit:   true,
	EventApprove:  true,
	EventReject:   true,
	EventAssign:   true,
	EventStart:    true,
	EventComplete: true,
	EventCancel:   true,
	EventHold:     true,
	EventResume:   true,
}

// IsValid returns true if the event type is one of the defined constants
func (t EventType) IsValid() bool {
	return validEventTypes[t]
}

// String returns the string representation of the event type
func (t EventType) String() string {
	return string(t)
}

// Event is an instantaneous workflow input. The engine does not persist it;
// persistence is the caller's concern.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	ActorID   string                 `json:"actor_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates a workflow event with an auto-generated ID and timestamp
func NewEvent(eventType EventType, actorID string, data map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Data:      data,
		Timestamp: time.Now(),
	}
}
