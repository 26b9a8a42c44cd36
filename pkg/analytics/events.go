package analytics

import (
	"time"

	"github.com/google/uuid"
)

// EventType is a closed enumeration of analytics event types, plus the
// generic custom tag.
type EventType string

const (
	EventTypeSessionStart EventType = "session_start"
	EventTypeSessionEnd   EventType = "session_end"
	EventTypeLevelStart   EventType = "level_start"
	EventTypeLevelEnd     EventType = "level_end"
	EventTypeScore        EventType = "score"
	EventTypePurchase     EventType = "purchase"
	EventTypeError        EventType = "error"
	EventTypeCustom       EventType = "custom"
)

// Event is an immutable analytics record. It is owned by the Queue from
// creation until a successful flush and never mutated after construction.
type Event struct {
	EventID   string                 `json:"eventId"`
	Type      EventType              `json:"eventType"`
	Timestamp int64                  `json:"timestamp"`
	GameID    string                 `json:"gameId"`
	SessionID string                 `json:"sessionId,omitempty"`
	PlayerID  string                 `json:"playerId,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// NewEvent creates an event stamped with the client clock in milliseconds.
func NewEvent(eventType EventType, gameID string) *Event {
	return &Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		GameID:    gameID,
	}
}

// WithSession returns a copy of the event tagged with a session ID.
func (e *Event) WithSession(sessionID string) *Event {
	event := *e
	event.SessionID = sessionID
	return &event
}

// WithPlayer returns a copy of the event tagged with a player ID.
func (e *Event) WithPlayer(playerID string) *Event {
	event := *e
	event.PlayerID = playerID
	return &event
}

// WithPayload returns a copy of the event carrying a free-form payload.
func (e *Event) WithPayload(payload map[string]interface{}) *Event {
	event := *e
	event.Payload = payload
	return &event
}
