package push

import "encoding/json"

// Logical event names carried over the push channel.
const (
	EventSessionUpdate = "session.update"
	EventStateUpdate   = "state.update"
	EventStatePatch    = "state.patch"
	EventPlayerJoined  = "session.player_joined"
	EventPlayerLeft    = "session.player_left"

	eventRoomJoin  = "room.join"
	eventRoomLeave = "room.leave"
)

// Message is the wire form of one push channel message.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type roomPayload struct {
	SessionID string `json:"sessionId"`
}
