package bridge

import (
	"github.com/gamefold/gamefold-go/pkg/types"
)

// The bridge is the message-passing boundary between the SDK core and an
// embedded game-engine runtime (for example a Unity or Godot WebGL
// build). The runtime's own FFI glue produces Commands and consumes
// Notifications; the SDK core only ever sees typed values, never raw
// engine payloads.

// CommandType identifies an inbound command from the engine runtime.
type CommandType string

const (
	CommandUpdateGameState   CommandType = "update_game_state"
	CommandUpdatePlayerState CommandType = "update_player_state"
	CommandLeaveSession      CommandType = "leave_session"
)

// Command is one inbound request from the engine runtime.
type Command struct {
	Type        CommandType             `json:"type"`
	PlayerID    string                  `json:"playerId,omitempty"`
	StatePatch  *types.GameStatePatch   `json:"statePatch,omitempty"`
	PlayerPatch *types.PlayerStatePatch `json:"playerPatch,omitempty"`
}

// NotificationType identifies an outbound notification to the engine
// runtime.
type NotificationType string

const (
	NotificationSessionUpdate NotificationType = "session_update"
	NotificationStateUpdate   NotificationType = "state_update"
	NotificationError         NotificationType = "error"
)

// Notification is one outbound message to the engine runtime.
type Notification struct {
	Type    NotificationType `json:"type"`
	Session *types.Session   `json:"session,omitempty"`
	State   *types.GameState `json:"state,omitempty"`
	Error   string           `json:"error,omitempty"`
}
