package types

// GameStatus represents the lifecycle status of a game state.
type GameStatus string

const (
	GameStatusWaiting   GameStatus = "waiting"
	GameStatusPlaying   GameStatus = "playing"
	GameStatusPaused    GameStatus = "paused"
	GameStatusCompleted GameStatus = "completed"
)

// GameState is the mutable gameplay snapshot for one session.
type GameState struct {
	// SessionID ties the state to its owning session
	SessionID string     `json:"sessionId"`
	Status    GameStatus `json:"status"`
	Round     int        `json:"round,omitempty"`
	Score     int        `json:"score,omitempty"`
	// TimeRemaining is in seconds
	TimeRemaining int `json:"timeRemaining,omitempty"`
	// Players maps player IDs to player states
	Players    map[string]*PlayerState `json:"playerStates,omitempty"`
	CustomData map[string]interface{}  `json:"customData,omitempty"`
}

func NewGameState(sessionID string) *GameState {
	return &GameState{
		SessionID: sessionID,
		Status:    GameStatusWaiting,
		Players:   make(map[string]*PlayerState),
	}
}

func (g *GameState) Copy() *GameState {
	if g == nil {
		return nil
	}
	newGameState := &GameState{
		SessionID:     g.SessionID,
		Status:        g.Status,
		Round:         g.Round,
		Score:         g.Score,
		TimeRemaining: g.TimeRemaining,
		Players:       make(map[string]*PlayerState),
	}
	for id, player := range g.Players {
		newGameState.Players[id] = player.Copy()
	}
	if g.CustomData != nil {
		newGameState.CustomData = make(map[string]interface{}, len(g.CustomData))
		for k, v := range g.CustomData {
			newGameState.CustomData[k] = v
		}
	}
	return newGameState
}

// IsCompleted reports whether the state has reached its terminal status.
func (g *GameState) IsCompleted() bool {
	return g != nil && g.Status == GameStatusCompleted
}
