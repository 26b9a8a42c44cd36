package types

// GameStatePatch is a partial GameState update. Only non-nil fields are
// applied; absent fields keep their previous value.
type GameStatePatch struct {
	Status        *GameStatus                 `json:"status,omitempty"`
	Round         *int                        `json:"round,omitempty"`
	Score         *int                        `json:"score,omitempty"`
	TimeRemaining *int                        `json:"timeRemaining,omitempty"`
	Players       map[string]PlayerStatePatch `json:"playerStates,omitempty"`
	CustomData    map[string]interface{}      `json:"customData,omitempty"`
}

// PlayerStatePatch is a partial PlayerState update.
type PlayerStatePatch struct {
	Status     *PlayerStatus          `json:"status,omitempty"`
	Score      *int                   `json:"score,omitempty"`
	Lives      *int                   `json:"lives,omitempty"`
	Position   *Position              `json:"position,omitempty"`
	CustomData map[string]interface{} `json:"customData,omitempty"`
}

// Apply merges the patch over prev and returns the merged state. prev is
// not mutated. A nil prev merges over a fresh waiting state.
func (p GameStatePatch) Apply(prev *GameState) *GameState {
	var next *GameState
	if prev != nil {
		next = prev.Copy()
	} else {
		next = NewGameState("")
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.Round != nil {
		next.Round = *p.Round
	}
	if p.Score != nil {
		next.Score = *p.Score
	}
	if p.TimeRemaining != nil {
		next.TimeRemaining = *p.TimeRemaining
	}
	for playerID, playerPatch := range p.Players {
		next.Players[playerID] = playerPatch.Apply(playerID, next.Players[playerID])
	}
	if p.CustomData != nil {
		if next.CustomData == nil {
			next.CustomData = make(map[string]interface{}, len(p.CustomData))
		}
		for k, v := range p.CustomData {
			next.CustomData[k] = v
		}
	}
	return next
}

// Apply merges the patch over prev and returns the merged player state.
// A nil prev merges over the default state for playerID.
func (p PlayerStatePatch) Apply(playerID string, prev *PlayerState) *PlayerState {
	var next *PlayerState
	if prev != nil {
		next = prev.Copy()
	} else {
		next = NewPlayerState(playerID)
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	if p.Score != nil {
		next.Score = *p.Score
	}
	if p.Lives != nil {
		next.Lives = *p.Lives
	}
	if p.Position != nil {
		position := *p.Position
		next.Position = &position
	}
	if p.CustomData != nil {
		if next.CustomData == nil {
			next.CustomData = make(map[string]interface{}, len(p.CustomData))
		}
		for k, v := range p.CustomData {
			next.CustomData[k] = v
		}
	}
	return next
}
