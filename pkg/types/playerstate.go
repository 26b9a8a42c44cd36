package types

// PlayerStatus represents a participant's standing within a game.
type PlayerStatus string

const (
	PlayerStatusActive     PlayerStatus = "active"
	PlayerStatusInactive   PlayerStatus = "inactive"
	PlayerStatusEliminated PlayerStatus = "eliminated"
)

// PlayerState is one participant's subset of GameState.
type PlayerState struct {
	PlayerID   string                 `json:"playerId"`
	Status     PlayerStatus           `json:"status"`
	Score      int                    `json:"score"`
	Lives      int                    `json:"lives,omitempty"`
	Position   *Position              `json:"position,omitempty"`
	CustomData map[string]interface{} `json:"customData,omitempty"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// NewPlayerState returns the default state a player starts with.
func NewPlayerState(playerID string) *PlayerState {
	return &PlayerState{
		PlayerID: playerID,
		Status:   PlayerStatusActive,
		Score:    0,
	}
}

func (p *PlayerState) Copy() *PlayerState {
	if p == nil {
		return nil
	}
	newPlayerState := *p
	if p.Position != nil {
		position := *p.Position
		newPlayerState.Position = &position
	}
	if p.CustomData != nil {
		newPlayerState.CustomData = make(map[string]interface{}, len(p.CustomData))
		for k, v := range p.CustomData {
			newPlayerState.CustomData[k] = v
		}
	}
	return &newPlayerState
}

// Equal returns true if the player state is equal to the other player state,
// ignoring custom data.
func (p *PlayerState) Equal(other *PlayerState) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.Position != nil && other.Position != nil {
		if *p.Position != *other.Position {
			return false
		}
	} else if p.Position != other.Position {
		return false
	}
	return p.PlayerID == other.PlayerID &&
		p.Status == other.Status &&
		p.Score == other.Score &&
		p.Lives == other.Lives
}
