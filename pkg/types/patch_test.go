package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestPlayerStatePatch_Apply(t *testing.T) {
	eliminated := PlayerStatusEliminated

	tests := []struct {
		name    string
		prev    *PlayerState
		patches []PlayerStatePatch
		want    *PlayerState
	}{
		{
			name: "defaults when absent",
			prev: nil,
			patches: []PlayerStatePatch{
				{Score: intPtr(5)},
			},
			want: &PlayerState{PlayerID: "p1", Status: PlayerStatusActive, Score: 5},
		},
		{
			name: "sequential patches merge field-wise",
			prev: nil,
			patches: []PlayerStatePatch{
				{Score: intPtr(5)},
				{Lives: intPtr(3)},
				{Score: intPtr(7), Status: &eliminated},
			},
			want: &PlayerState{PlayerID: "p1", Status: PlayerStatusEliminated, Score: 7, Lives: 3},
		},
		{
			name: "position replaces previous position",
			prev: &PlayerState{PlayerID: "p1", Status: PlayerStatusActive, Position: &Position{X: 1, Y: 1}},
			patches: []PlayerStatePatch{
				{Position: &Position{X: 2, Y: 3, Z: 4}},
			},
			want: &PlayerState{PlayerID: "p1", Status: PlayerStatusActive, Position: &Position{X: 2, Y: 3, Z: 4}},
		},
		{
			name: "custom data merges per key",
			prev: &PlayerState{PlayerID: "p1", Status: PlayerStatusActive, CustomData: map[string]interface{}{"a": 1, "b": 1}},
			patches: []PlayerStatePatch{
				{CustomData: map[string]interface{}{"b": 2, "c": 3}},
			},
			want: &PlayerState{
				PlayerID:   "p1",
				Status:     PlayerStatusActive,
				CustomData: map[string]interface{}{"a": 1, "b": 2, "c": 3},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := tt.prev
			for _, patch := range tt.patches {
				state = patch.Apply("p1", state)
			}
			assert.Equal(t, tt.want, state)
		})
	}
}

func TestPlayerStatePatch_ApplyDoesNotMutatePrev(t *testing.T) {
	prev := &PlayerState{PlayerID: "p1", Status: PlayerStatusActive, Score: 1}
	patch := PlayerStatePatch{Score: intPtr(2)}

	next := patch.Apply("p1", prev)

	assert.Equal(t, 1, prev.Score)
	assert.Equal(t, 2, next.Score)
}

func TestGameStatePatch_Apply(t *testing.T) {
	playing := GameStatusPlaying

	prev := NewGameState("s1")
	prev.Players["p1"] = &PlayerState{PlayerID: "p1", Status: PlayerStatusActive, Score: 10}

	next := GameStatePatch{
		Status: &playing,
		Round:  intPtr(2),
		Players: map[string]PlayerStatePatch{
			"p1": {Score: intPtr(20)},
			"p2": {Lives: intPtr(1)},
		},
		CustomData: map[string]interface{}{"map": "arena"},
	}.Apply(prev)

	assert.Equal(t, "s1", next.SessionID)
	assert.Equal(t, GameStatusPlaying, next.Status)
	assert.Equal(t, 2, next.Round)
	assert.Equal(t, 20, next.Players["p1"].Score)
	// untouched fields keep their previous value
	assert.Equal(t, PlayerStatusActive, next.Players["p1"].Status)
	// unknown players are created with defaults merged with the patch
	assert.Equal(t, &PlayerState{PlayerID: "p2", Status: PlayerStatusActive, Lives: 1}, next.Players["p2"])
	assert.Equal(t, "arena", next.CustomData["map"])

	// prev is untouched
	assert.Equal(t, GameStatusWaiting, prev.Status)
	assert.Equal(t, 10, prev.Players["p1"].Score)
	assert.NotContains(t, prev.Players, "p2")
}

func TestSession_PlayerList(t *testing.T) {
	session := &Session{
		SessionID: "s1",
		HostID:    "p1",
		Players:   []string{"p1"},
		Status:    SessionStatusWaiting,
	}

	session.AddPlayer("p2")
	session.AddPlayer("p2")
	assert.Equal(t, []string{"p1", "p2"}, session.Players)
	assert.True(t, session.HasPlayer("p2"))

	session.RemovePlayer("p2")
	assert.Equal(t, []string{"p1"}, session.Players)
	assert.False(t, session.HasPlayer("p2"))
}

func TestGameState_Copy(t *testing.T) {
	state := NewGameState("s1")
	state.Players["p1"] = &PlayerState{PlayerID: "p1", Status: PlayerStatusActive}
	state.CustomData = map[string]interface{}{"k": "v"}

	copied := state.Copy()
	copied.Players["p1"].Score = 99
	copied.CustomData["k"] = "w"

	assert.Equal(t, 0, state.Players["p1"].Score)
	assert.Equal(t, "v", state.CustomData["k"])
}
