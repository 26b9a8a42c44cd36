package session

import (
	"encoding/json"

	"github.com/gamefold/gamefold-go/pkg/log"
	"github.com/gamefold/gamefold-go/pkg/types"
)

// The push channel and the request path feed the same two merge entry
// points, applySession and applyState, so the last snapshot received wins
// no matter which channel delivered it.

// applySession replaces the local session wholesale and notifies session
// subscribers with a copy. It returns a second copy, also taken under the
// lock: once the session pointer is stored a concurrent player event may
// mutate its player list, so callers must not touch the original again.
func (m *Manager) applySession(session *types.Session) *types.Session {
	m.lock.Lock()
	m.session = session
	snapshot := session.Copy()
	result := session.Copy()
	m.lock.Unlock()

	m.sessionSubs.NotifyAll(snapshot)
	return result
}

// applyState replaces the local game state wholesale and notifies state
// subscribers with a copy. Completed is terminal: once the local state
// reports completed, further snapshots are ignored.
func (m *Manager) applyState(state *types.GameState) {
	m.lock.Lock()
	if m.state.IsCompleted() {
		m.lock.Unlock()
		log.Warn("Ignoring game state update for completed session %s", state.SessionID)
		return
	}
	m.state = state
	snapshot := state.Copy()
	m.lock.Unlock()

	m.stateSubs.NotifyAll(snapshot)
}

func (m *Manager) handleSessionSnapshot(payload json.RawMessage) {
	session := &types.Session{}
	if err := json.Unmarshal(payload, session); err != nil {
		log.Error("Failed to unmarshal session snapshot: %v", err)
		return
	}
	m.applySession(session)
}

func (m *Manager) handleStateSnapshot(payload json.RawMessage) {
	state := &types.GameState{}
	if err := json.Unmarshal(payload, state); err != nil {
		log.Error("Failed to unmarshal game state snapshot: %v", err)
		return
	}
	m.applyState(state)
}

// handleStatePatch merges a peer's partial update into the local state
// field by field. Patches are the low-latency half of a dual write; the
// durable snapshot follows over the request path or a state broadcast,
// so a patch with no active state is dropped rather than applied to
// nothing.
func (m *Manager) handleStatePatch(payload json.RawMessage) {
	patch := &types.GameStatePatch{}
	if err := json.Unmarshal(payload, patch); err != nil {
		log.Error("Failed to unmarshal game state patch: %v", err)
		return
	}

	m.lock.Lock()
	if m.state == nil {
		m.lock.Unlock()
		log.Debug("Game state patch with no active state")
		return
	}
	if m.state.IsCompleted() {
		m.lock.Unlock()
		log.Warn("Ignoring game state patch for completed session %s", m.state.SessionID)
		return
	}
	m.state = patch.Apply(m.state)
	snapshot := m.state.Copy()
	m.lock.Unlock()

	m.stateSubs.NotifyAll(snapshot)
}

type playerEvent struct {
	PlayerID string `json:"playerId"`
}

// handlePlayerJoined mutates only the session's player list. This is the
// one push path that patches instead of replacing wholesale.
func (m *Manager) handlePlayerJoined(payload json.RawMessage) {
	event := &playerEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		log.Error("Failed to unmarshal player joined event: %v", err)
		return
	}

	m.lock.Lock()
	if m.session == nil {
		m.lock.Unlock()
		log.Debug("Player joined event with no active session")
		return
	}
	m.session.AddPlayer(event.PlayerID)
	snapshot := m.session.Copy()
	m.lock.Unlock()

	m.sessionSubs.NotifyAll(snapshot)
}

func (m *Manager) handlePlayerLeft(payload json.RawMessage) {
	event := &playerEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		log.Error("Failed to unmarshal player left event: %v", err)
		return
	}

	m.lock.Lock()
	if m.session == nil {
		m.lock.Unlock()
		log.Debug("Player left event with no active session")
		return
	}
	m.session.RemovePlayer(event.PlayerID)
	snapshot := m.session.Copy()
	m.lock.Unlock()

	m.sessionSubs.NotifyAll(snapshot)
}
