package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gamefold/gamefold-go/pkg/api"
	"github.com/gamefold/gamefold-go/pkg/log"
	"github.com/gamefold/gamefold-go/pkg/push"
	"github.com/gamefold/gamefold-go/pkg/subscriptions"
	"github.com/gamefold/gamefold-go/pkg/types"
)

// APIClient is the request/response transport the manager calls the
// backend through.
type APIClient interface {
	Request(ctx context.Context, method, path string, body interface{}) (*api.Result, error)
}

// PushChannel is the persistent server-initiated delivery path.
type PushChannel interface {
	Connect(ctx context.Context) error
	Disconnect()
	JoinRoom(sessionID string)
	LeaveRoom()
	Send(event string, payload interface{})
	On(event string, handler push.Handler) subscriptions.UnregisterFunc
}

// Manager is the authoritative local copy of the session and game state
// the client currently participates in. Updates arriving from the
// request/response path and from the push channel are applied through the
// same merge entry points, so last received wins regardless of channel.
type Manager struct {
	api    APIClient
	push   PushChannel
	gameID string

	lock    sync.Mutex
	session *types.Session
	state   *types.GameState

	sessionSubs *subscriptions.Registry[*types.Session]
	stateSubs   *subscriptions.Registry[*types.GameState]
}

type NewManagerOptions struct {
	API  APIClient
	Push PushChannel
	// GameID identifies the game this SDK instance is configured for.
	// Session operations fail with a ConfigurationError while it is unset.
	GameID string
}

// NewManager creates a new session manager and registers its push channel
// handlers.
func NewManager(opts NewManagerOptions) *Manager {
	m := &Manager{
		api:         opts.API,
		push:        opts.Push,
		gameID:      opts.GameID,
		sessionSubs: subscriptions.NewRegistry[*types.Session](),
		stateSubs:   subscriptions.NewRegistry[*types.GameState](),
	}
	m.push.On(push.EventSessionUpdate, m.handleSessionSnapshot)
	m.push.On(push.EventStateUpdate, m.handleStateSnapshot)
	m.push.On(push.EventStatePatch, m.handleStatePatch)
	m.push.On(push.EventPlayerJoined, m.handlePlayerJoined)
	m.push.On(push.EventPlayerLeft, m.handlePlayerLeft)
	return m
}

type createSessionRequest struct {
	ModeID   string `json:"modeId"`
	IsPublic bool   `json:"isPublic"`
}

type endSessionRequest struct {
	WinnerIDs []string `json:"winnerIds,omitempty"`
}

type sessionData struct {
	Session *types.Session `json:"session"`
}

type stateData struct {
	State *types.GameState `json:"state"`
}

// CreateSession creates a new session and makes it the active one.
func (m *Manager) CreateSession(ctx context.Context, modeID string, isPublic bool) (*types.Session, error) {
	if m.gameID == "" {
		return nil, &ConfigurationError{Message: "game info not initialized"}
	}

	if err := m.push.Connect(ctx); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/v1/games/%s/sessions", m.gameID)
	body := createSessionRequest{ModeID: modeID, IsPublic: isPublic}
	session, err := m.requestSession(ctx, "create session", http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	m.push.JoinRoom(session.SessionID)
	return m.applySession(session), nil
}

// JoinSession joins an existing session and makes it the active one.
func (m *Manager) JoinSession(ctx context.Context, sessionID string) (*types.Session, error) {
	if m.gameID == "" {
		return nil, &ConfigurationError{Message: "game info not initialized"}
	}

	if err := m.push.Connect(ctx); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/v1/sessions/%s/join", sessionID)
	session, err := m.requestSession(ctx, "join session", http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}

	m.push.JoinRoom(session.SessionID)
	return m.applySession(session), nil
}

// LeaveSession leaves the active session. The API leave call is best
// effort: the push room is always detached and local state is always
// cleared, since the client should not keep listening to a session it
// believes it left. Calling with no active session is a no-op.
func (m *Manager) LeaveSession(ctx context.Context) error {
	m.lock.Lock()
	session := m.session
	m.lock.Unlock()

	if session == nil {
		log.Info("No active session to leave")
		return nil
	}

	path := fmt.Sprintf("/v1/sessions/%s/leave", session.SessionID)
	if res, err := m.api.Request(ctx, http.MethodPost, path, nil); err != nil {
		log.Warn("Failed to leave session %s: %v", session.SessionID, err)
	} else if !res.Success {
		log.Warn("Backend rejected leaving session %s: %s", session.SessionID, res.Error.String())
	}

	m.push.LeaveRoom()

	m.lock.Lock()
	m.session = nil
	m.state = nil
	m.lock.Unlock()

	m.sessionSubs.NotifyAll(nil)
	m.stateSubs.NotifyAll(nil)
	return nil
}

// StartSession starts the active session and returns the initial game
// state.
func (m *Manager) StartSession(ctx context.Context) (*types.GameState, error) {
	session, err := m.activeSession("start session")
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/v1/sessions/%s/start", session.SessionID)
	state, err := m.requestState(ctx, "start session", http.MethodPost, path, nil)
	if err != nil {
		return nil, err
	}

	m.applyState(state)
	return state.Copy(), nil
}

// EndSession ends the active session, optionally naming the winners. The
// local "completed" transition is not applied here: the authoritative
// completion snapshot arrives over the push channel, which avoids
// applying the same transition from two sources.
func (m *Manager) EndSession(ctx context.Context, winnerIDs []string) error {
	session, err := m.activeSession("end session")
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/v1/sessions/%s/end", session.SessionID)
	res, err := m.api.Request(ctx, http.MethodPost, path, endSessionRequest{WinnerIDs: winnerIDs})
	if err != nil {
		log.Error("Failed to end session %s: %v", session.SessionID, err)
		return &StateError{Op: "end session", Err: err}
	}
	if !res.Success {
		log.Error("Backend rejected ending session %s: %s", session.SessionID, res.Error.String())
		return &StateError{Op: "end session", Message: res.Error.String()}
	}
	return nil
}

// UpdateGameState applies a partial update to the active session's game
// state. The patch is sent over the push channel first for low-latency
// fan-out to other participants, then over the request path for durable
// persistence; the request response is authoritative for the stored
// snapshot and the return value. The push send is best effort and its
// failure is never surfaced.
func (m *Manager) UpdateGameState(ctx context.Context, patch types.GameStatePatch) (*types.GameState, error) {
	session, err := m.activeSession("update game state")
	if err != nil {
		return nil, err
	}

	m.push.Send(push.EventStatePatch, patch)

	path := fmt.Sprintf("/v1/sessions/%s/state", session.SessionID)
	state, err := m.requestState(ctx, "update game state", http.MethodPatch, path, patch)
	if err != nil {
		return nil, err
	}

	m.applyState(state)
	return state.Copy(), nil
}

// UpdatePlayerState applies a partial update to one player's state by
// building a game state patch whose player mapping holds exactly that
// player, merged field by field over their current state (or the default
// state if they are not yet present), and delegating to UpdateGameState.
func (m *Manager) UpdatePlayerState(ctx context.Context, playerID string, patch types.PlayerStatePatch) (*types.GameState, error) {
	m.lock.Lock()
	var current *types.PlayerState
	if m.state != nil {
		current = m.state.Players[playerID].Copy()
	}
	m.lock.Unlock()

	merged := patch.Apply(playerID, current)
	return m.UpdateGameState(ctx, types.GameStatePatch{
		Players: map[string]types.PlayerStatePatch{
			playerID: playerStatePatch(merged),
		},
	})
}

// RefreshState fetches the authoritative game state for the active
// session and applies it locally.
func (m *Manager) RefreshState(ctx context.Context) (*types.GameState, error) {
	session, err := m.activeSession("refresh game state")
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/v1/sessions/%s/state", session.SessionID)
	state, err := m.requestState(ctx, "refresh game state", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	m.applyState(state)
	return state.Copy(), nil
}

// CurrentSession returns a copy of the active session, or nil if there is
// none.
func (m *Manager) CurrentSession() *types.Session {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.session.Copy()
}

// CurrentState returns a copy of the active game state, or nil if there
// is none.
func (m *Manager) CurrentState() *types.GameState {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state.Copy()
}

// OnSessionUpdate registers a callback invoked whenever the local session
// changes. Callbacks receive nil when the session is cleared.
func (m *Manager) OnSessionUpdate(handler func(*types.Session)) subscriptions.UnregisterFunc {
	return m.sessionSubs.Register(handler)
}

// OnStateUpdate registers a callback invoked whenever the local game
// state changes. Callbacks receive nil when the state is cleared.
func (m *Manager) OnStateUpdate(handler func(*types.GameState)) subscriptions.UnregisterFunc {
	return m.stateSubs.Register(handler)
}

func (m *Manager) activeSession(op string) (*types.Session, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.session == nil {
		return nil, &StateError{Op: op, Message: "no active session"}
	}
	return m.session, nil
}

func (m *Manager) requestSession(ctx context.Context, op, method, path string, body interface{}) (*types.Session, error) {
	res, err := m.api.Request(ctx, method, path, body)
	if err != nil {
		log.Error("Failed to %s: %v", op, err)
		return nil, &StateError{Op: op, Err: err}
	}
	if !res.Success || !res.HasData() {
		log.Error("Backend rejected %s: %s", op, res.Error.String())
		return nil, &StateError{Op: op, Message: res.Error.String()}
	}
	data := &sessionData{}
	if err := res.DecodeData(data); err != nil || data.Session == nil {
		return nil, &StateError{Op: op, Message: "malformed session payload", Err: err}
	}
	return data.Session, nil
}

func (m *Manager) requestState(ctx context.Context, op, method, path string, body interface{}) (*types.GameState, error) {
	res, err := m.api.Request(ctx, method, path, body)
	if err != nil {
		log.Error("Failed to %s: %v", op, err)
		return nil, &StateError{Op: op, Err: err}
	}
	if !res.Success || !res.HasData() {
		log.Error("Backend rejected %s: %s", op, res.Error.String())
		return nil, &StateError{Op: op, Message: res.Error.String()}
	}
	data := &stateData{}
	if err := res.DecodeData(data); err != nil || data.State == nil {
		return nil, &StateError{Op: op, Message: "malformed game state payload", Err: err}
	}
	return data.State, nil
}

// playerStatePatch converts a full player state into a patch with every
// field present.
func playerStatePatch(state *types.PlayerState) types.PlayerStatePatch {
	status := state.Status
	score := state.Score
	lives := state.Lives
	patch := types.PlayerStatePatch{
		Status:     &status,
		Score:      &score,
		Lives:      &lives,
		CustomData: state.CustomData,
	}
	if state.Position != nil {
		position := *state.Position
		patch.Position = &position
	}
	return patch
}
