package stub

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gamefold/gamefold-go/pkg/log"
	"github.com/gamefold/gamefold-go/pkg/push"
	"github.com/gamefold/gamefold-go/pkg/types"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzip"
)

// Server is an in-process stand-in for the backend platform, serving the
// session resource paths and the push channel endpoint. It exists for the
// demo binary and for tests; it is not a real backend.
type Server struct {
	router   *mux.Router
	upgrader websocket.Upgrader

	lock     sync.Mutex
	sessions map[string]*types.Session
	states   map[string]*types.GameState
	conns    map[*websocket.Conn]string
	batches  [][]json.RawMessage
}

// NewServer creates a stub backend. Use Handler with net/http or httptest.
func NewServer() *Server {
	s := &Server{
		sessions: make(map[string]*types.Session),
		states:   make(map[string]*types.GameState),
		conns:    make(map[*websocket.Conn]string),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	router := mux.NewRouter()
	router.HandleFunc("/v1/games/{gameID}/sessions", s.handleCreateSession).Methods(http.MethodPost)
	router.HandleFunc("/v1/sessions/{sessionID}/join", s.handleJoinSession).Methods(http.MethodPost)
	router.HandleFunc("/v1/sessions/{sessionID}/leave", s.handleLeaveSession).Methods(http.MethodPost)
	router.HandleFunc("/v1/sessions/{sessionID}/start", s.handleStartSession).Methods(http.MethodPost)
	router.HandleFunc("/v1/sessions/{sessionID}/end", s.handleEndSession).Methods(http.MethodPost)
	router.HandleFunc("/v1/sessions/{sessionID}/state", s.handleGetState).Methods(http.MethodGet)
	router.HandleFunc("/v1/sessions/{sessionID}/state", s.handleUpdateState).Methods(http.MethodPatch)
	router.HandleFunc("/v1/analytics/events", s.handleEvents).Methods(http.MethodPost)
	router.HandleFunc("/push", s.handlePush)
	s.router = router

	return s
}

// Handler returns the stub's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func writeResult(w http.ResponseWriter, status int, success bool, data interface{}, errMsg string) {
	body := map[string]interface{}{"success": success}
	if data != nil {
		body["data"] = data
	}
	if errMsg != "" {
		body["error"] = errMsg
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode stub response: %v", err)
	}
}

func playerID(r *http.Request) string {
	if id := r.Header.Get("X-Player-ID"); id != "" {
		return id
	}
	return "player-1"
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ModeID   string `json:"modeId"`
		IsPublic bool   `json:"isPublic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeResult(w, http.StatusBadRequest, false, nil, "malformed request body")
		return
	}

	host := playerID(r)
	session := &types.Session{
		SessionID: uuid.NewString(),
		GameID:    mux.Vars(r)["gameID"],
		ModeID:    body.ModeID,
		IsPublic:  body.IsPublic,
		Players:   []string{host},
		HostID:    host,
		CreatedAt: time.Now().UnixMilli(),
		Status:    types.SessionStatusWaiting,
	}

	s.lock.Lock()
	s.sessions[session.SessionID] = session
	s.states[session.SessionID] = types.NewGameState(session.SessionID)
	s.lock.Unlock()

	writeResult(w, http.StatusOK, true, map[string]interface{}{"session": session}, "")
}

func (s *Server) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	player := playerID(r)

	s.lock.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.lock.Unlock()
		writeResult(w, http.StatusNotFound, false, nil, "session not found")
		return
	}
	session.AddPlayer(player)
	snapshot := session.Copy()
	s.lock.Unlock()

	s.broadcast(sessionID, push.EventPlayerJoined, map[string]string{"playerId": player})
	writeResult(w, http.StatusOK, true, map[string]interface{}{"session": snapshot}, "")
}

func (s *Server) handleLeaveSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	player := playerID(r)

	s.lock.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.lock.Unlock()
		writeResult(w, http.StatusNotFound, false, nil, "session not found")
		return
	}
	session.RemovePlayer(player)
	s.lock.Unlock()

	s.broadcast(sessionID, push.EventPlayerLeft, map[string]string{"playerId": player})
	writeResult(w, http.StatusOK, true, nil, "")
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	s.lock.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.lock.Unlock()
		writeResult(w, http.StatusNotFound, false, nil, "session not found")
		return
	}
	session.Status = types.SessionStatusPlaying
	state := s.states[sessionID]
	state.Status = types.GameStatusPlaying
	for _, player := range session.Players {
		if _, ok := state.Players[player]; !ok {
			state.Players[player] = types.NewPlayerState(player)
		}
	}
	snapshot := state.Copy()
	s.lock.Unlock()

	s.broadcast(sessionID, push.EventStateUpdate, snapshot)
	writeResult(w, http.StatusOK, true, map[string]interface{}{"state": snapshot}, "")
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	s.lock.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.lock.Unlock()
		writeResult(w, http.StatusNotFound, false, nil, "session not found")
		return
	}
	session.Status = types.SessionStatusCompleted
	state := s.states[sessionID]
	state.Status = types.GameStatusCompleted
	sessionSnapshot := session.Copy()
	stateSnapshot := state.Copy()
	s.lock.Unlock()

	// completion is delivered over the push channel, like the real backend
	s.broadcast(sessionID, push.EventStateUpdate, stateSnapshot)
	s.broadcast(sessionID, push.EventSessionUpdate, sessionSnapshot)
	writeResult(w, http.StatusOK, true, nil, "")
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	s.lock.Lock()
	state, ok := s.states[sessionID]
	if !ok {
		s.lock.Unlock()
		writeResult(w, http.StatusNotFound, false, nil, "session not found")
		return
	}
	snapshot := state.Copy()
	s.lock.Unlock()

	writeResult(w, http.StatusOK, true, map[string]interface{}{"state": snapshot}, "")
}

func (s *Server) handleUpdateState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	var patch types.GameStatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeResult(w, http.StatusBadRequest, false, nil, "malformed request body")
		return
	}

	s.lock.Lock()
	state, ok := s.states[sessionID]
	if !ok {
		s.lock.Unlock()
		writeResult(w, http.StatusNotFound, false, nil, "session not found")
		return
	}
	if state.IsCompleted() {
		s.lock.Unlock()
		writeResult(w, http.StatusConflict, false, nil, "session is completed")
		return
	}
	next := patch.Apply(state)
	next.SessionID = sessionID
	s.states[sessionID] = next
	snapshot := next.Copy()
	s.lock.Unlock()

	s.broadcast(sessionID, push.EventStateUpdate, snapshot)
	writeResult(w, http.StatusOK, true, map[string]interface{}{"state": snapshot}, "")
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body := io.Reader(r.Body)
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			writeResult(w, http.StatusBadRequest, false, nil, "malformed gzip body")
			return
		}
		defer gz.Close()
		body = gz
	}

	var batch struct {
		Events []json.RawMessage `json:"events"`
	}
	if err := json.NewDecoder(body).Decode(&batch); err != nil {
		writeResult(w, http.StatusBadRequest, false, nil, "malformed request body")
		return
	}

	s.lock.Lock()
	s.batches = append(s.batches, batch.Events)
	s.lock.Unlock()

	writeResult(w, http.StatusOK, true, nil, "")
}

// ReceivedBatches returns the analytics batches received so far.
func (s *Server) ReceivedBatches() [][]json.RawMessage {
	s.lock.Lock()
	defer s.lock.Unlock()
	batches := make([][]json.RawMessage, len(s.batches))
	copy(batches, s.batches)
	return batches
}

// Sessions returns the number of sessions created so far.
func (s *Server) Sessions() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.sessions)
}

// Broadcast delivers a push event to every connection subscribed to the
// session's room.
func (s *Server) Broadcast(sessionID, event string, payload interface{}) {
	s.broadcast(sessionID, event, payload)
}

func (s *Server) broadcast(sessionID, event string, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Error("Failed to marshal stub push payload: %v", err)
		return
	}
	msg, err := json.Marshal(&push.Message{Event: event, Payload: b})
	if err != nil {
		log.Error("Failed to marshal stub push message: %v", err)
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	for conn, room := range s.conns {
		if room != sessionID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug("Failed to write stub push message: %v", err)
		}
	}
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade stub push connection: %v", err)
		return
	}

	s.lock.Lock()
	s.conns[conn] = ""
	s.lock.Unlock()

	go s.readPush(conn)
}

func (s *Server) readPush(conn *websocket.Conn) {
	defer func() {
		s.lock.Lock()
		delete(s.conns, conn)
		s.lock.Unlock()
		conn.Close()
	}()

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg := &push.Message{}
		if err := json.Unmarshal(b, msg); err != nil {
			log.Debug("Malformed stub push message: %v", err)
			continue
		}

		switch msg.Event {
		case "room.join":
			var payload struct {
				SessionID string `json:"sessionId"`
			}
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			s.lock.Lock()
			s.conns[conn] = payload.SessionID
			s.lock.Unlock()
		case "room.leave":
			s.lock.Lock()
			s.conns[conn] = ""
			s.lock.Unlock()
		case push.EventStatePatch:
			// low-latency relay of client patches to room peers; the
			// materialized snapshot follows from the PATCH broadcast
			s.relayPatch(conn, msg)
		default:
			log.Debug("Ignoring stub push message %s", msg.Event)
		}
	}
}

func (s *Server) relayPatch(from *websocket.Conn, msg *push.Message) {
	s.lock.Lock()
	room := s.conns[from]
	s.lock.Unlock()
	if room == "" {
		return
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	for conn, connRoom := range s.conns {
		if conn == from || connRoom != room {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug("Failed to relay stub push message: %v", err)
		}
	}
}

// PushURL converts a stub HTTP base URL into the websocket endpoint.
func PushURL(baseURL string) string {
	return fmt.Sprintf("ws%s/push", baseURL[len("http"):])
}
