package types

// SessionStatus represents the lifecycle status of a session.
type SessionStatus string

const (
	SessionStatusWaiting   SessionStatus = "waiting"
	SessionStatusPlaying   SessionStatus = "playing"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAborted   SessionStatus = "aborted"
)

// Session represents one multiplayer match instance.
type Session struct {
	SessionID string        `json:"sessionId"`
	GameID    string        `json:"gameId"`
	ModeID    string        `json:"modeId"`
	IsPublic  bool          `json:"isPublic"`
	Players   []string      `json:"players"`
	HostID    string        `json:"hostId"`
	CreatedAt int64         `json:"createdAt"`
	Status    SessionStatus `json:"status"`
}

func (s *Session) Copy() *Session {
	if s == nil {
		return nil
	}
	newSession := *s
	newSession.Players = make([]string, len(s.Players))
	copy(newSession.Players, s.Players)
	return &newSession
}

// HasPlayer reports whether playerID is a member of the session.
func (s *Session) HasPlayer(playerID string) bool {
	for _, id := range s.Players {
		if id == playerID {
			return true
		}
	}
	return false
}

// AddPlayer appends playerID to the player list if not already present.
func (s *Session) AddPlayer(playerID string) {
	if s.HasPlayer(playerID) {
		return
	}
	s.Players = append(s.Players, playerID)
}

// RemovePlayer filters playerID out of the player list.
func (s *Session) RemovePlayer(playerID string) {
	players := s.Players[:0]
	for _, id := range s.Players {
		if id != playerID {
			players = append(players, id)
		}
	}
	s.Players = players
}
