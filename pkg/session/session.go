package session

import (
	"sync"
	"time"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultSessionID is used when a request carries no session identity.
// All anonymous callers share this session.
const DefaultSessionID = "default"

// DefaultHistoryLimit is the number of most-recent turns retained per session.
const DefaultHistoryLimit = 10

// Turn represents a single conversation exchange unit.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session holds one client's conversation state.
//
// Mutating methods assume the caller holds the session, either through
// Store.Exchange or because the session is not shared yet (tests).
type Session struct {
	ID string

	mu           sync.Mutex
	history      []Turn
	document     string
	historyLimit int
	lastAccess   time.Time
}

func newSession(id string, historyLimit int) *Session {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Session{
		ID:           id,
		historyLimit: historyLimit,
		lastAccess:   time.Now(),
	}
}

// AppendTurn appends a turn to the history and enforces the sliding-window
// bound. Turns with empty content are dropped.
func (s *Session) AppendTurn(t Turn) {
	if t.Content == "" {
		return
	}
	s.history = append(s.history, t)
	if len(s.history) > s.historyLimit {
		trimmed := make([]Turn, s.historyLimit)
		copy(trimmed, s.history[len(s.history)-s.historyLimit:])
		s.history = trimmed
	}
}

// SetDocument replaces the session's document text wholesale.
func (s *Session) SetDocument(text string) {
	s.document = text
}

// Document returns the current document text, or "" when none was extracted.
func (s *Session) Document() string {
	return s.document
}

// History returns a copy of the turn history in chronological order.
func (s *Session) History() []Turn {
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Snapshot captures the session state for prompt assembly.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:       s.ID,
		Document: s.document,
		History:  s.History(),
	}
}

func (s *Session) touch() {
	s.lastAccess = time.Now()
}

// Snapshot is an immutable view of a session at one point in time.
type Snapshot struct {
	ID       string
	Document string
	History  []Turn
}
