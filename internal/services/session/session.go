package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/yungbote/mba-counselor/internal/modules/counselor/steps"
)

// Turn is one completed exchange.
type Turn struct {
	User      string    `json:"user"`
	Reply     string    `json:"reply"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds one user's preferences and history. Callers hold Lock for the
// duration of a turn; at most one turn per session runs at a time.
type Session struct {
	ID          string
	Preferences steps.Preferences
	History     []Turn

	mu       sync.Mutex
	lastSeen atomic.Int64
}

// Snapshot is the persisted form of a session.
type Snapshot struct {
	ID          string            `json:"id"`
	Preferences steps.Preferences `json:"preferences"`
	History     []Turn            `json:"history"`
}

func newSession(id string, now time.Time) *Session {
	s := &Session{ID: id, Preferences: steps.Preferences{}, History: []Turn{}}
	s.touch(now)
	return s
}

func fromSnapshot(snap Snapshot, now time.Time) *Session {
	s := newSession(snap.ID, now)
	if snap.Preferences != nil {
		s.Preferences = snap.Preferences.Clone()
	}
	if len(snap.History) > 0 {
		s.History = append(s.History, snap.History...)
	}
	return s
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// AppendTurn records an exchange. Caller holds the lock.
func (s *Session) AppendTurn(user, reply string, at time.Time) {
	s.History = append(s.History, Turn{User: user, Reply: reply, Timestamp: at})
}

// Snapshot copies the session state. Caller holds the lock.
func (s *Session) Snapshot() Snapshot {
	history := make([]Turn, len(s.History))
	copy(history, s.History)
	return Snapshot{ID: s.ID, Preferences: s.Preferences.Clone(), History: history}
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}
