// Package session keeps the in-memory dialogue of chat sessions. Nothing is
// persisted; a restart forgets every session.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tabula-cli/internal/ai"
)

// MaxTurns caps the messages remembered per session; older ones are dropped.
const MaxTurns = 20

const (
	// DefaultMaxIdle is how long a session survives without a new turn.
	DefaultMaxIdle = time.Hour
	// DefaultMaxSessions caps live sessions; the least recently used is
	// evicted to make room.
	DefaultMaxSessions = 10000
)

// Session is one conversation about one dataset.
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	messages  []ai.Message
}

// Store is safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	now         func() time.Time
	maxIdle     time.Duration
	maxSessions int
}

// NewStore returns an empty store with the default idle and size bounds.
func NewStore() *Store {
	return NewBoundedStore(DefaultMaxIdle, DefaultMaxSessions)
}

// NewBoundedStore returns an empty store that forgets sessions idle longer
// than maxIdle and keeps at most maxSessions. Non-positive values select the
// defaults.
func NewBoundedStore(maxIdle time.Duration, maxSessions int) *Store {
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Store{sessions: map[string]*Session{}, now: time.Now, maxIdle: maxIdle, maxSessions: maxSessions}
}

// Create starts a session and returns its ID.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now()
	s.pruneLocked(t)
	id := uuid.New().String()
	s.sessions[id] = &Session{ID: id, CreatedAt: t, UpdatedAt: t}
	return id
}

// Ensure returns id when it names a live session, or creates a new one.
// An expired session is forgotten and replaced.
func (s *Store) Ensure(id string) string {
	if id != "" {
		s.mu.Lock()
		sess, ok := s.sessions[id]
		if ok && s.expired(sess, s.now()) {
			delete(s.sessions, id)
			ok = false
		}
		s.mu.Unlock()
		if ok {
			return id
		}
	}
	return s.Create()
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.UpdatedAt) > s.maxIdle
}

// pruneLocked drops expired sessions, then the least recently updated ones
// until there is room for one more. Callers hold s.mu.
func (s *Store) pruneLocked(now time.Time) {
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
		}
	}
	for len(s.sessions) >= s.maxSessions {
		var oldest *Session
		for _, sess := range s.sessions {
			if oldest == nil || sess.UpdatedAt.Before(oldest.UpdatedAt) {
				oldest = sess
			}
		}
		delete(s.sessions, oldest.ID)
	}
}

// History returns a copy of the session's messages, oldest first.
func (s *Store) History(id string) []ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	return append([]ai.Message(nil), sess.messages...)
}

// Append records a question and the answer given to it.
func (s *Store) Append(id, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	sess.messages = append(sess.messages,
		ai.Message{Role: ai.RoleUser, Content: question},
		ai.Message{Role: ai.RoleAssistant, Content: answer},
	)
	if n := len(sess.messages); n > MaxTurns {
		sess.messages = append([]ai.Message(nil), sess.messages[n-MaxTurns:]...)
	}
	sess.UpdatedAt = s.now()
}

// Delete forgets a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len reports how many sessions are live.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
