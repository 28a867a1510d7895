package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wuwenbin0122/sqlassist/internal/models"
)

type transcript struct {
	messages []models.Message
	touched  time.Time
}

// Store keeps one ordered transcript per browser session in memory.
// Sessions idle for longer than ttl are dropped on the next access.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*transcript
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*transcript),
	}
}

// Append stores msg at the end of the session transcript, filling in the id
// and timestamp when missing, and returns the stored copy.
func (s *Store) Append(sessionID string, msg models.Message) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.pruneLocked(now)

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}

	t, ok := s.sessions[sessionID]
	if !ok {
		t = &transcript{}
		s.sessions[sessionID] = t
	}
	t.messages = append(t.messages, msg)
	t.touched = now

	return msg
}

// Messages returns a copy of the session transcript in conversation order.
func (s *Store) Messages(sessionID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	s.pruneLocked(now)

	t, ok := s.sessions[sessionID]
	if !ok {
		return []models.Message{}
	}
	t.touched = now

	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Sessions reports how many transcripts are currently held.
func (s *Store) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) pruneLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, t := range s.sessions {
		if now.Sub(t.touched) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
