package inmemory

import (
	"sync"
	"time"

	"github.com/askpatrick/patrick/session"
	"github.com/google/uuid"
)

type Store struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewInMemorySessionStore() session.Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (store *Store) EnsureSession(id string, ttl time.Duration) (session.Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if id != "" {
		if sess, ok := store.sessions[id]; ok {
			sess.Expire(ttl)
			return sess, nil
		}
	}
	sess := &Session{
		id:        uuid.NewString(),
		expiresAt: time.Now().Add(ttl),
	}
	store.sessions[sess.id] = sess
	return sess, nil
}

func (store *Store) GetSession(id string) (session.Session, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	sess, ok := store.sessions[id]
	if !ok || time.Now().After(sess.expiresAt) {
		return nil, nil
	}
	return sess, nil
}

type Session struct {
	id        string
	expiresAt time.Time
	history   []session.Exchange
	mu        sync.RWMutex
}

func (s *Session) ID() string               { return s.id }
func (s *Session) Expire(ttl time.Duration) { s.expiresAt = time.Now().Add(ttl) }

func (s *Session) AddExchange(ex session.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, ex)
	return nil
}

func (s *Session) History() []session.Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]session.Exchange, len(s.history))
	copy(out, s.history)
	return out
}
