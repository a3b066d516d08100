package session

import (
	"time"
)

// Exchange is one question/answer turn of a conversation.
type Exchange struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// Store interface for conversation session management
type Store interface {
	EnsureSession(id string, ttl time.Duration) (Session, error)
	GetSession(id string) (Session, error)
}

// Session interface for conversation operations
type Session interface {
	ID() string
	Expire(ttl time.Duration)
	AddExchange(ex Exchange) error
	History() []Exchange
}
