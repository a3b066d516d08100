package redis_session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/askpatrick/patrick/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
}

func NewRedisSessionStore(addr, password string, db int) session.Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: rdb}
}

func (store *Store) EnsureSession(id string, ttl time.Duration) (session.Session, error) {
	ctx := context.Background()
	if id != "" {
		key := historyKey(id)
		exists, err := store.client.Exists(ctx, key).Result()
		if err == nil && exists == 1 {
			_ = store.client.Expire(ctx, key, ttl).Err()
			return &Session{client: store.client, id: id, expiresAt: time.Now().Add(ttl)}, nil
		}
	}
	newID := uuid.NewString()
	sess := &Session{client: store.client, id: newID, expiresAt: time.Now().Add(ttl)}
	if err := store.client.Set(ctx, historyKey(newID), "[]", ttl).Err(); err != nil {
		return nil, fmt.Errorf("creating session %s: %w", newID, err)
	}
	return sess, nil
}

func (store *Store) GetSession(id string) (session.Session, error) {
	ctx := context.Background()
	// the key's remaining TTL both proves existence and carries the expiry
	// forward, so AddExchange re-sets the blob with a valid duration
	ttl, err := store.client.TTL(ctx, historyKey(id)).Result()
	if err != nil || ttl <= 0 {
		return nil, nil
	}
	return &Session{client: store.client, id: id, expiresAt: time.Now().Add(ttl)}, nil
}

type Session struct {
	client    *redis.Client
	id        string
	expiresAt time.Time
}

func (s *Session) ID() string               { return s.id }
func (s *Session) Expire(ttl time.Duration) { s.expiresAt = time.Now().Add(ttl) }

func (s *Session) AddExchange(ex session.Exchange) error {
	ttl := time.Until(s.expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session %s expired", s.id)
	}
	ctx := context.Background()
	history := s.History()
	history = append(history, ex)
	data, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, historyKey(s.id), data, ttl).Err()
}

func (s *Session) History() []session.Exchange {
	ctx := context.Background()
	val, err := s.client.Get(ctx, historyKey(s.id)).Result()
	if err != nil {
		return nil
	}
	var history []session.Exchange
	_ = json.Unmarshal([]byte(val), &history)
	return history
}

func historyKey(id string) string { return fmt.Sprintf("session:%s:history", id) }
