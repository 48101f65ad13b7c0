package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore tracks live sessions so a signed-out token stops working
// before it expires.
type SessionStore interface {
	Save(ctx context.Context, sid string, userID uuid.UUID, ttl time.Duration) error
	Exists(ctx context.Context, sid string) (bool, error)
	Delete(ctx context.Context, sid string) error
}

type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: "crm:session:"}
}

func (s *RedisSessionStore) Save(ctx context.Context, sid string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+sid, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Exists(ctx context.Context, sid string) (bool, error) {
	err := s.client.Get(ctx, s.prefix+sid).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	return true, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sid string) error {
	return s.client.Del(ctx, s.prefix+sid).Err()
}

// MemorySessionStore keeps sessions in process. Used when no Redis address
// is configured and in tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]time.Time), now: time.Now}
}

func (s *MemorySessionStore) Save(_ context.Context, sid string, _ uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sid] = s.now().Add(ttl)
	return nil
}

func (s *MemorySessionStore) Exists(_ context.Context, sid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.sessions[sid]
	if !ok {
		return false, nil
	}
	if s.now().After(exp) {
		delete(s.sessions, sid)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}
