package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/refugee-resources/resource-locator/internal/cache"
)

// Store keeps sessions and serializes work on each of them.
type Store interface {
	// Get returns the session, or a fresh one when id is unknown.
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	// Lock returns ErrBusy when the session is already locked.
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	busy     map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		busy:     make(map[string]bool),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return NewSession(id), nil
	}
	s.Messages = append([]Message(nil), s.Messages...)
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.Messages = append([]Message(nil), s.Messages...)
	m.sessions[s.ID] = cp
	return nil
}

func (m *MemoryStore) Lock(_ context.Context, id string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy[id] {
		return nil, ErrBusy
	}
	m.busy[id] = true
	return func() {
		m.mu.Lock()
		delete(m.busy, id)
		m.mu.Unlock()
	}, nil
}

// RedisStore shares sessions between function instances.
type RedisStore struct {
	store      *cache.Store
	sessionTTL time.Duration
	lockTTL    time.Duration
}

func NewRedisStore(store *cache.Store, sessionTTL, lockTTL time.Duration) *RedisStore {
	return &RedisStore{store: store, sessionTTL: sessionTTL, lockTTL: lockTTL}
}

func sessionKey(id string) string { return "chat:session:" + id }
func lockKey(id string) string    { return "chat:lock:" + id }

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	found, err := r.store.GetJSON(ctx, sessionKey(id), &s)
	if err != nil {
		return nil, err
	}
	if !found {
		return NewSession(id), nil
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	return r.store.SetJSON(ctx, sessionKey(s.ID), s, r.sessionTTL)
}

func (r *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	owner := uuid.NewString()
	ok, err := r.store.Lock(ctx, lockKey(id), owner, r.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("lock session %s: %w", id, err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		// The request context may already be done; release with a fresh one.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.store.Unlock(ctx, lockKey(id), owner)
	}, nil
}
