package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps a Redis client with the JSON, idempotency and locking helpers
// used by the locator.
type Store struct {
	rdb *redis.Client
}

// Options for connecting to Redis.
type Options struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// New creates a Store. The connection is established lazily.
func New(opts Options) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
	}))
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// GetJSON decodes the value at key into v. It reports false when the key is
// missing or empty. A value that no longer decodes is deleted and reported as
// missing.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) || (err == nil && data == "") {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis GET %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), v); err != nil {
		s.rdb.Del(ctx, key)
		return false, nil
	}
	return true, nil
}

// SetJSON stores v at key. A zero ttl keeps the value forever.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}
	if err := s.rdb.Set(ctx, key, string(data), ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.rdb.Del(ctx, keys...).Err()
}

// Claim marks key as processed and reports whether this caller was first.
// Claims never expire.
func (s *Store) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX %s: %w", key, err)
	}
	return ok, nil
}

// Lock takes a short-lived lock on key. It reports false when somebody else
// holds it.
func (s *Store) Lock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX %s: %w", key, err)
	}
	return ok, nil
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Unlock releases key if owner still holds it.
func (s *Store) Unlock(ctx context.Context, key, owner string) error {
	if err := unlockScript.Run(ctx, s.rdb, []string{key}, owner).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("unlock %s: %w", key, err)
	}
	return nil
}
