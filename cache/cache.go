// Package cache provides TTL memoization for catalog reads. Production uses
// Redis; tests use the in-process store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ComputeFunc produces a value for a cold cache key.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// Store memoizes computed values by key with a fixed TTL. Concurrent requests
// for the same cold key may each run compute; the upstream calls being
// memoized are idempotent, so this is only a cost, not a correctness issue.
type Store interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, dest interface{}, compute ComputeFunc) error
}

// redisStore stores entries as JSON values in Redis.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) GetOrCompute(ctx context.Context, key string, ttl time.Duration, dest interface{}, compute ComputeFunc) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(data, dest)
	}
	if err != redis.Nil {
		// Redis being down must not take the endpoint down with it.
		return computeInto(ctx, dest, compute)
	}

	value, err := compute(ctx)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value for key %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, encoded, ttl).Err(); err != nil {
		// Best effort: serve the computed value even if the write failed.
		return json.Unmarshal(encoded, dest)
	}

	return json.Unmarshal(encoded, dest)
}

// memoryStore is an in-process map with per-entry expiry.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]memoryEntry)}
}

func (s *memoryStore) GetOrCompute(ctx context.Context, key string, ttl time.Duration, dest interface{}, compute ComputeFunc) error {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && time.Now().Before(entry.expiresAt) {
		return json.Unmarshal(entry.data, dest)
	}

	value, err := compute(ctx)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value for key %s: %w", key, err)
	}

	s.mu.Lock()
	s.entries[key] = memoryEntry{data: encoded, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()

	return json.Unmarshal(encoded, dest)
}

func computeInto(ctx context.Context, dest interface{}, compute ComputeFunc) error {
	value, err := compute(ctx)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, dest)
}
