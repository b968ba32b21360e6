package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ticket-sorter:run:"

// RedisStore is the multi-instance PlanStore backend: runs are JSON-encoded
// and stored under keyPrefix+runID with a native Redis TTL, so expiry needs
// no background sweeper (spec.md §6).
type RedisStore struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisStore wraps an already-connected client.
func NewRedisStore(client *redis.Client, defaultTTL time.Duration) *RedisStore {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &RedisStore{client: client, defaultTTL: defaultTTL}
}

// Save JSON-encodes run and sets it with a TTL.
func (s *RedisStore) Save(ctx context.Context, run Run, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("store: encode run: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+run.RunID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store: save run: %w", err)
	}
	return nil
}

// Load fetches and decodes the run, returning ErrNotFound when the key is
// absent or already expired in Redis.
func (s *RedisStore) Load(ctx context.Context, runID string) (Run, error) {
	payload, err := s.client.Get(ctx, keyPrefix+runID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Run{}, ErrNotFound
		}
		return Run{}, fmt.Errorf("store: load run: %w", err)
	}
	var run Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return Run{}, fmt.Errorf("store: decode run: %w", err)
	}
	return run, nil
}
