// Package cache holds the Redis-backed idempotency store used to replay
// responses of retried bill submissions.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "shopdesk:idem:"

// PendingTTL bounds how long a reservation outlives a request that never completes.
// Complete replaces it with the full replay TTL.
const PendingTTL = time.Minute

// ErrInFlight means another request holding the same key has not finished yet.
var ErrInFlight = errors.New("request with this idempotency key is still in progress")

// Entry is what the store keeps per key. A pending entry has Status 0.
type Entry struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status"`
	Body        []byte `json:"body,omitempty"`
}

// Pending reports whether the owning request is still running.
func (e *Entry) Pending() bool { return e.Status == 0 }

// RedisIdempotencyStore implements reserve / complete / release over Redis.
type RedisIdempotencyStore struct {
	client *redis.Client
}

// NewRedisIdempotencyStore connects to redisURL and verifies the connection.
func NewRedisIdempotencyStore(redisURL string) (*RedisIdempotencyStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisIdempotencyStore{client: client}, nil
}

func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// Reserve claims key for a new request carrying fingerprint for PendingTTL. It returns
// (nil, nil) when the caller now owns the key, the stored Entry when the key already
// exists, or ErrInFlight when the existing entry is still pending.
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key, fingerprint string) (*Entry, error) {
	pending, err := json.Marshal(Entry{Fingerprint: fingerprint})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pending entry: %w", err)
	}

	ok, err := s.client.SetNX(ctx, keyPrefix+key, pending, PendingTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		return s.Reserve(ctx, key, fingerprint)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal idempotency entry: %w", err)
	}
	if e.Pending() {
		return &e, ErrInFlight
	}
	return &e, nil
}

// Complete stores the final response for key, kept for ttl.
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, e Entry, ttl time.Duration) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal idempotency entry: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency entry: %w", err)
	}
	return nil
}

// Release drops a reservation so the key can be retried, used when the request failed.
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
