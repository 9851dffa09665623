package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"shopdesk/internal/cache"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *cache.RedisIdempotencyStore {
	t.Helper()
	_ = godotenv.Load("../../.env")

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping redis integration test")
	}

	store, err := cache.NewRedisIdempotencyStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIdempotency_ReserveCompleteReplay(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	e, err := store.Reserve(ctx, key, "fp-1")
	require.NoError(t, err)
	assert.Nil(t, e, "first reservation should own the key")

	_, err = store.Reserve(ctx, key, "fp-1")
	assert.ErrorIs(t, err, cache.ErrInFlight)

	require.NoError(t, store.Complete(ctx, key, cache.Entry{Fingerprint: "fp-1", Status: 201, Body: []byte(`{"id":1}`)}, time.Minute))

	e, err = store.Reserve(ctx, key, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, 201, e.Status)
	assert.JSONEq(t, `{"id":1}`, string(e.Body))
	assert.Equal(t, "fp-1", e.Fingerprint)
}

func TestIdempotency_ReleaseAllowsRetry(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	_, err := store.Reserve(ctx, key, "fp")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, key))

	e, err := store.Reserve(ctx, key, "fp")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestIdempotency_PendingExpiresBeforeReplay(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	opts, err := redis.ParseURL(os.Getenv("TEST_REDIS_URL"))
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	_, err = store.Reserve(ctx, key, "fp")
	require.NoError(t, err)
	pending, err := client.TTL(ctx, "shopdesk:idem:"+key).Result()
	require.NoError(t, err)
	assert.Greater(t, pending, time.Duration(0))
	assert.LessOrEqual(t, pending, cache.PendingTTL, "a stuck reservation frees the key quickly")

	require.NoError(t, store.Complete(ctx, key, cache.Entry{Fingerprint: "fp", Status: 201}, 24*time.Hour))
	stored, err := client.TTL(ctx, "shopdesk:idem:"+key).Result()
	require.NoError(t, err)
	assert.Greater(t, stored, time.Hour, "a completed response keeps the full replay window")
}

func TestIdempotency_BadURL(t *testing.T) {
	_, err := cache.NewRedisIdempotencyStore("not a url")
	assert.Error(t, err)
}

func TestEntry_Pending(t *testing.T) {
	assert.True(t, (&cache.Entry{Fingerprint: "x"}).Pending())
	assert.False(t, (&cache.Entry{Status: 201}).Pending())
}
