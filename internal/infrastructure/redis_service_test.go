package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accounts-service/internal/application/interfaces"
)

func newTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewRedisServiceWithClient(client)
	t.Cleanup(func() { _ = svc.Close() })

	return svc, mr
}

func TestRedisService_SetIfAbsent(t *testing.T) {
	svc, _ := newTestRedis(t)
	ctx := context.Background()

	claimed, err := svc.SetIfAbsent(ctx, "k", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	// The second writer loses and the first value stays.
	claimed, err = svc.SetIfAbsent(ctx, "k", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)

	value, err := svc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", value)
}

func TestRedisService_GetMissingKey(t *testing.T) {
	svc, _ := newTestRedis(t)

	_, err := svc.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)
}

func TestRedisService_TTLExpiry(t *testing.T) {
	svc, mr := newTestRedis(t)
	ctx := context.Background()

	_, err := svc.SetIfAbsent(ctx, "k", "v", 15*time.Minute)
	require.NoError(t, err)

	exists, err := svc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	mr.FastForward(16 * time.Minute)

	exists, err = svc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = svc.Get(ctx, "k")
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)

	// The key is free again after expiry.
	claimed, err := svc.SetIfAbsent(ctx, "k", "fresh", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestRedisService_Delete(t *testing.T) {
	svc, _ := newTestRedis(t)
	ctx := context.Background()

	_, err := svc.SetIfAbsent(ctx, "k", "v", time.Minute)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "k"))

	_, err = svc.Get(ctx, "k")
	assert.ErrorIs(t, err, interfaces.ErrCacheMiss)

	// Deleting an absent key is not an error.
	assert.NoError(t, svc.Delete(ctx, "k"))
}
