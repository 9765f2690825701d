package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewRedisRequiresClient(t *testing.T) {
	_, err := NewRedis(nil)
	assert.Error(t, err)
}

func TestRedisSlidingWindow(t *testing.T) {
	mr, client := newMiniredis(t)
	clock := newFakeClock()
	r, err := NewRedis(client, WithRedisClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		res, err := r.Allow(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, i, res.Count)
	}
	res, err := r.Allow(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, clock.Now().Add(time.Minute).UnixMilli(), res.ResetAt.UnixMilli())
	assert.True(t, mr.Exists("rl:k"))

	clock.Advance(time.Minute)
	res, err = r.Allow(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Count)
}

func TestRedisSharedAcrossInstances(t *testing.T) {
	_, client := newMiniredis(t)
	a, err := NewRedis(client, WithPrefix("shared:"))
	require.NoError(t, err)
	b, err := NewRedis(client, WithPrefix("shared:"))
	require.NoError(t, err)
	ctx := context.Background()

	res, _ := a.Allow(ctx, GlobalKey, 1, time.Minute)
	assert.True(t, res.Allowed)
	res, _ = b.Allow(ctx, GlobalKey, 1, time.Minute)
	assert.False(t, res.Allowed)
}

func TestRedisErrorWhenServerDown(t *testing.T) {
	mr, client := newMiniredis(t)
	r, err := NewRedis(client)
	require.NoError(t, err)
	mr.Close()

	_, err = r.Allow(context.Background(), "k", 1, time.Minute)
	assert.Error(t, err)
}
