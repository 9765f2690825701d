package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryAllowsUpToLimit(t *testing.T) {
	clock := newFakeClock()
	m := NewMemory(WithClock(clock.Now))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := m.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d", i)
		assert.Equal(t, 3-i, res.Remaining)
	}
	res, err := m.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 4, res.Count)
	assert.Zero(t, res.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), res.ResetAt)
}

func TestMemorySlidingWindow(t *testing.T) {
	clock := newFakeClock()
	m := NewMemory(WithClock(clock.Now))
	ctx := context.Background()

	_, _ = m.Allow(ctx, "k", 2, time.Minute)
	clock.Advance(30 * time.Second)
	_, _ = m.Allow(ctx, "k", 2, time.Minute)

	res, _ := m.Allow(ctx, "k", 2, time.Minute)
	assert.False(t, res.Allowed)

	// First hit ages out exactly at the window boundary.
	clock.Advance(30 * time.Second)
	assert.Equal(t, 2, m.Count("k", time.Minute))

	clock.Advance(31 * time.Second)
	assert.Zero(t, m.Count("k", time.Minute))
	res, _ = m.Allow(ctx, "k", 2, time.Minute)
	assert.True(t, res.Allowed)
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	res, _ := m.Allow(ctx, UserKey("a"), 1, time.Hour)
	assert.True(t, res.Allowed)
	res, _ = m.Allow(ctx, UserKey("b"), 1, time.Hour)
	assert.True(t, res.Allowed)
	res, _ = m.Allow(ctx, UserKey("a"), 1, time.Hour)
	assert.False(t, res.Allowed)

	m.Reset(UserKey("a"))
	res, _ = m.Allow(ctx, UserKey("a"), 1, time.Hour)
	assert.True(t, res.Allowed)
}

func TestMemoryConcurrentHits(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range 100 {
		wg.Go(func() {
			res, _ := m.Allow(ctx, "k", 60, time.Minute)
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 60, allowed)
	assert.Equal(t, 100, m.Count("k", time.Minute))
}
