package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local sliding window. Old timestamps are pruned on each
// hit for that key; nothing sweeps idle keys.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
	now     func() time.Time
}

type slidingWindow struct {
	timestamps []time.Time
}

type MemoryOption func(*Memory)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		windows: make(map[string]*slidingWindow),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	sw := m.windows[key]
	if sw == nil {
		sw = &slidingWindow{}
		m.windows[key] = sw
	}
	sw.prune(now, window)
	sw.timestamps = append(sw.timestamps, now)

	return newResult(len(sw.timestamps), limit, sw.timestamps[0].Add(window)), nil
}

// Count returns the hits currently inside the window for key.
func (m *Memory) Count(key string, window time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sw := m.windows[key]
	if sw == nil {
		return 0
	}
	sw.prune(m.now(), window)
	return len(sw.timestamps)
}

// Reset forgets key.
func (m *Memory) Reset(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
}

// prune drops timestamps at least window old. Timestamps are appended in
// clock order, so the expired ones form a prefix.
func (sw *slidingWindow) prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}
