// Package ratelimit implements sliding-window request counters for the
// guardrails gate.
//
// A hit is always recorded, including one that ends up over the limit, so a
// caller hammering the gate keeps its own window full.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one hit.
type Result struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
	Degraded  bool
}

// Limiter records a hit for key and reports whether the window still holds at
// most limit hits.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

func newResult(count, limit int, resetAt time.Time) Result {
	remaining := max(limit-count, 0)
	return Result{
		Allowed:   count <= limit,
		Count:     count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// Keys used by the gate.
const (
	GlobalKey     = "guardrails:global"
	userKeyPrefix = "guardrails:user:"
)

func UserKey(user string) string { return userKeyPrefix + user }
