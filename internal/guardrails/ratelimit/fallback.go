package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"trustrag/pkg/platform/circuit"
)

// Fallback consults a shared primary limiter and switches to a local one
// while the primary keeps failing. The primary is still probed while the
// breaker is open so it can close again.
type Fallback struct {
	primary  Limiter
	local    Limiter
	breaker  *circuit.Breaker
	logger   *slog.Logger
	onChange func(open bool)
}

type FallbackOption func(*Fallback)

func WithBreaker(b *circuit.Breaker) FallbackOption {
	return func(f *Fallback) {
		if b != nil {
			f.breaker = b
		}
	}
}

func WithFallbackLogger(l *slog.Logger) FallbackOption {
	return func(f *Fallback) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithStateHook is called on every breaker transition.
func WithStateHook(fn func(open bool)) FallbackOption {
	return func(f *Fallback) { f.onChange = fn }
}

func NewFallback(primary, local Limiter, opts ...FallbackOption) (*Fallback, error) {
	if primary == nil {
		return nil, errors.New("primary limiter is required")
	}
	if local == nil {
		return nil, errors.New("local limiter is required")
	}
	f := &Fallback{
		primary: primary,
		local:   local,
		breaker: circuit.New("ratelimit"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Fallback) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	res, err := f.primary.Allow(ctx, key, limit, window)
	if err != nil {
		_, change := f.breaker.RecordFailure()
		f.report(ctx, change, err)
		return f.degraded(ctx, key, limit, window)
	}

	usePrimary, change := f.breaker.RecordSuccess()
	f.report(ctx, change, nil)
	if !usePrimary {
		return f.degraded(ctx, key, limit, window)
	}
	return res, nil
}

// Open reports whether requests are currently served by the local limiter.
func (f *Fallback) Open() bool { return f.breaker.IsOpen() }

func (f *Fallback) degraded(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	res, err := f.local.Allow(ctx, key, limit, window)
	res.Degraded = true
	return res, err
}

func (f *Fallback) report(ctx context.Context, change circuit.StateChange, cause error) {
	switch {
	case change.Opened:
		f.logger.WarnContext(ctx, "shared rate limiter unavailable, using local windows", "error", cause)
		if f.onChange != nil {
			f.onChange(true)
		}
	case change.Closed:
		f.logger.InfoContext(ctx, "shared rate limiter recovered")
		if f.onChange != nil {
			f.onChange(false)
		}
	case cause != nil:
		f.logger.DebugContext(ctx, "shared rate limiter error", "error", cause)
	}
}
