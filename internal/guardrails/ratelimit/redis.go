package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript prunes expired members, records this hit and returns
// the window size plus the oldest remaining score.
//
// KEYS[1] window key
// ARGV[1] now (ms), ARGV[2] window (ms), ARGV[3] unique member
var slidingWindowScript = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", tonumber(ARGV[1]) - tonumber(ARGV[2]))
redis.call("ZADD", KEYS[1], ARGV[1], ARGV[3])
redis.call("PEXPIRE", KEYS[1], ARGV[2])
local count = redis.call("ZCARD", KEYS[1])
local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
return {count, oldest[2]}
`)

// Redis is a sliding window shared by every process using the same Redis.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

type RedisOption func(*Redis)

func WithPrefix(p string) RedisOption {
	return func(r *Redis) { r.prefix = p }
}

func WithRedisClock(now func() time.Time) RedisOption {
	return func(r *Redis) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	r := &Redis{client: client, prefix: "rl:", now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := r.now()
	windowMS := window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1000
	}
	res, err := slidingWindowScript.Run(ctx, r.client,
		[]string{r.prefix + key},
		now.UnixMilli(), windowMS, ulid.Make().String(),
	).Result()
	if err != nil {
		return Result{}, fmt.Errorf("sliding window script: %w", err)
	}

	vals, ok := res.([]any)
	if !ok || len(vals) < 1 {
		return Result{}, errors.New("unexpected sliding window response")
	}
	count, ok := vals[0].(int64)
	if !ok {
		return Result{}, errors.New("invalid sliding window count")
	}
	resetAt := now.Add(time.Duration(windowMS) * time.Millisecond)
	if len(vals) > 1 {
		if s, ok := vals[1].(string); ok {
			if oldest, err := strconv.ParseFloat(s, 64); err == nil {
				resetAt = time.UnixMilli(int64(oldest)).Add(time.Duration(windowMS) * time.Millisecond)
			}
		}
	}
	return newResult(int(count), limit, resetAt), nil
}
