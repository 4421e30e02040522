package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingScript trims events older than the window and records the new one
// only when it fits, so rejected requests do not extend a client's lockout.
// ARGV: now_ms, cutoff_ms, window_ms, limit, member. Returns
// {allowed, count, oldest_ms}.
var slidingScript = redis.NewScript(`
local key = KEYS[1]
redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCARD', key)
local allowed = 0
if count < tonumber(ARGV[4]) then
  redis.call('ZADD', key, ARGV[1], ARGV[5])
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, ARGV[3])
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local first = tonumber(ARGV[1])
if oldest[2] then first = tonumber(oldest[2]) end
return {allowed, count, first}
`)

// SlidingLimiter counts events in a rolling window kept in a Redis sorted set
// scored by millisecond timestamps.
type SlidingLimiter struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

// Allow records an event for key when fewer than limit events happened in the
// last window. reset is when the oldest counted event leaves the window.
func (l SlidingLimiter) Allow(ctx context.Context, key string, window time.Duration, limit int) (bool, int, time.Time, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	if l.Client == nil || limit <= 0 || window <= 0 {
		return true, limit, now.Add(window), nil
	}

	res, err := slidingScript.Run(ctx, l.Client, []string{l.Prefix + key},
		now.UnixMilli(), now.Add(-window).UnixMilli(), window.Milliseconds(), limit, uuid.NewString()).Int64Slice()
	if err != nil {
		return false, 0, now.Add(window), fmt.Errorf("sliding window %q: %w", key, err)
	}
	if len(res) != 3 {
		return false, 0, now.Add(window), fmt.Errorf("sliding window %q: unexpected reply %v", key, res)
	}

	allowed, count, oldest := res[0] == 1, int(res[1]), res[2]
	reset := time.UnixMilli(oldest).Add(window)
	return allowed, max(limit-count, 0), reset, nil
}
