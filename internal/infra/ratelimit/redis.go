package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Liamhigh/Verumlast/internal/domain"
)

// counterScript bumps the window counter and reports its remaining TTL in one
// atomic round trip. A key whose expiry was lost (PTTL < 0) gets its window
// re-armed so it cannot count forever.
const counterScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

// scriptEval runs the counter script against one key. Production wires it to
// go-redis; tests substitute a fake.
type scriptEval func(ctx context.Context, keys []string, args ...any) (any, error)

type redisLimiter struct {
	eval scriptEval
	now  func() time.Time
}

// NewRedisLimiter rate-limits across replicas of the sealing service.
func NewRedisLimiter(addr, password string, db int, now func() time.Time) (domain.RateLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	script := redis.NewScript(counterScript)
	return newRedisLimiter(func(ctx context.Context, keys []string, args ...any) (any, error) {
		return script.Run(ctx, client, keys, args...).Result()
	}, now), nil
}

func newRedisLimiter(eval scriptEval, now func() time.Time) domain.RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &redisLimiter{eval: eval, now: now}
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = time.Second.Milliseconds()
	}

	reply, err := r.eval(ctx, []string{key}, windowMillis)
	if err != nil {
		return domain.RateLimitDecision{}, err
	}
	count, ttlMillis, err := decodeCounterReply(reply)
	if err != nil {
		return domain.RateLimitDecision{}, err
	}

	resetAt := r.now().Add(time.Duration(ttlMillis) * time.Millisecond)
	return windowDecision(limit, count, resetAt), nil
}

func decodeCounterReply(reply any) (count int, ttlMillis int64, err error) {
	values, ok := reply.([]any)
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply %T", reply)
	}
	c, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected counter type %T", values[0])
	}
	ttl, ok := values[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected ttl type %T", values[1])
	}
	return int(c), ttl, nil
}
