package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var movementRateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisMovementRateLimiter implements distributed rate limiting of money
// movements using Redis. The counter key is scoped to the acting identity and
// expires with the window, so limits hold across service replicas.
type RedisMovementRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisMovementRateLimiter creates a limiter with the given key prefix.
func NewRedisMovementRateLimiter(client redis.UniversalClient, prefix string) *RedisMovementRateLimiter {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "bank:rate_limit"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")
	return &RedisMovementRateLimiter{client: client, prefix: trimmedPrefix}
}

// Allow increments the window counter for `key` and reports whether the
// request fits within `limit` for the window. When the limit is exhausted the
// remaining window TTL is returned as a retry-after hint.
func (l *RedisMovementRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if limit <= 0 {
		return true, 0, nil
	}

	redisKey := fmt.Sprintf("%s:movement:%s", l.prefix, key)
	result, err := movementRateLimitScript.Run(ctx, l.client, []string{redisKey}, window.Milliseconds()).Slice()
	if err != nil {
		return false, 0, err
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("unexpected rate limit script reply length %d", len(result))
	}

	current, ok := result[0].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected rate limit counter type %T", result[0])
	}
	ttlMillis, ok := result[1].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected rate limit ttl type %T", result[1])
	}

	if current > int64(limit) {
		return false, time.Duration(ttlMillis) * time.Millisecond, nil
	}
	return true, 0, nil
}
