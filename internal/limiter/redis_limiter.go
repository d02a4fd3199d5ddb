package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindow increments the counter for the current window and sets its
// expiry on first use. Returns the count after the increment.
var fixedWindow = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter counts requests per fixed window in Redis so that every API
// instance shares the same quota.
//
// Key format: "geodb:ratelimit:{client}:{window index}"
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter creates a limiter on an existing client. Close does not
// close the client.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Allow fails open: a Redis error lets the request through
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	index := l.now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("geodb:ratelimit:%s:%d", key, index)

	// keep the key for two windows so a slow clock on another instance still sees it
	ttl := (2 * l.window).Milliseconds()

	count, err := fixedWindow.Run(ctx, l.client, []string{redisKey}, ttl).Int64()
	if err != nil {
		return true
	}
	return count <= l.limit
}

// Close is a no-op; the client is shared
func (l *RedisLimiter) Close() error {
	return nil
}
