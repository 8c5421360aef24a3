package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// RedisLimiter keeps counters in Redis keys that expire with their window.
type RedisLimiter struct {
	pool   *redis.Pool
	rules  Rules
	prefix string
}

// NewRedisPool builds the connection pool shared by the limiter.
func NewRedisPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// NewRedisLimiter creates a Redis-backed Limiter
func NewRedisLimiter(pool *redis.Pool, rules Rules) *RedisLimiter {
	return &RedisLimiter{pool: pool, rules: rules, prefix: "ratelimit"}
}

func (l *RedisLimiter) key(action Action, userID uint64) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, action, userID)
}

// LimitByAction reports whether the action counter reached the rule's max
func (l *RedisLimiter) LimitByAction(ctx context.Context, userID uint64, action Action) (bool, error) {
	rule, ok := l.rules.lookup(action)
	if !ok {
		return false, nil
	}

	conn, err := l.pool.GetContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	count, err := redis.Int(conn.Do("GET", l.key(action, userID)))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	return count >= rule.Max, nil
}

// trackScript increments the counter and makes sure it expires. A key left
// without a TTL by an earlier failure gets one on its next increment.
var trackScript = redis.NewScript(1, `
local count = redis.call('INCR', KEYS[1])
if count == 1 or redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// TrackLimitByAction increments the counter, starting its expiry on first use
func (l *RedisLimiter) TrackLimitByAction(ctx context.Context, userID uint64, action Action) error {
	rule, ok := l.rules.lookup(action)
	if !ok {
		return nil
	}

	conn, err := l.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	windowMillis := rule.Window.Milliseconds()
	if windowMillis < 1 {
		windowMillis = 1
	}
	if _, err := trackScript.Do(conn, l.key(action, userID), windowMillis); err != nil {
		return fmt.Errorf("failed to track rate limit: %w", err)
	}

	return nil
}
