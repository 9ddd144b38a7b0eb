package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisWindowScript — скользящее окно на sorted set.
// KEYS[1] = ключ окна
// ARGV[1] = текущее время, мс
// ARGV[2] = длина окна, мс
// ARGV[3] = лимит
// ARGV[4] = уникальный member для вызова
// Возвращает {allowed, count, wait_ms}.
var redisWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)

if count >= limit then
    local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
    local wait = window
    if oldest[2] then
        wait = tonumber(oldest[2]) + window - now
    end
    return {0, count, wait}
end

redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, window)
return {1, count + 1, 0}
`)

// RedisWindow — скользящее окно, общее для всех воркеров с одним ключом.
type RedisWindow struct {
	client      redis.Scripter
	prefix      string
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// NewRedisWindow создаёт стратегию.
// Ключ окна: prefix + ":" + Request.Key(), т.е. "provider" для provider-wide проверки или имя action.
func NewRedisWindow(client redis.Scripter, prefix string, maxRequests int, window time.Duration, opts ...Option) (*RedisWindow, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: redis client is required", ErrInvalidConfig)
	}
	if maxRequests <= 0 || window < time.Millisecond {
		return nil, fmt.Errorf("%w: window needs max_requests > 0 and window >= 1ms", ErrInvalidConfig)
	}
	if prefix == "" {
		prefix = "conveyor:ratelimit"
	}
	o := buildOptions(opts)
	return &RedisWindow{
		client:      client,
		prefix:      prefix,
		maxRequests: maxRequests,
		window:      window,
		now:         o.now,
	}, nil
}

// Check атомарно проверяет и обновляет окно в Redis.
func (w *RedisWindow) Check(ctx context.Context, req *Request) (Decision, error) {
	key := w.prefix + ":" + req.Key()

	res, err := redisWindowScript.Run(ctx, w.client, []string{key},
		w.now().UnixMilli(),
		w.window.Milliseconds(),
		w.maxRequests,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis window %s: %w", key, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("redis window %s: unexpected script result %v", key, res)
	}

	details := map[string]any{
		"requests":     res[1],
		"max_requests": w.maxRequests,
		"key":          key,
	}
	if res[0] == 0 {
		return limited(StrategyRedis, time.Duration(res[2])*time.Millisecond, details), nil
	}
	return Decision{Strategy: StrategyRedis, Details: details}, nil
}

// Throttle ждёт wait.
func (w *RedisWindow) Throttle(ctx context.Context, wait time.Duration) error {
	return sleep(ctx, wait)
}
