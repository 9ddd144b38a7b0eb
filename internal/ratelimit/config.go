package ratelimit

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config описывает стратегию и её параметры.
// Используется фабрикой New и Dynamic.Update.
type Config struct {
	// Strategy — none | time | threshold | window | bucket | redis.
	Strategy string

	// time, threshold
	MinDelay time.Duration

	// threshold
	MaxCallsPerSecond int
	Warning           float64
	Critical          float64

	// window, redis
	MaxRequests int
	Window      time.Duration

	// bucket
	RPS   float64
	Burst int

	// redis
	Redis       redis.Scripter
	RedisPrefix string
}

// New создаёт governor по Config.
// Пустая стратегия — Noop.
func New(cfg Config, opts ...Option) (Governor, error) {
	switch cfg.Strategy {
	case "", StrategyNone:
		return Noop{}, nil
	case StrategyTime:
		return NewTimeBased(cfg.MinDelay, opts...)
	case StrategyThreshold:
		return NewThreshold(ThresholdConfig{
			MaxCallsPerSecond: cfg.MaxCallsPerSecond,
			MinDelay:          cfg.MinDelay,
			Warning:           cfg.Warning,
			Critical:          cfg.Critical,
		}, opts...)
	case StrategyWindow:
		return NewSlidingWindow(cfg.MaxRequests, cfg.Window, opts...)
	case StrategyBucket:
		return NewTokenBucket(cfg.RPS, cfg.Burst, opts...)
	case StrategyRedis:
		return NewRedisWindow(cfg.Redis, cfg.RedisPrefix, cfg.MaxRequests, cfg.Window, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
	}
}
