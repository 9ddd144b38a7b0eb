package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket — token bucket на golang.org/x/time/rate.
// rate.Limiter синхронизирован сам, отдельный мьютекс не нужен.
type TokenBucket struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// NewTokenBucket создаёт bucket с пополнением rps токенов в секунду и ёмкостью burst.
func NewTokenBucket(rps float64, burst int, opts ...Option) (*TokenBucket, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("%w: bucket needs rps > 0 and burst > 0", ErrInvalidConfig)
	}
	o := buildOptions(opts)
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(rps), burst), now: o.now}, nil
}

// Check забирает токен, если он есть. Иначе возвращает время до появления токена.
func (b *TokenBucket) Check(context.Context, *Request) (Decision, error) {
	now := b.now()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return Decision{}, fmt.Errorf("%w: burst too small", ErrInvalidConfig)
	}

	if delay := r.DelayFrom(now); delay > 0 {
		// Резерв не используем — возвращаем токен.
		r.CancelAt(now)
		return limited(StrategyBucket, delay, map[string]any{
			"tokens": b.limiter.TokensAt(now),
			"burst":  b.limiter.Burst(),
		}), nil
	}

	return Decision{Strategy: StrategyBucket, Details: map[string]any{
		"tokens": b.limiter.TokensAt(now),
	}}, nil
}

// Throttle ждёт wait.
func (b *TokenBucket) Throttle(ctx context.Context, wait time.Duration) error {
	return sleep(ctx, wait)
}
