package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TimeBased гарантирует минимальную паузу между допущенными вызовами.
type TimeBased struct {
	minDelay time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewTimeBased создаёт стратегию с паузой minDelay.
func NewTimeBased(minDelay time.Duration, opts ...Option) (*TimeBased, error) {
	if minDelay < 0 {
		return nil, fmt.Errorf("%w: min delay %s", ErrInvalidConfig, minDelay)
	}
	o := buildOptions(opts)
	return &TimeBased{minDelay: minDelay, now: o.now}, nil
}

// Check допускает вызов, если с прошлого допущенного прошло не меньше minDelay.
func (t *TimeBased) Check(context.Context, *Request) (Decision, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.last.IsZero() {
		elapsed := now.Sub(t.last)
		if elapsed < t.minDelay {
			return limited(StrategyTime, t.minDelay-elapsed, map[string]any{
				"min_delay": t.minDelay.Seconds(),
				"elapsed":   elapsed.Seconds(),
			}), nil
		}
	}

	t.last = now
	return Decision{Strategy: StrategyTime}, nil
}

// Throttle ждёт wait.
func (t *TimeBased) Throttle(ctx context.Context, wait time.Duration) error {
	return sleep(ctx, wait)
}
