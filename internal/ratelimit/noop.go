package ratelimit

import (
	"context"
	"time"
)

// Noop никогда не ограничивает вызовы.
type Noop struct{}

// Check всегда допускает вызов.
func (Noop) Check(context.Context, *Request) (Decision, error) {
	return Decision{Strategy: StrategyNone}, nil
}

// Throttle просто ждёт wait.
func (Noop) Throttle(ctx context.Context, wait time.Duration) error {
	return sleep(ctx, wait)
}
