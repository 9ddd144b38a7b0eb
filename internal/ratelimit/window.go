package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SlidingWindow допускает не более maxRequests вызовов за window.
//
// Хранит отметки времени допущенных вызовов и чистит устаревшие при каждой проверке.
type SlidingWindow struct {
	maxRequests int
	window      time.Duration
	now         func() time.Time

	mu    sync.Mutex
	calls []time.Time
}

// NewSlidingWindow создаёт стратегию.
func NewSlidingWindow(maxRequests int, window time.Duration, opts ...Option) (*SlidingWindow, error) {
	if maxRequests <= 0 || window <= 0 {
		return nil, fmt.Errorf("%w: window needs max_requests > 0 and window > 0", ErrInvalidConfig)
	}
	o := buildOptions(opts)
	return &SlidingWindow{
		maxRequests: maxRequests,
		window:      window,
		now:         o.now,
		calls:       make([]time.Time, 0, maxRequests),
	}, nil
}

// Check удаляет вызовы старше окна и допускает новый, если есть место.
// Wait — время до выхода самого старого вызова из окна.
func (w *SlidingWindow) Check(context.Context, *Request) (Decision, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)

	keep := 0
	for keep < len(w.calls) && !w.calls[keep].After(cutoff) {
		keep++
	}
	w.calls = w.calls[keep:]

	if len(w.calls) >= w.maxRequests {
		return limited(StrategyWindow, w.calls[0].Add(w.window).Sub(now), map[string]any{
			"requests":     len(w.calls),
			"max_requests": w.maxRequests,
			"window":       w.window.Seconds(),
		}), nil
	}

	w.calls = append(w.calls, now)
	return Decision{Strategy: StrategyWindow, Details: map[string]any{
		"requests":     len(w.calls),
		"max_requests": w.maxRequests,
	}}, nil
}

// Throttle ждёт wait.
func (w *SlidingWindow) Throttle(ctx context.Context, wait time.Duration) error {
	return sleep(ctx, wait)
}
