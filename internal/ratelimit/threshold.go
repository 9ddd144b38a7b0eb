package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ThresholdConfig — параметры Threshold.
type ThresholdConfig struct {
	// MaxCallsPerSecond — жёсткий лимит вызовов в секунду.
	MaxCallsPerSecond int

	// MinDelay — минимальная пауза между вызовами (0 — без паузы).
	MinDelay time.Duration

	// Warning и Critical — доли лимита (0..1), при достижении которых
	// пишутся WARN и ERROR. На допуск не влияют.
	Warning  float64
	Critical float64
}

// Threshold — лимит вызовов в секунду с предупреждениями о приближении к нему.
//
// Отказывает только жёсткий лимит MaxCallsPerSecond и MinDelay.
// Пороги Warning/Critical — наблюдаемость.
type Threshold struct {
	cfg    ThresholdConfig
	now    func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	windowAt  time.Time
	calls     int
	last      time.Time
	totalTime time.Duration
}

// NewThreshold создаёт стратегию. Пороги по умолчанию: 0.8 и 0.9.
func NewThreshold(cfg ThresholdConfig, opts ...Option) (*Threshold, error) {
	if cfg.MaxCallsPerSecond <= 0 {
		return nil, fmt.Errorf("%w: max calls per second must be positive", ErrInvalidConfig)
	}
	if cfg.Warning <= 0 {
		cfg.Warning = 0.8
	}
	if cfg.Critical <= 0 {
		cfg.Critical = 0.9
	}
	if cfg.Warning > 1 || cfg.Critical > 1 || cfg.Warning > cfg.Critical {
		return nil, fmt.Errorf("%w: thresholds warning=%.2f critical=%.2f", ErrInvalidConfig, cfg.Warning, cfg.Critical)
	}

	o := buildOptions(opts)
	return &Threshold{cfg: cfg, now: o.now, logger: o.logger}, nil
}

// Check применяет жёсткий лимит и обновляет счётчик текущей секунды.
func (t *Threshold) Check(_ context.Context, req *Request) (Decision, error) {
	t.mu.Lock()

	now := t.now()
	if now.Sub(t.windowAt) >= time.Second {
		t.windowAt = now
		t.calls = 0
		t.totalTime = 0
	}

	if t.cfg.MinDelay > 0 && !t.last.IsZero() {
		if elapsed := now.Sub(t.last); elapsed < t.cfg.MinDelay {
			d := limited(StrategyThreshold, t.cfg.MinDelay-elapsed, t.detailsLocked())
			t.mu.Unlock()
			return d, nil
		}
	}

	if t.calls >= t.cfg.MaxCallsPerSecond {
		d := limited(StrategyThreshold, t.windowAt.Add(time.Second).Sub(now), t.detailsLocked())
		t.mu.Unlock()
		return d, nil
	}

	t.calls++
	t.last = now
	details := t.detailsLocked()
	t.mu.Unlock()

	// Логируем вне блокировки.
	action := ""
	if req != nil {
		action = req.Action
	}
	switch {
	case details["is_critical"] == true:
		t.logger.Error("rate limit usage critical",
			"action", action,
			"calls", details["calls"],
			"usage", details["usage"],
		)
	case details["is_near_limit"] == true:
		t.logger.Warn("rate limit usage near limit",
			"action", action,
			"calls", details["calls"],
			"usage", details["usage"],
		)
	}

	return Decision{Strategy: StrategyThreshold, Details: details}, nil
}

// Observe добавляет длительность вызова в аккумулятор текущей секунды.
func (t *Threshold) Observe(took time.Duration) {
	t.mu.Lock()
	t.totalTime += took
	t.mu.Unlock()
}

// Throttle ждёт wait.
func (t *Threshold) Throttle(ctx context.Context, wait time.Duration) error {
	return sleep(ctx, wait)
}

// detailsLocked вызывается под t.mu.
func (t *Threshold) detailsLocked() map[string]any {
	usage := float64(t.calls) / float64(t.cfg.MaxCallsPerSecond)
	return map[string]any{
		"calls":         t.calls,
		"usage":         usage,
		"is_near_limit": usage >= t.cfg.Warning,
		"is_critical":   usage >= t.cfg.Critical,
		"total_time":    t.totalTime.Seconds(),
	}
}
