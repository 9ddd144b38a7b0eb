package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Имена стратегий.
const (
	StrategyNone      = "none"
	StrategyTime      = "time"
	StrategyThreshold = "threshold"
	StrategyWindow    = "window"
	StrategyBucket    = "bucket"
	StrategyRedis     = "redis"

	// StrategyAdmitted — вызов допущен предыдущей проверкой.
	StrategyAdmitted = "admitted"
)

// Области проверки.
const (
	ScopeProvider = "provider"
	ScopeAction   = "action"
)

// Request — контекст проверки. Все поля необязательны.
type Request struct {
	// Scope — область лимита. ScopeProvider делает проверку общей
	// для всех actions провайдера, даже если Action заполнен.
	Scope   string
	Action  string
	Payload any
	Account any
}

// Key возвращает ключ счётчика: "provider" для provider-wide
// проверки, иначе имя action.
func (r *Request) Key() string {
	if r == nil || r.Scope == ScopeProvider || r.Action == "" {
		return ScopeProvider
	}
	return r.Action
}

// Decision — результат Check.
type Decision struct {
	// Limited — вызов не допущен.
	Limited bool

	// Wait — сколько ждать до следующей попытки (для Limited).
	Wait time.Duration

	// Strategy — имя стратегии, принявшей решение.
	Strategy string

	// Details — диагностические поля стратегии.
	Details map[string]any
}

// Governor — стратегия admission control.
type Governor interface {
	// Check проверяет лимит и, если вызов допущен, учитывает его.
	Check(ctx context.Context, req *Request) (Decision, error)

	// Throttle блокирует на wait или до отмены ctx.
	Throttle(ctx context.Context, wait time.Duration) error
}

// Observer — опциональный интерфейс для учёта длительности вызовов.
type Observer interface {
	Observe(took time.Duration)
}

// Guard выполняет fn под контролем governor'а.
//
// Пока Check возвращает Limited, ждёт через Throttle.
// После вызова передаёт длительность в Observer, если g его реализует.
func Guard[T any](ctx context.Context, g Governor, req *Request, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if g == nil {
		g = Noop{}
	}

	for {
		d, err := g.Check(ctx, req)
		if err != nil {
			return zero, err
		}
		telemetry.RecordDecision(d.Strategy, d.Limited)
		if !d.Limited {
			break
		}
		if err := g.Throttle(ctx, d.Wait); err != nil {
			return zero, err
		}
	}

	start := time.Now()
	out, err := fn(ctx)
	if o, ok := g.(Observer); ok {
		o.Observe(time.Since(start))
	}
	return out, err
}

// Admitted оборачивает governor, первый вызов через который уже допущен
// снаружи. Первый Check не учитывается повторно, следующие передаются g.
func Admitted(g Governor) Governor {
	if g == nil {
		g = Noop{}
	}
	return &admitted{g: g}
}

type admitted struct {
	g    Governor
	used atomic.Bool
}

func (a *admitted) Check(ctx context.Context, req *Request) (Decision, error) {
	if a.used.CompareAndSwap(false, true) {
		return Decision{Strategy: StrategyAdmitted}, nil
	}
	return a.g.Check(ctx, req)
}

func (a *admitted) Throttle(ctx context.Context, wait time.Duration) error {
	return a.g.Throttle(ctx, wait)
}

func (a *admitted) Observe(took time.Duration) {
	if o, ok := a.g.(Observer); ok {
		o.Observe(took)
	}
}

// sleep — ожидание с учётом отмены контекста.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// limited собирает Decision для отказа.
func limited(strategy string, wait time.Duration, details map[string]any) Decision {
	if wait < 0 {
		wait = 0
	}
	return Decision{Limited: true, Wait: wait, Strategy: strategy, Details: details}
}
