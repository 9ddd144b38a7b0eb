package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Dynamic — governor, стратегию которого можно заменить во время работы.
//
// Состояние старой стратегии при Update не переносится.
type Dynamic struct {
	opts []Option

	mu      sync.RWMutex
	cfg     Config
	current Governor
}

// NewDynamic создаёт Dynamic с начальной конфигурацией.
func NewDynamic(cfg Config, opts ...Option) (*Dynamic, error) {
	g, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Dynamic{opts: opts, cfg: cfg, current: g}, nil
}

// Update пересоздаёт стратегию. При ошибке текущая стратегия остаётся.
func (d *Dynamic) Update(cfg Config) error {
	g, err := New(cfg, d.opts...)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.cfg = cfg
	d.current = g
	d.mu.Unlock()
	return nil
}

// Config возвращает текущую конфигурацию.
func (d *Dynamic) Config() Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Check делегирует текущей стратегии.
func (d *Dynamic) Check(ctx context.Context, req *Request) (Decision, error) {
	return d.load().Check(ctx, req)
}

// Throttle делегирует текущей стратегии.
func (d *Dynamic) Throttle(ctx context.Context, wait time.Duration) error {
	return d.load().Throttle(ctx, wait)
}

// Observe передаёт длительность текущей стратегии, если она её учитывает.
func (d *Dynamic) Observe(took time.Duration) {
	if o, ok := d.load().(Observer); ok {
		o.Observe(took)
	}
}

func (d *Dynamic) load() Governor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}
