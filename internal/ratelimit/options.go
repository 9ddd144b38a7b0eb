package ratelimit

import (
	"log/slog"
	"time"
)

// Option настраивает стратегию.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger задаёт логгер для предупреждений стратегии.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
