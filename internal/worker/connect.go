package worker

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/hub"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// connect подключается к Hub с exponential backoff.
//
// Паузы: initialBackoff, x2, не больше maxBackoff. Когда серия попыток
// исчерпывает connectBudget, она начинается заново. Возвращает ошибку
// только при отмене ctx или отказе в аутентификации.
func (w *Worker) connect(ctx context.Context) (hub.Client, error) {
	w.setState(domain.ConnStateConnecting)

	for {
		var (
			client  hub.Client
			attempt int
		)

		operation := func() error {
			attempt++
			c, err := w.dial(ctx)
			telemetry.RecordConnectAttempt(err)
			if err != nil {
				if errors.Is(err, hub.ErrUnauthenticated) {
					return backoff.Permanent(err)
				}
				return err
			}
			client = c
			return nil
		}

		notify := func(err error, next time.Duration) {
			w.logger.Info("trying to connect to hub",
				"attempt", attempt,
				"retry_in", next,
				"error", err,
			)
		}

		err := backoff.RetryNotify(operation, backoff.WithContext(w.newBackOff(), ctx), notify)
		if err == nil {
			w.setState(domain.ConnStateConnected)
			w.logger.Info("successfully connected to hub", "attempts", attempt)
			return client, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, hub.ErrUnauthenticated) {
			return nil, err
		}

		w.logger.Warn("connect budget exhausted, restarting backoff",
			"budget", w.connectBudget,
			"attempts", attempt,
			"error", err,
		)
	}
}

// newBackOff создаёт серию пауз для одной последовательности подключений.
func (w *Worker) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.initialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = w.maxBackoff
	b.MaxElapsedTime = w.connectBudget
	b.Reset()
	return b
}
