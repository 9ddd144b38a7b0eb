package cli

import (
	"log/slog"
	"time"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/ratelimit"
	"github.com/shaiso/Conveyor/internal/worker"
)

// Env — окружение локального выполнения actions.
type Env struct {
	Registry *actions.Registry
	Governor ratelimit.Governor
	Provider string
	Location *time.Location
	Logger   *slog.Logger
}

// Dispatcher создаёт Dispatcher поверх окружения.
func (e *Env) Dispatcher() *worker.Dispatcher {
	return worker.NewDispatcher(worker.DispatcherConfig{
		Registry: e.Registry,
		Governor: e.Governor,
		Provider: e.Provider,
		Location: e.Location,
		Logger:   e.Logger,
	})
}
