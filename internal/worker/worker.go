package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/hub"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Default configuration values.
const (
	defaultExecutionTimeout = time.Second
	defaultConnectBudget    = 300 * time.Second
	defaultInitialBackoff   = time.Second
	defaultMaxBackoff       = 60 * time.Second
	defaultSubmitTimeout    = 30 * time.Second
	defaultPollTimeout      = 30 * time.Second
)

// Worker — pipeline: подключение к Hub, poll loop, обработка tasks.
type Worker struct {
	id         string
	dial       hub.Dialer
	dispatcher *Dispatcher

	provider  string
	authToken string

	executionTimeout time.Duration
	connectBudget    time.Duration
	initialBackoff   time.Duration
	maxBackoff       time.Duration
	submitTimeout    time.Duration
	pollTimeout      time.Duration

	logger *slog.Logger
	state  atomic.Int32
}

// Config — конфигурация Worker.
type Config struct {
	// Dial — подключение к Hub (обязательно).
	Dial hub.Dialer

	// Dispatcher — обработка task (обязательно).
	Dispatcher *Dispatcher

	// Provider и AuthToken — идентификация в Hub (обязательно).
	Provider  string
	AuthToken string

	// ExecutionTimeout — пауза при отсутствии работы и после ошибок (default: 1s).
	ExecutionTimeout time.Duration

	// ConnectBudget — бюджет одной серии попыток подключения (default: 300s).
	ConnectBudget time.Duration

	// InitialBackoff и MaxBackoff — начальная и максимальная пауза между попытками
	// подключения (default: 1s и 60s).
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// SubmitTimeout — таймаут отправки результата (default: 30s).
	SubmitTimeout time.Duration

	// PollTimeout — таймаут одного запроса GetTask (default: 30s).
	// По истечении соединение считается потерянным и пересоздаётся.
	PollTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) (*Worker, error) {
	if cfg.Dial == nil || cfg.Dispatcher == nil {
		return nil, fmt.Errorf("%w: dial and dispatcher are required", ErrInvalidConfig)
	}
	if cfg.Provider == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("%w: provider and auth token are required", ErrInvalidConfig)
	}

	w := &Worker{
		id:               uuid.New().String(),
		dial:             cfg.Dial,
		dispatcher:       cfg.Dispatcher,
		provider:         cfg.Provider,
		authToken:        cfg.AuthToken,
		executionTimeout: orDefault(cfg.ExecutionTimeout, defaultExecutionTimeout),
		connectBudget:    orDefault(cfg.ConnectBudget, defaultConnectBudget),
		initialBackoff:   orDefault(cfg.InitialBackoff, defaultInitialBackoff),
		maxBackoff:       orDefault(cfg.MaxBackoff, defaultMaxBackoff),
		submitTimeout:    orDefault(cfg.SubmitTimeout, defaultSubmitTimeout),
		pollTimeout:      orDefault(cfg.PollTimeout, defaultPollTimeout),
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	w.logger = telemetry.WithWorkerID(logger, w.id)

	return w, nil
}

// ID возвращает идентификатор экземпляра воркера.
func (w *Worker) ID() string {
	return w.id
}

// State возвращает текущее состояние pipeline.
func (w *Worker) State() domain.ConnState {
	return domain.ConnState(w.state.Load())
}

func (w *Worker) setState(s domain.ConnState) {
	if domain.ConnState(w.state.Swap(int32(s))) != s {
		telemetry.ConnectionState.Set(float64(s))
		w.logger.Debug("state changed", "state", s.String())
	}
}

// Run выполняет pipeline до отмены ctx.
//
// Возвращает nil при отмене ctx и ErrUnauthenticated, если Hub отклонил токен.
func (w *Worker) Run(ctx context.Context) error {
	defer w.setState(domain.ConnStateDisconnected)

	w.logger.Info("starting worker",
		"provider", w.provider,
		"execution_timeout", w.executionTimeout,
		"connect_budget", w.connectBudget,
	)

	for {
		if ctx.Err() != nil {
			w.logger.Info("worker stopped")
			return nil
		}

		client, err := w.connect(ctx)
		if err != nil {
			if errors.Is(err, hub.ErrUnauthenticated) {
				w.logger.Error("provider authentication error", "error", err)
				return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
			}
			continue
		}

		err = w.serve(ctx, client)
		if cerr := client.Close(); cerr != nil {
			w.logger.Debug("close hub client", "error", cerr)
		}
		w.setState(domain.ConnStateDisconnected)

		switch {
		case errors.Is(err, ErrUnauthenticated):
			return err
		case ctx.Err() != nil:
			w.logger.Info("worker stopped")
			return nil
		default:
			w.logger.Warn("hub connection lost, reconnecting", "error", err)
		}
	}
}

// serve — poll loop на установленном соединении.
// Возвращает ошибку, после которой соединение нужно пересоздать или остановиться.
func (w *Worker) serve(ctx context.Context, client hub.Client) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		w.setState(domain.ConnStatePolling)

		task, err := w.poll(ctx, client)
		if err != nil {
			switch {
			case errors.Is(err, hub.ErrUnauthenticated):
				w.logger.Error("provider authentication error", "error", err)
				return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
			case errors.Is(err, hub.ErrNotFound):
				w.logger.Debug("no task available, waiting")
				w.idle(ctx, w.executionTimeout)
				continue
			case errors.Is(err, hub.ErrUnavailable):
				return err
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				w.logger.Error("get task failed", "error", err)
				w.idle(ctx, w.executionTimeout)
				continue
			}
		}

		if task.IsRateLimited() {
			w.throttleHub(ctx, task)
			continue
		}
		if task.IsEmpty() {
			w.idle(ctx, w.executionTimeout)
			continue
		}

		w.setState(domain.ConnStateProcessing)

		// Task в обработке доводится до конца и при остановке.
		if err := w.process(context.WithoutCancel(ctx), client, task); err != nil {
			switch {
			case errors.Is(err, hub.ErrUnauthenticated):
				return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
			case errors.Is(err, hub.ErrUnavailable):
				return err
			default:
				w.logger.Error("task result not submitted", "task_id", task.ID, "error", err)
				w.idle(ctx, w.executionTimeout)
			}
		}
	}
}

// poll запрашивает task с ограничением по времени.
// Зависший запрос возвращает hub.ErrUnavailable.
func (w *Worker) poll(ctx context.Context, client hub.Client) (*domain.Task, error) {
	pollCtx, cancel := context.WithTimeout(ctx, w.pollTimeout)
	defer cancel()

	task, err := client.GetTask(pollCtx, w.provider, w.authToken)
	if err != nil && ctx.Err() == nil && errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: get task timed out after %s", hub.ErrUnavailable, w.pollTimeout)
	}
	return task, err
}

// process выполняет task и отправляет результат.
func (w *Worker) process(ctx context.Context, client hub.Client, task *domain.Task) error {
	start := time.Now()
	logger := telemetry.WithTask(w.logger, task.ID, task.Action)
	logger.Info("task received")

	resp := w.dispatcher.Dispatch(ctx, task)

	result, err := json.Marshal(resp)
	if err != nil {
		logger.Error("response is not serializable", "error", err)
		resp = w.dispatcher.normalize(task.Action, domain.Error(
			fmt.Sprintf("Action %s returned data that cannot be serialized: %v", task.Action, err), nil))
		result, _ = json.Marshal(resp)
	}

	submitCtx, cancel := context.WithTimeout(ctx, w.submitTimeout)
	defer cancel()

	err = client.SubmitTaskResult(submitCtx, &domain.TaskResult{
		ID:        task.ID,
		Provider:  w.provider,
		AuthToken: w.authToken,
		Action:    task.Action,
		Status:    resp.Status,
		Payload:   task.Payload,
		Account:   task.Account,
		Result:    result,
	})
	took := time.Since(start)
	telemetry.RecordTask(task.Action, resp.Status.String(), took)

	if err != nil {
		return fmt.Errorf("submit task result: %w", err)
	}

	logger.Info("task completed",
		"status", resp.Status,
		"duration_ms", took.Milliseconds(),
	)
	return nil
}

// throttleHub выдерживает паузу, запрошенную Hub служебным task rate_limited.
func (w *Worker) throttleHub(ctx context.Context, task *domain.Task) {
	wait := w.executionTimeout

	var payload struct {
		WaitTime *float64 `json:"wait_time"`
	}
	if err := json.Unmarshal(task.Payload, &payload); err == nil && payload.WaitTime != nil && *payload.WaitTime > 0 {
		wait = time.Duration(*payload.WaitTime * float64(time.Second))
	}

	w.logger.Warn("hub rate limit exceeded, waiting", "wait", wait)
	_ = w.dispatcher.Governor().Throttle(ctx, wait)
}

// idle ждёт d или отмены ctx.
func (w *Worker) idle(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func orDefault(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
