package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/contract"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/ratelimit"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Dispatcher выполняет одну task: проверки, вызов обработчика, нормализация.
type Dispatcher struct {
	registry *actions.Registry
	governor ratelimit.Governor
	provider string
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// DispatcherConfig — конфигурация Dispatcher.
type DispatcherConfig struct {
	Registry *actions.Registry

	// Governor — provider-wide governor (опционально; если nil — Noop).
	Governor ratelimit.Governor

	// Provider — имя провайдера для нормализованного ответа.
	Provider string

	// Location — таймзона local_time (опционально; если nil — UTC).
	Location *time.Location

	// Now — источник времени (опционально, для тестов).
	Now func() time.Time

	Logger *slog.Logger
}

// NewDispatcher создаёт Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	governor := cfg.Governor
	if governor == nil {
		governor = ratelimit.Noop{}
	}

	location := cfg.Location
	if location == nil {
		location = time.UTC
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = actions.NewRegistry(logger)
	}

	return &Dispatcher{
		registry: registry,
		governor: governor,
		provider: cfg.Provider,
		location: location,
		now:      now,
		logger:   logger,
	}
}

// Governor возвращает provider-wide governor.
func (d *Dispatcher) Governor() ratelimit.Governor {
	return d.governor
}

// Dispatch обрабатывает task и возвращает нормализованный Response.
// Никогда не возвращает nil и не паникует.
func (d *Dispatcher) Dispatch(ctx context.Context, task *domain.Task) *domain.Response {
	logger := telemetry.WithTask(d.logger, task.ID, task.Action)

	resp := d.dispatch(ctx, task, logger)
	return d.normalize(task.Action, resp)
}

// dispatch — шаги 1–7. Возвращает ненормализованный Response.
func (d *Dispatcher) dispatch(ctx context.Context, task *domain.Task, logger *slog.Logger) *domain.Response {
	// 1. Provider-wide rate limit
	if resp := d.admit(ctx, d.governor, &ratelimit.Request{Scope: ratelimit.ScopeProvider, Action: task.Action}, logger); resp != nil {
		return resp
	}

	// 2. Lookup
	action, err := d.registry.Lookup(task.Action)
	if err != nil {
		names := d.registry.Names()
		logger.Warn("action not found", "available", names)
		return domain.Error(
			fmt.Sprintf("Action '%s' not found. Available actions: %s", task.Action, strings.Join(names, ", ")),
			map[string]any{"available_actions": names},
		)
	}

	payload, err := task.DecodePayload()
	if err != nil {
		logger.Error("malformed task payload", "error", err)
		return domain.Error(fmt.Sprintf("Invalid task payload: %v", err), nil)
	}

	account, err := task.DecodeAccount()
	if err != nil {
		logger.Error("malformed task account", "error", err)
		return domain.Error(fmt.Sprintf("Invalid task account: %v", err), nil)
	}

	// 3. Rate limit action
	req := &ratelimit.Request{Scope: ratelimit.ScopeAction, Action: action.Name, Payload: payload}
	if account != nil {
		req.Account = account
	}
	if resp := d.admit(ctx, action.Governor, req, logger); resp != nil {
		return resp
	}

	// 4. Контракты
	var validPayload any = payload
	if action.Payload != nil {
		validPayload, err = action.Payload.Validate(payload)
		if err != nil {
			logger.Warn("payload validation failed", "error", err)
			return validationFailed("payload", action.Name, err)
		}
	}

	var validAccount any
	if account != nil {
		validAccount = account
	}
	if action.Account != nil {
		if account == nil {
			logger.Warn("account data missing")
			return domain.Error(fmt.Sprintf("Account data is required for action '%s'", action.Name), nil)
		}
		validAccount, err = action.Account.Validate(account)
		if err != nil {
			logger.Warn("account validation failed", "error", err)
			return validationFailed("account", action.Name, err)
		}
	}

	// 5. Параметры
	now := d.now()
	params := action.Bind(actions.Params{
		Payload:   validPayload,
		Account:   validAccount,
		Provider:  d.provider,
		LocalTime: now.In(d.location),
		UTCTime:   now.UTC(),
		Timezone:  d.location.String(),
		Governor:  ratelimit.Admitted(action.Governor),
	})

	// 6. Вызов
	resp, err := d.invoke(ctx, action, params, logger)
	if err != nil {
		logger.Error("action failed", "error", err)
		return domain.Error(fmt.Sprintf("Action '%s' failed: %v", action.Name, err), nil)
	}

	// 7. Проверка результата
	if err := resp.Validate(); err != nil {
		msg := fmt.Sprintf("Action %s must return a standard response, got %s", action.Name, describeResponse(resp))
		logger.Error(msg, "error", err)
		return domain.Error(msg, map[string]any{
			"value":  resp,
			"reason": err.Error(),
		})
	}

	return resp
}

// admit проверяет governor. Возвращает limit-ответ или nil, если вызов допущен.
// Ошибка governor'а не блокирует task.
func (d *Dispatcher) admit(ctx context.Context, g ratelimit.Governor, req *ratelimit.Request, logger *slog.Logger) *domain.Response {
	scope := req.Scope
	decision, err := g.Check(ctx, req)
	if err != nil {
		logger.Warn("rate limit check failed, allowing call", "scope", scope, "error", err)
		return nil
	}
	telemetry.RecordDecision(decision.Strategy, decision.Limited)

	if !decision.Limited {
		return nil
	}

	logger.Warn("rate limited",
		"scope", scope,
		"strategy", decision.Strategy,
		"wait", decision.Wait,
	)

	msg := fmt.Sprintf("Rate limit exceeded, retry in %s", decision.Wait.Round(time.Millisecond))
	if scope == ratelimit.ScopeAction {
		msg = fmt.Sprintf("Rate limit exceeded for action '%s', retry in %s", req.Action, decision.Wait.Round(time.Millisecond))
	}

	return domain.Limit(msg, map[string]any{
		"wait_time": decision.Wait.Seconds(),
		"scope":     scope,
		"strategy":  decision.Strategy,
		"details":   decision.Details,
	})
}

// invoke вызывает обработчик, превращая panic в ошибку.
func (d *Dispatcher) invoke(ctx context.Context, action *actions.Action, params actions.Params, logger *slog.Logger) (resp *domain.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("action panicked", "panic", r, "stack", string(debug.Stack()))
			resp, err = nil, fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()

	return action.Handler(ctx, params)
}

// validationFailed строит error-ответ с перечнем нарушений контракта.
func validationFailed(what, action string, err error) *domain.Response {
	issues := []contract.Issue{{Message: err.Error()}}
	if verr, ok := contract.AsValidationError(err); ok {
		issues = verr.Issues
	}
	return domain.Error(
		fmt.Sprintf("Invalid %s for action '%s': %v", what, action, err),
		map[string]any{"errors": issues},
	)
}

// describeResponse описывает некорректный ответ обработчика.
func describeResponse(resp *domain.Response) string {
	if resp == nil {
		return "nil"
	}
	return fmt.Sprintf("%T with status %q", resp, resp.Status)
}
