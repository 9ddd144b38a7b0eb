package actions

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shaiso/Conveyor/internal/ratelimit"
)

// Registry — реестр actions по имени.
//
// Потокобезопасен. Action в реестре не изменяется: AttachGovernor
// подменяет запись копией.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	actions map[string]*Action
}

// NewRegistry создаёт пустой реестр.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger,
		actions: make(map[string]*Action),
	}
}

// Register регистрирует action и возвращает handler без изменений.
//
// Если action с таким именем уже существует, он перезаписывается.
// Дескриптор с пустым именем или nil handler не регистрируется, ошибка пишется в лог.
func (r *Registry) Register(desc Descriptor, handler Handler) Handler {
	if desc.Name == "" || handler == nil {
		r.logger.Error("action not registered",
			"error", fmt.Errorf("%w: name=%q handler_nil=%t", ErrInvalidAction, desc.Name, handler == nil),
		)
		return handler
	}

	governor := desc.Governor
	if governor == nil {
		governor = ratelimit.Noop{}
	}

	action := &Action{
		Name:        desc.Name,
		Description: desc.Description,
		Handler:     handler,
		Payload:     desc.Payload,
		Account:     desc.Account,
		Params:      NewParamSet(desc.Params...),
		Governor:    governor,
	}

	r.mu.Lock()
	_, exists := r.actions[desc.Name]
	r.actions[desc.Name] = action
	r.mu.Unlock()

	if exists {
		r.logger.Warn("action overwritten", "action", desc.Name)
	} else {
		r.logger.Debug("action registered", "action", desc.Name, "params", action.Params.String())
	}

	return handler
}

// Lookup возвращает action по имени.
// Возвращает ErrActionNotFound, если action не найден.
func (r *Registry) Lookup(name string) (*Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActionNotFound, name)
	}
	return action, nil
}

// Has проверяет, зарегистрирован ли action.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.actions[name]
	return ok
}

// AttachGovernor назначает governor зарегистрированному action.
func (r *Registry) AttachGovernor(name string, g ratelimit.Governor) error {
	if g == nil {
		g = ratelimit.Noop{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrActionNotFound, name)
	}

	updated := *action
	updated.Governor = g
	r.actions[name] = &updated
	return nil
}

// Names возвращает отсортированный список имён.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Actions возвращает все actions, отсортированные по имени.
func (r *Registry) Actions() []*Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Action, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len возвращает количество зарегистрированных actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}
