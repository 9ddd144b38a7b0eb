package catalog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/ratelimit"
)

// UserStore — хранилище пользователей (repo.UserRepo).
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, limit int) ([]domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Deps — зависимости встроенных actions.
type Deps struct {
	// Users — хранилище для users.* (опционально).
	Users UserStore

	// HTTPClient — клиент для http.request (default: http.DefaultClient).
	HTTPClient *http.Client

	// HTTPGovernor — rate limit для http.request (опционально).
	HTTPGovernor ratelimit.Governor

	Logger *slog.Logger
}

// Register добавляет встроенные actions в реестр.
func Register(reg *actions.Registry, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}

	registerBasic(reg)
	registerTemplate(reg)
	registerHTTP(reg, deps.HTTPClient, deps.HTTPGovernor)

	if deps.Users != nil {
		registerUsers(reg, deps.Users, deps.Logger)
	} else {
		deps.Logger.Info("users store not configured, users.* actions disabled")
	}
}
