package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/contract"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/repo"
)

// CreateUserPayload — payload users.create.
type CreateUserPayload struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Email string `json:"email" validate:"required,email"`
	Age   int    `json:"age" validate:"gte=0,lte=150"`
}

// UserIDPayload — payload users.get и users.delete.
type UserIDPayload struct {
	ID string `json:"id" validate:"required,uuid"`
}

// ListUsersPayload — payload users.list.
type ListUsersPayload struct {
	Limit int `json:"limit" validate:"gte=0,lte=1000"`
}

type usersActions struct {
	store  UserStore
	logger *slog.Logger
	now    func() time.Time
}

func registerUsers(reg *actions.Registry, store UserStore, logger *slog.Logger) {
	u := &usersActions{store: store, logger: logger, now: time.Now}

	reg.Register(actions.Descriptor{
		Name:        "users.create",
		Description: "Create a user",
		Payload:     contract.Struct[CreateUserPayload](),
		Params:      []actions.Param{actions.ParamPayload},
	}, u.create)

	reg.Register(actions.Descriptor{
		Name:        "users.get",
		Description: "Get a user by id",
		Payload:     contract.Struct[UserIDPayload](),
		Params:      []actions.Param{actions.ParamPayload},
	}, u.get)

	reg.Register(actions.Descriptor{
		Name:        "users.list",
		Description: "List users, newest first",
		Payload:     contract.Struct[ListUsersPayload](),
		Params:      []actions.Param{actions.ParamPayload},
	}, u.list)

	reg.Register(actions.Descriptor{
		Name:        "users.delete",
		Description: "Delete a user by id",
		Payload:     contract.Struct[UserIDPayload](),
		Params:      []actions.Param{actions.ParamPayload},
	}, u.delete)
}

func (u *usersActions) create(ctx context.Context, p actions.Params) (*domain.Response, error) {
	in := p.Payload.(*CreateUserPayload)

	user := &domain.User{
		ID:        uuid.New(),
		Name:      in.Name,
		Email:     in.Email,
		Age:       in.Age,
		CreatedAt: u.now().UTC(),
	}

	err := u.store.Create(ctx, user)
	if errors.Is(err, repo.ErrAlreadyExists) {
		return domain.Error(fmt.Sprintf("User with email %s already exists", in.Email), nil), nil
	}
	if err != nil {
		return nil, err
	}

	u.logger.Info("user created", "user_id", user.ID)
	return domain.Success("User created", user), nil
}

func (u *usersActions) get(ctx context.Context, p actions.Params) (*domain.Response, error) {
	id := uuid.MustParse(p.Payload.(*UserIDPayload).ID)

	user, err := u.store.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Error(fmt.Sprintf("User %s not found", id), nil), nil
	}
	if err != nil {
		return nil, err
	}
	return domain.Success("", user), nil
}

func (u *usersActions) list(ctx context.Context, p actions.Params) (*domain.Response, error) {
	users, err := u.store.List(ctx, p.Payload.(*ListUsersPayload).Limit)
	if err != nil {
		return nil, err
	}
	return domain.Success("", map[string]any{
		"users": users,
		"count": len(users),
	}), nil
}

func (u *usersActions) delete(ctx context.Context, p actions.Params) (*domain.Response, error) {
	id := uuid.MustParse(p.Payload.(*UserIDPayload).ID)

	err := u.store.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Warning(fmt.Sprintf("User %s not found, nothing to delete", id), nil), nil
	}
	if err != nil {
		return nil, err
	}

	u.logger.Info("user deleted", "user_id", id)
	return domain.Success("User deleted", map[string]any{"id": id}), nil
}
