package worker

import "errors"

// Ошибки воркера.
var (
	// ErrUnauthenticated — Hub отклонил токен провайдера. Run завершается.
	ErrUnauthenticated = errors.New("provider authentication failed")

	// ErrInvalidConfig — в Config не задан обязательный параметр.
	ErrInvalidConfig = errors.New("invalid worker config")

	// ErrHandlerPanic — обработчик action запаниковал.
	ErrHandlerPanic = errors.New("action handler panicked")
)
