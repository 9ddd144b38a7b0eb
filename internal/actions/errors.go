package actions

import "errors"

var (
	// ErrActionNotFound — action не зарегистрирован.
	ErrActionNotFound = errors.New("action not found")

	// ErrInvalidAction — некорректный дескриптор (пустое имя, nil handler).
	ErrInvalidAction = errors.New("invalid action")
)
