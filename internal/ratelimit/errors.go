package ratelimit

import "errors"

var (
	// ErrUnknownStrategy — неизвестное имя стратегии в Config.
	ErrUnknownStrategy = errors.New("unknown rate limit strategy")

	// ErrInvalidConfig — недопустимые параметры стратегии.
	ErrInvalidConfig = errors.New("invalid rate limit config")
)
