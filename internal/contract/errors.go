package contract

import (
	"errors"
	"strings"
)

// ErrInvalidContract — схема не может быть построена (например, невалидный JSON Schema).
var ErrInvalidContract = errors.New("invalid contract")

// Issue — одно нарушение контракта.
type Issue struct {
	// Path — путь до поля через точку. Пустой путь — корень.
	Path string `json:"path"`

	// Message — причина.
	Message string `json:"message"`
}

// String возвращает "path: message".
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// ValidationError — данные не прошли проверку контракта.
type ValidationError struct {
	Issues []Issue
}

// Error объединяет все Issue в одну строку.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Paths возвращает пути всех нарушений.
func (e *ValidationError) Paths() []string {
	paths := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		paths[i] = issue.Path
	}
	return paths
}

// AsValidationError извлекает *ValidationError из цепочки ошибок.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// issues копит нарушения во время обхода схемы.
type issues []Issue

func (is *issues) add(path, msg string) {
	*is = append(*is, Issue{Path: path, Message: msg})
}

func (is issues) err() error {
	if len(is) == 0 {
		return nil
	}
	return &ValidationError{Issues: is}
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}
