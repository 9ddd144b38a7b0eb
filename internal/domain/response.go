package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidResponse — Response не соответствует контракту.
var ErrInvalidResponse = errors.New("invalid response")

// Response — нормализованный результат обработки task.
//
// Любой путь через pipeline заканчивается ровно одним Response,
// который сериализуется и отправляется в Hub.
type Response struct {
	// Status — итог обработки.
	Status Status `json:"status"`

	// Message — человекочитаемое описание. Обязательно, если Status != success.
	Message string `json:"message"`

	// Data — произвольные структурированные данные.
	Data any `json:"data,omitempty"`
}

// Success создаёт успешный Response.
func Success(message string, data any) *Response {
	return &Response{Status: StatusSuccess, Message: message, Data: data}
}

// Warning создаёт Response с предупреждением.
func Warning(message string, data any) *Response {
	return &Response{Status: StatusWarning, Message: message, Data: data}
}

// Error создаёт Response с ошибкой.
func Error(message string, data any) *Response {
	return &Response{Status: StatusError, Message: message, Data: data}
}

// Errorf создаёт Response с ошибкой и форматированным сообщением.
func Errorf(format string, args ...any) *Response {
	return Error(fmt.Sprintf(format, args...), nil)
}

// Limit создаёт Response о срабатывании rate limit.
func Limit(message string, data any) *Response {
	return &Response{Status: StatusLimit, Message: message, Data: data}
}

// Validate проверяет контракт Response.
func (r *Response) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil response", ErrInvalidResponse)
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidResponse, r.Status)
	}
	if r.Status != StatusSuccess && r.Message == "" {
		return fmt.Errorf("%w: message is required for status %q", ErrInvalidResponse, r.Status)
	}
	return nil
}

// IsSuccess возвращает true для успешного Response.
func (r *Response) IsSuccess() bool {
	return r != nil && r.Status == StatusSuccess
}
