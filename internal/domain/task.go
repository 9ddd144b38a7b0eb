package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ActionRateLimited — служебный action, которым Hub сигнализирует о
// превышении лимита на своей стороне. Приходит вместе с пустым ID.
const ActionRateLimited = "rate_limited"

// ErrMalformedTask — payload или account не являются JSON-объектом.
var ErrMalformedTask = errors.New("malformed task")

// Task — единица работы, полученная от Hub.
//
// Task живёт ровно один цикл обработки: получен → обработан → результат
// отправлен. Повторная доставка — ответственность Hub, воркер task не хранит.
type Task struct {
	// ID — непрозрачный идентификатор. Пустой ID означает «работы нет».
	ID string `json:"task_id"`

	// Action — имя action в реестре.
	Action string `json:"action"`

	// Payload — входные данные (UTF-8 JSON объект).
	Payload []byte `json:"payload,omitempty"`

	// Account — учётные данные/контекст (UTF-8 JSON объект), может отсутствовать.
	Account []byte `json:"account,omitempty"`
}

// IsEmpty возвращает true, если Hub не выдал работу.
func (t *Task) IsEmpty() bool {
	return t == nil || t.ID == ""
}

// IsRateLimited возвращает true для служебного task «Hub ограничил нас».
func (t *Task) IsRateLimited() bool {
	return t != nil && t.ID == "" && t.Action == ActionRateLimited
}

// HasAccount проверяет, переданы ли данные account.
func (t *Task) HasAccount() bool {
	raw := bytes.TrimSpace(t.Account)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// DecodePayload разбирает payload в map.
// Пустой payload трактуется как пустой объект.
func (t *Task) DecodePayload() (map[string]any, error) {
	return decodeObject("payload", t.Payload)
}

// DecodeAccount разбирает account в map.
// Возвращает nil без ошибки, если account не передан.
func (t *Task) DecodeAccount() (map[string]any, error) {
	if !t.HasAccount() {
		return nil, nil
	}
	return decodeObject("account", t.Account)
}

func decodeObject(field string, raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrMalformedTask, field, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// TaskResult — результат обработки task, отправляемый в Hub.
type TaskResult struct {
	ID        string `json:"task_id"`
	Provider  string `json:"provider"`
	AuthToken string `json:"auth_token"`
	Action    string `json:"action"`
	Status    Status `json:"status"`
	Payload   []byte `json:"payload,omitempty"`
	Account   []byte `json:"account,omitempty"`

	// Result — сериализованный Response.
	Result []byte `json:"result"`
}
