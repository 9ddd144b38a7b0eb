package actions

import (
	"context"
	"strings"
	"time"

	"github.com/shaiso/Conveyor/internal/contract"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/ratelimit"
)

// Handler — обработчик action.
//
// Возвращённая ошибка и panic превращаются в error envelope на границе dispatch.
type Handler func(ctx context.Context, p Params) (*domain.Response, error)

// Param — параметр, который может запросить обработчик.
type Param uint16

const (
	ParamPayload Param = 1 << iota
	ParamAccount
	ParamProvider
	ParamLocalTime
	ParamUTCTime
	ParamTimezone
	ParamGovernor

	// ParamAll — открытый набор параметров.
	ParamAll = ParamPayload | ParamAccount | ParamProvider | ParamLocalTime |
		ParamUTCTime | ParamTimezone | ParamGovernor
)

var paramNames = []struct {
	p    Param
	name string
}{
	{ParamPayload, "payload"},
	{ParamAccount, "account"},
	{ParamProvider, "provider"},
	{ParamLocalTime, "local_time"},
	{ParamUTCTime, "utc_time"},
	{ParamTimezone, "timezone"},
	{ParamGovernor, "governor"},
}

// ParamSet — битовая маска объявленных параметров.
type ParamSet uint16

// NewParamSet сворачивает список параметров в маску.
func NewParamSet(params ...Param) ParamSet {
	var s ParamSet
	for _, p := range params {
		s |= ParamSet(p)
	}
	return s
}

// Has проверяет, объявлен ли параметр.
func (s ParamSet) Has(p Param) bool {
	return s&ParamSet(p) == ParamSet(p)
}

// String возвращает имена параметров через запятую.
func (s ParamSet) String() string {
	if s == ParamSet(ParamAll) {
		return "all"
	}
	var names []string
	for _, pn := range paramNames {
		if s.Has(pn.p) {
			names = append(names, pn.name)
		}
	}
	return strings.Join(names, ",")
}

// Params — параметры вызова обработчика.
// Заполнены только поля, объявленные в Descriptor.Params.
type Params struct {
	// Payload — провалидированный payload (результат контракта или decoded JSON).
	Payload any

	// Account — провалидированные данные аккаунта, nil если их нет.
	Account any

	Provider  string
	LocalTime time.Time
	UTCTime   time.Time
	Timezone  string

	// Governor — governor action, для ratelimit.Guard внутри обработчика.
	Governor ratelimit.Governor

	set ParamSet
}

// Has проверяет, передан ли параметр обработчику.
func (p Params) Has(param Param) bool {
	return p.set.Has(param)
}

// Descriptor — описание action при регистрации.
type Descriptor struct {
	Name        string
	Description string

	// Payload — контракт payload. nil — payload передаётся как есть.
	Payload contract.Contract

	// Account — контракт account. Если задан, данные аккаунта обязательны.
	Account contract.Contract

	// Params — параметры обработчика. Пустой список — обработчик без параметров.
	Params []Param

	// Governor — rate-limit governor action. nil — Noop.
	Governor ratelimit.Governor
}

// Action — зарегистрированный action. Не изменяется после регистрации.
type Action struct {
	Name        string
	Description string
	Handler     Handler
	Payload     contract.Contract
	Account     contract.Contract
	Params      ParamSet
	Governor    ratelimit.Governor
}

// Bind оставляет в all только параметры, объявленные action.
func (a *Action) Bind(all Params) Params {
	out := Params{set: a.Params}
	if a.Params.Has(ParamPayload) {
		out.Payload = all.Payload
	}
	if a.Params.Has(ParamAccount) {
		out.Account = all.Account
	}
	if a.Params.Has(ParamProvider) {
		out.Provider = all.Provider
	}
	if a.Params.Has(ParamLocalTime) {
		out.LocalTime = all.LocalTime
	}
	if a.Params.Has(ParamUTCTime) {
		out.UTCTime = all.UTCTime
	}
	if a.Params.Has(ParamTimezone) {
		out.Timezone = all.Timezone
	}
	if a.Params.Has(ParamGovernor) {
		out.Governor = all.Governor
	}
	return out
}
