// Package actions содержит реестр actions провайдера.
//
// # Обзор
//
// Action — именованная операция, которую воркер умеет выполнять:
//   - Handler — функция-обработчик
//   - Payload / Account — контракты входных данных (contract.Contract, опционально)
//   - Params — явный список параметров, которые нужны обработчику
//   - Governor — rate-limit governor action (опционально, по умолчанию Noop)
//
// # Регистрация
//
// Регистрация — явный вызов при старте процесса:
//
//	reg := actions.NewRegistry(logger)
//	reg.Register(actions.Descriptor{
//	    Name:        "greet",
//	    Description: "Returns a greeting",
//	    Payload:     contract.Object(contract.Required("name", contract.String())),
//	    Params:      []actions.Param{actions.ParamPayload, actions.ParamLocalTime},
//	}, greet)
//
// Повторная регистрация с тем же именем перезаписывает предыдущую (пишется WARN).
//
// # Параметры
//
// Обработчик получает Params, в которых заполнены только объявленные поля.
// ParamAll — открытый набор: обработчик получает всё.
//
//	func greet(ctx context.Context, p actions.Params) (*domain.Response, error) {
//	    payload := p.Payload.(map[string]any)
//	    ...
//	}
//
// Список параметров сворачивается в битовую маску один раз при регистрации.
package actions
