// Package cli реализует инструмент командной строки Conveyor.
//
// # Обзор
//
// CLI работает локально, без Hub: показывает зарегистрированные actions,
// выполняет task через тот же Dispatcher, что и воркер, и проверяет
// настройки rate limit.
//
// # Ключевые компоненты
//
// ## Env
//
// Окружение выполнения: реестр actions, provider-wide governor,
// имя провайдера и таймзона. Собирается в cmd/conveyor-cli из конфигурации.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Warn/Error) — в stderr.
// Это позволяет использовать pipe: conveyor actions list --json | jq .
//
// ## Commands
//
//   - actions: list, show
//   - dispatch: выполнение одной task
//   - governor: simulate
//
// Каждая группа создаётся через фабричную функцию (NewActionsCmd и т.д.),
// принимающую envFn и outputFn — замыкания для ленивого создания
// Env и Output после парсинга PersistentFlags.
package cli
