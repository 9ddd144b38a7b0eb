// Package worker реализует pipeline выполнения tasks провайдера.
//
// # Обзор
//
// Worker — долгоживущий процесс, который:
//   - Подключается к Hub (gRPC или AMQP) с exponential backoff
//   - Запрашивает tasks через GetTask (poll loop)
//   - Проверяет rate limit, контракты, вызывает обработчик action
//   - Нормализует результат и отправляет его через SubmitTaskResult
//
// Одна task обрабатывается полностью до запроса следующей.
// Внутренней очереди и пула нет.
//
// # Состояния
//
//	DISCONNECTED → CONNECTING → CONNECTED → POLLING ⇄ PROCESSING
//	                    ↑                      │
//	                    └──── ErrUnavailable ──┘
//
// Подключение: backoff начинается с 1s, удваивается до 60s на попытку;
// после исчерпания бюджета (HUB_CONNECT_BUDGET, 300s) последовательность
// начинается заново. Отказ в аутентификации — окончательный.
//
// Polling:
//   - пустой ID — работы нет, пауза ExecutionTimeout
//   - служебный task rate_limited — пауза wait_time из payload через provider-wide governor
//   - hub.ErrNotFound — как пустой ID
//   - hub.ErrUnavailable — закрыть клиента и переподключиться
//   - hub.ErrUnauthenticated — Run возвращает ErrUnauthenticated
//   - прочие ошибки — лог, пауза ExecutionTimeout
//
// # Dispatch
//
// Dispatcher.Dispatch превращает Task в Response и никогда не паникует:
//
//  1. provider-wide governor → limit (scope=provider)
//  2. lookup action → error со списком доступных actions
//  3. governor action → limit (scope=action)
//  4. контракты payload и account → error с data.errors
//  5. сборка параметров, только объявленные action
//  6. вызов обработчика, error/panic → error
//  7. проверка Response → error с исходным значением в data
//  8. нормализация data: provider, action, timezone, local_time, utc_time, response
//
// # Остановка
//
// Run завершается при отмене ctx. Отмена проверяется между итерациями;
// task в обработке доводится до конца и её результат отправляется.
package worker
