// Package hub — клиент к диспетчеру задач (Hub).
//
// Hub выдаёт tasks (GetTask) и принимает результаты (SubmitTaskResult).
// Транспорт скрыт за интерфейсом Client:
//   - grpc.go — gRPC (/hub.Hub/GetTask, /hub.Hub/SubmitTaskResult),
//     сообщения кодируются protowire без сгенерированного кода (wire.go)
//   - amqp.go — RPC поверх RabbitMQ (пакет mq)
//
// Ошибки транспорта приводятся к таксономии пакета:
//   - ErrUnauthenticated — неверный токен, воркер должен остановиться
//   - ErrNotFound        — работы нет, эквивалентно пустому task
//   - ErrUnavailable     — канал сломан, нужно переподключиться
package hub
