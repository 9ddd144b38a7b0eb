// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Используется AMQP-транспортом Hub: запросы GetTask и SubmitTaskResult
// публикуются в exchange conveyor.hub, ответы приходят через
// RabbitMQ direct reply-to (amq.rabbitmq.reply-to).
//
// Структура:
//   - connection.go — соединение и канал (Dial с ctx, Close)
//   - topology.go   — объявление exchange, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — consumer ответов, раздача по CorrelationId
//   - rpc.go        — запрос/ответ поверх publisher и consumer
//
// Ответ Hub несёт заголовок code:
//   - ok              — успех, тело — JSON ответа
//   - unauthenticated — неверный токен провайдера
//   - not_found       — работы нет
//   - error           — прочая ошибка, текст в заголовке message
//
// Переподключением пакет не занимается: при закрытии соединения
// RPC.Call возвращает ErrClosed, воркер пересоздаёт клиента.
package mq
