package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeHub Exchange = "conveyor.hub"
)

// Queues — имена очередей запросов к Hub.
const (
	QueueGetTask          Queue = "hub.get_task"
	QueueSubmitTaskResult Queue = "hub.submit_task_result"

	// QueueReplyTo — псевдо-очередь RabbitMQ direct reply-to.
	QueueReplyTo Queue = "amq.rabbitmq.reply-to"
)

// Routing keys.
const (
	RoutingKeyGetTask          RoutingKey = "get_task"
	RoutingKeySubmitTaskResult RoutingKey = "submit_task_result"
)

// SetupTopology объявляет exchange и очереди запросов к Hub.
// Операция идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeHub), // name
			"direct",            // type
			true,                // durable
			false,               // auto-deleted
			false,               // internal
			false,               // no-wait
			nil,                 // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeHub, err)
		}

		bindings := []struct {
			queue      Queue
			routingKey RoutingKey
		}{
			{QueueGetTask, RoutingKeyGetTask},
			{QueueSubmitTaskResult, RoutingKeySubmitTaskResult},
		}

		for _, b := range bindings {
			_, err := ch.QueueDeclare(
				string(b.queue), // name
				true,            // durable
				false,           // delete when unused
				false,           // exclusive
				false,           // no-wait
				nil,             // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}

			err = ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(ExchangeHub),  // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, ExchangeHub, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Conveyor Hub RabbitMQ Topology:

    conveyor.hub (direct)
    ├── hub.get_task [routing: get_task]
    │       Consumer: Hub
    └── hub.submit_task_result [routing: submit_task_result]
            Consumer: Hub

    amq.rabbitmq.reply-to (direct reply-to)
            Consumer: Worker (ответы Hub)
  `
}
