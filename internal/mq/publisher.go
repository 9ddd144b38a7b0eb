package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения.
type MessageType string

// Типы запросов к Hub.
const (
	MessageTypeGetTask          MessageType = "hub.get_task"
	MessageTypeSubmitTaskResult MessageType = "hub.submit_task_result"
)

// Message — конверт запроса.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// PublishOption дополняет amqp.Publishing перед отправкой.
type PublishOption func(*amqp.Publishing)

// WithReply задаёт reply-to и correlation id для RPC.
func WithReply(replyTo Queue, correlationID string) PublishOption {
	return func(p *amqp.Publishing) {
		p.ReplyTo = string(replyTo)
		p.CorrelationId = correlationID
		// Запрос без ответа бессмысленен после рестарта брокера.
		p.DeliveryMode = amqp.Transient
	}
}

// WithExpiration задаёт TTL сообщения в очереди.
func WithExpiration(ttl time.Duration) PublishOption {
	return func(p *amqp.Publishing) {
		p.Expiration = fmt.Sprintf("%d", ttl.Milliseconds())
	}
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message, opts ...PublishOption) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         string(msg.Type),
		Timestamp:    msg.Timestamp,
		Body:         body,
	}
	for _, opt := range opts {
		opt(&pub)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			true,               // mandatory: без очереди запрос вернётся
			false,
			pub,
		)
		if errors.Is(err, amqp.ErrClosed) {
			return fmt.Errorf("%w: publish to %s/%s", ErrClosed, exchange, routingKey)
		}
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}
