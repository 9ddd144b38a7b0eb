package mq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RPC — запрос/ответ поверх RabbitMQ direct reply-to.
type RPC struct {
	exchange  Exchange
	publisher *Publisher
	replies   *ReplyConsumer
	logger    *slog.Logger
}

// NewRPC запускает consumer ответов и возвращает RPC-клиент.
func NewRPC(ctx context.Context, conn *Connection, exchange Exchange, logger *slog.Logger) (*RPC, error) {
	replies := NewReplyConsumer(conn, logger)
	if err := replies.Start(ctx); err != nil {
		return nil, err
	}

	return &RPC{
		exchange:  exchange,
		publisher: NewPublisher(conn, logger),
		replies:   replies,
		logger:    logger,
	}, nil
}

// Call публикует запрос и ждёт ответа.
//
// Возвращает ErrClosed, если канал доставки ответов закрылся до ответа.
func (r *RPC) Call(ctx context.Context, routingKey RoutingKey, msgType MessageType, payload any) (*Reply, error) {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	waiter := r.replies.Expect(msg.ID)
	defer r.replies.Forget(msg.ID)

	opts := []PublishOption{WithReply(QueueReplyTo, msg.ID)}
	if deadline, ok := ctx.Deadline(); ok {
		if ttl := time.Until(deadline); ttl > 0 {
			opts = append(opts, WithExpiration(ttl))
		}
	}

	if err := r.publisher.Publish(ctx, r.exchange, routingKey, msg, opts...); err != nil {
		return nil, err
	}

	select {
	case reply := <-waiter:
		return reply, nil
	case <-r.replies.Done():
		return nil, fmt.Errorf("%w: reply channel closed", ErrClosed)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
