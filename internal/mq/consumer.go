package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Заголовки ответа Hub.
const (
	HeaderCode    = "code"
	HeaderMessage = "message"
)

// Коды ответа Hub.
const (
	CodeOK              = "ok"
	CodeUnauthenticated = "unauthenticated"
	CodeNotFound        = "not_found"
	CodeError           = "error"
	// CodeUnroutable не приходит от Hub: так помечается запрос,
	// который брокер вернул (mandatory) из-за отсутствия очереди.
	CodeUnroutable = "unroutable"
)

// Reply — ответ на RPC-запрос.
type Reply struct {
	CorrelationID string
	Code          string
	Message       string
	Body          []byte
}

// ReplyConsumer читает ответы из direct reply-to и раздаёт их
// ожидающим вызовам по CorrelationId.
type ReplyConsumer struct {
	conn   *Connection
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]chan *Reply

	done chan struct{}
}

// NewReplyConsumer создаёт consumer. Потребление начинается в Start.
func NewReplyConsumer(conn *Connection, logger *slog.Logger) *ReplyConsumer {
	return &ReplyConsumer{
		conn:    conn,
		logger:  logger,
		pending: make(map[string]chan *Reply),
		done:    make(chan struct{}),
	}
}

// Start подписывается на amq.rabbitmq.reply-to.
// Подписка должна быть создана до первой публикации с reply-to на этом канале.
func (c *ReplyConsumer) Start(ctx context.Context) error {
	var (
		deliveries <-chan amqp.Delivery
		returns    <-chan amqp.Return
	)

	err := c.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		returns = ch.NotifyReturn(make(chan amqp.Return, 1))

		var err error
		deliveries, err = ch.Consume(
			string(QueueReplyTo), // queue
			"",                   // consumer tag (auto-generated)
			true,                 // auto-ack: обязательно для direct reply-to
			false,                // exclusive
			false,                // no-local
			false,                // no-wait
			nil,                  // args
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", QueueReplyTo, err)
	}

	go c.processDeliveries(deliveries)
	go c.processReturns(returns)
	return nil
}

// processDeliveries раздаёт ответы до закрытия канала доставки.
func (c *ReplyConsumer) processDeliveries(deliveries <-chan amqp.Delivery) {
	defer close(c.done)

	for raw := range deliveries {
		reply := &Reply{
			CorrelationID: raw.CorrelationId,
			Code:          headerString(raw.Headers, HeaderCode),
			Message:       headerString(raw.Headers, HeaderMessage),
			Body:          raw.Body,
		}

		if !c.deliver(reply) {
			c.logger.Warn("reply without waiter", "correlation_id", raw.CorrelationId)
		}
	}

	c.logger.Debug("reply consumer stopped")
}

// processReturns завершает ожидание запросов, которые брокер вернул
// как недоставляемые. Канал возвратов закрывается вместе с AMQP-каналом.
func (c *ReplyConsumer) processReturns(returns <-chan amqp.Return) {
	for ret := range returns {
		reply := &Reply{
			CorrelationID: ret.CorrelationId,
			Code:          CodeUnroutable,
			Message:       fmt.Sprintf("%s/%s returned: %d %s", ret.Exchange, ret.RoutingKey, ret.ReplyCode, ret.ReplyText),
		}

		c.logger.Warn("request returned by broker",
			"exchange", ret.Exchange,
			"routing_key", ret.RoutingKey,
			"reply_code", ret.ReplyCode,
			"reply_text", ret.ReplyText,
			"correlation_id", ret.CorrelationId,
		)

		c.deliver(reply)
	}
}

// deliver отдаёт ответ ожидающему вызову. Возвращает false, если
// ожидания с таким correlation id нет.
func (c *ReplyConsumer) deliver(reply *Reply) bool {
	c.mu.Lock()
	waiter, ok := c.pending[reply.CorrelationID]
	delete(c.pending, reply.CorrelationID)
	c.mu.Unlock()

	if !ok {
		return false
	}
	waiter <- reply
	return true
}

// Expect регистрирует ожидание ответа с данным correlation id.
func (c *ReplyConsumer) Expect(correlationID string) <-chan *Reply {
	ch := make(chan *Reply, 1)
	c.mu.Lock()
	c.pending[correlationID] = ch
	c.mu.Unlock()
	return ch
}

// Forget снимает ожидание (по таймауту или отмене).
func (c *ReplyConsumer) Forget(correlationID string) {
	c.mu.Lock()
	delete(c.pending, correlationID)
	c.mu.Unlock()
}

// Done закрывается, когда канал доставки закрыт.
func (c *ReplyConsumer) Done() <-chan struct{} {
	return c.done
}

func headerString(h amqp.Table, key string) string {
	if h == nil {
		return ""
	}
	switch v := h[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}
