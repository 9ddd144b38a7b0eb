package mq

import (
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

func TestPublishOptions(t *testing.T) {
	p := amqp.Publishing{DeliveryMode: amqp.Persistent}

	WithReply(QueueReplyTo, "corr-1")(&p)
	WithExpiration(1500 * time.Millisecond)(&p)

	assert.Equal(t, "amq.rabbitmq.reply-to", p.ReplyTo)
	assert.Equal(t, "corr-1", p.CorrelationId)
	assert.Equal(t, uint8(amqp.Transient), p.DeliveryMode)
	assert.Equal(t, "1500", p.Expiration)
}

func TestReplyConsumer_Dispatch(t *testing.T) {
	c := NewReplyConsumer(nil, discardLogger())

	first := c.Expect("a")
	second := c.Expect("b")

	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- amqp.Delivery{CorrelationId: "b", Headers: amqp.Table{HeaderCode: CodeNotFound}}
	deliveries <- amqp.Delivery{CorrelationId: "unknown"}
	deliveries <- amqp.Delivery{
		CorrelationId: "a",
		Headers:       amqp.Table{HeaderCode: CodeOK, HeaderMessage: []byte("fine")},
		Body:          []byte(`{"task_id":"1"}`),
	}
	close(deliveries)

	c.processDeliveries(deliveries)

	r := <-first
	assert.Equal(t, CodeOK, r.Code)
	assert.Equal(t, "fine", r.Message)
	assert.JSONEq(t, `{"task_id":"1"}`, string(r.Body))

	assert.Equal(t, CodeNotFound, (<-second).Code)

	select {
	case <-c.Done():
	default:
		t.Fatal("Done должен закрываться после закрытия канала доставки")
	}
}

func TestReplyConsumer_Forget(t *testing.T) {
	c := NewReplyConsumer(nil, discardLogger())
	c.Expect("x")
	c.Forget("x")

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.pending)
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(fmt.Errorf("dial amqp: %w", amqp.ErrCredentials)))
	assert.False(t, IsAuthError(errors.New("connection refused")))
	assert.False(t, IsAuthError(&amqp.Error{Code: amqp.ChannelError}))
}

func TestReplyConsumer_Returned(t *testing.T) {
	c := NewReplyConsumer(nil, discardLogger())
	waiter := c.Expect("lost")

	returns := make(chan amqp.Return, 2)
	returns <- amqp.Return{
		ReplyCode:     amqp.NoRoute,
		ReplyText:     "NO_ROUTE",
		Exchange:      string(ExchangeHub),
		RoutingKey:    string(RoutingKeyGetTask),
		CorrelationId: "lost",
	}
	returns <- amqp.Return{CorrelationId: "unknown"}
	close(returns)

	c.processReturns(returns)

	select {
	case r := <-waiter:
		assert.Equal(t, CodeUnroutable, r.Code)
		assert.Equal(t, "lost", r.CorrelationID)
		assert.Contains(t, r.Message, "NO_ROUTE")
	default:
		t.Fatal("возвращённый запрос должен завершать ожидание")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.pending)
}
