package hub

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaiso/Conveyor/internal/mq"
)

func TestReplyError(t *testing.T) {
	assert.NoError(t, replyError(&mq.Reply{Code: mq.CodeOK}))
	assert.NoError(t, replyError(&mq.Reply{}))

	assert.ErrorIs(t, replyError(&mq.Reply{Code: mq.CodeUnauthenticated}), ErrUnauthenticated)
	assert.ErrorIs(t, replyError(&mq.Reply{Code: mq.CodeNotFound}), ErrNotFound)
	assert.ErrorIs(t, replyError(&mq.Reply{Code: mq.CodeUnroutable, Message: "no route"}), ErrUnavailable)

	err := replyError(&mq.Reply{Code: mq.CodeError, Message: "db down"})
	assert.EqualError(t, err, "hub error: db down")
}

func TestMapRPCError(t *testing.T) {
	assert.ErrorIs(t, mapRPCError(fmt.Errorf("%w: reply channel closed", mq.ErrClosed)), ErrUnavailable)
}

func TestRawJSON(t *testing.T) {
	assert.Nil(t, rawJSON(nil))
	assert.JSONEq(t, `{"a":1}`, string(rawJSON([]byte(`{"a":1}`))))
	assert.Equal(t, `"{broken"`, string(rawJSON([]byte(`{broken`))))
}
