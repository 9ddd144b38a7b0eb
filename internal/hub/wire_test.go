package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/shaiso/Conveyor/internal/domain"
)

func TestWireTask_RoundTrip(t *testing.T) {
	in := &wireTask{Task: domain.Task{
		ID:      "task-1",
		Action:  "greet",
		Payload: []byte(`{"name":"Ann"}`),
		Account: []byte(`{"id":7}`),
	}}

	out := &wireTask{}
	require.NoError(t, out.unmarshalWire(in.marshalWire()))
	assert.Equal(t, in.Task, out.Task)
}

func TestWireTaskResult_RoundTrip(t *testing.T) {
	in := &wireTaskResult{TaskResult: domain.TaskResult{
		ID:        "task-1",
		Provider:  "demo",
		AuthToken: "secret",
		Action:    "greet",
		Status:    domain.StatusLimit,
		Payload:   []byte(`{}`),
		Result:    []byte(`{"status":"limit","message":"slow down"}`),
	}}

	out := &wireTaskResult{}
	require.NoError(t, out.unmarshalWire(in.marshalWire()))
	assert.Equal(t, in.TaskResult, out.TaskResult)
}

func TestWire_SkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 150)
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "task-2")
	b = protowire.AppendTag(b, 10, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 1)

	out := &wireTask{}
	require.NoError(t, out.unmarshalWire(b))
	assert.Equal(t, "task-2", out.ID)
}

func TestWire_Truncated(t *testing.T) {
	b := (&providerRequest{Provider: "demo", AuthToken: "secret"}).marshalWire()

	err := (&providerRequest{}).unmarshalWire(b[:len(b)-2])
	assert.Error(t, err)
}

func TestWire_EmptyTaskMeansNoWork(t *testing.T) {
	out := &wireTask{}
	require.NoError(t, out.unmarshalWire(nil))
	assert.True(t, out.Task.IsEmpty())
}

func TestProtoCodec_RejectsForeignTypes(t *testing.T) {
	c := protoCodec{}
	assert.Equal(t, "proto", c.Name())

	_, err := c.Marshal("not a message")
	assert.Error(t, err)
	assert.Error(t, c.Unmarshal(nil, new(int)))
}
