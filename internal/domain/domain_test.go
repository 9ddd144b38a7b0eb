package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_Validate(t *testing.T) {
	tests := []struct {
		name    string
		resp    *Response
		wantErr bool
	}{
		{"success without message", &Response{Status: StatusSuccess}, false},
		{"warning with message", Warning("partial", nil), false},
		{"limit with message", Limit("slow down", map[string]any{"wait_time": 1.5}), false},
		{"nil", nil, true},
		{"unknown status", &Response{Status: "ok", Message: "x"}, true},
		{"error without message", &Response{Status: StatusError}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.resp.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidResponse))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResponse_JSONShape(t *testing.T) {
	raw, err := json.Marshal(Errorf("Action %q not found", "x"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","message":"Action \"x\" not found"}`, string(raw))

	raw, err = json.Marshal(Success("done", map[string]any{"n": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","message":"done","data":{"n":1}}`, string(raw))
}

func TestTask_Flags(t *testing.T) {
	var nilTask *Task
	assert.True(t, nilTask.IsEmpty())
	assert.True(t, (&Task{}).IsEmpty())
	assert.False(t, (&Task{ID: "1"}).IsEmpty())

	assert.True(t, (&Task{Action: ActionRateLimited}).IsRateLimited())
	assert.False(t, (&Task{ID: "1", Action: ActionRateLimited}).IsRateLimited(), "с ID это обычный task")

	assert.False(t, (&Task{}).HasAccount())
	assert.False(t, (&Task{Account: []byte(" null ")}).HasAccount())
	assert.True(t, (&Task{Account: []byte(`{"id":1}`)}).HasAccount())
}

func TestTask_Decode(t *testing.T) {
	task := &Task{ID: "1", Payload: []byte(`{"a":1}`)}

	payload, err := task.DecodePayload()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, payload)

	account, err := task.DecodeAccount()
	require.NoError(t, err)
	assert.Nil(t, account)

	empty, err := (&Task{ID: "2"}).DecodePayload()
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	_, err = (&Task{ID: "3", Payload: []byte(`[1,2]`)}).DecodePayload()
	assert.ErrorIs(t, err, ErrMalformedTask)

	_, err = (&Task{ID: "4", Account: []byte(`{broken`)}).DecodeAccount()
	assert.ErrorIs(t, err, ErrMalformedTask)
}

func TestConnState(t *testing.T) {
	assert.Equal(t, "POLLING", ConnStatePolling.String())
	assert.Equal(t, "UNKNOWN", ConnState(42).String())
	assert.True(t, ConnStateProcessing.IsOnline())
	assert.False(t, ConnStateConnecting.IsOnline())
}
