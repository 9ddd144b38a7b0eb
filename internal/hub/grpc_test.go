package hub

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/shaiso/Conveyor/internal/domain"
)

// fakeHub — in-process Hub на bufconn без сгенерированного кода.
type fakeHub struct {
	mu        sync.Mutex
	tasks     []domain.Task
	submitted []domain.TaskResult
}

func (h *fakeHub) handle(_ any, stream grpc.ServerStream) error {
	method, _ := grpc.MethodFromServerStream(stream)

	switch method {
	case methodGetTask:
		req := &providerRequest{}
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		if req.AuthToken != "secret" {
			return status.Error(codes.Unauthenticated, "invalid token")
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		if len(h.tasks) == 0 {
			return status.Error(codes.NotFound, "no tasks")
		}
		task := h.tasks[0]
		h.tasks = h.tasks[1:]
		return stream.SendMsg(&wireTask{Task: task})

	case methodSubmitTaskResult:
		req := &wireTaskResult{}
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		h.mu.Lock()
		h.submitted = append(h.submitted, req.TaskResult)
		h.mu.Unlock()
		return stream.SendMsg(&empty{})
	}

	return status.Errorf(codes.Unimplemented, "unknown method %s", method)
}

func startFakeHub(t *testing.T, h *fakeHub) Options {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.ForceServerCodec(protoCodec{}),
		grpc.UnknownServiceHandler(h.handle),
	)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return Options{
		URL:          "passthrough:///bufnet",
		ReadyTimeout: 5 * time.Second,
		DialOptions: []grpc.DialOption{
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
		},
	}
}

func TestGRPCClient_GetAndSubmit(t *testing.T) {
	h := &fakeHub{tasks: []domain.Task{{ID: "t-1", Action: "echo", Payload: []byte(`{"x":1}`)}}}
	opts := startFakeHub(t, h)

	ctx := context.Background()
	client, err := DialGRPC(ctx, opts)
	require.NoError(t, err)
	defer client.Close()

	task, err := client.GetTask(ctx, "demo", "secret")
	require.NoError(t, err)
	assert.Equal(t, "t-1", task.ID)
	assert.JSONEq(t, `{"x":1}`, string(task.Payload))

	err = client.SubmitTaskResult(ctx, &domain.TaskResult{
		ID:     "t-1",
		Action: "echo",
		Status: domain.StatusSuccess,
		Result: []byte(`{"status":"success","message":"ok"}`),
	})
	require.NoError(t, err)

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.submitted, 1)
	assert.Equal(t, domain.StatusSuccess, h.submitted[0].Status)
}

func TestGRPCClient_ErrorMapping(t *testing.T) {
	opts := startFakeHub(t, &fakeHub{})

	ctx := context.Background()
	client, err := DialGRPC(ctx, opts)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetTask(ctx, "demo", "wrong")
	assert.True(t, errors.Is(err, ErrUnauthenticated), "got %v", err)

	_, err = client.GetTask(ctx, "demo", "secret")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestMapStatus(t *testing.T) {
	assert.ErrorIs(t, mapStatus(status.Error(codes.Unavailable, "gone")), ErrUnavailable)
	assert.ErrorIs(t, mapStatus(status.Error(codes.PermissionDenied, "no")), ErrUnauthenticated)

	internal := mapStatus(status.Error(codes.Internal, "boom"))
	assert.Contains(t, internal.Error(), "boom")
	assert.False(t, errors.Is(internal, ErrUnavailable))

	plain := errors.New("plain")
	assert.Same(t, plain, mapStatus(plain))
}

func TestNewDialer(t *testing.T) {
	_, err := NewDialer("carrier-pigeon", Options{})
	assert.ErrorIs(t, err, ErrUnknownTransport)

	d, err := NewDialer(TransportAMQP, Options{})
	require.NoError(t, err)
	assert.NotNil(t, d)
}
