package hub

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/shaiso/Conveyor/internal/domain"
)

// grpcClient — Client поверх gRPC.
type grpcClient struct {
	conn   *grpc.ClientConn
	logger *slog.Logger
}

// DialGRPC подключается к Hub и ждёт готовности канала.
func DialGRPC(ctx context.Context, opts Options) (Client, error) {
	creds := insecure.NewCredentials()
	if opts.TLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(protoCodec{})),
	}, opts.DialOptions...)

	conn, err := grpc.NewClient(opts.URL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", opts.URL, err)
	}

	readyTimeout := opts.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = defaultReadyTimeout
	}
	if err := waitReady(ctx, conn, readyTimeout); err != nil {
		conn.Close()
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connected to hub", "transport", TransportGRPC, "url", opts.URL)

	return &grpcClient{conn: conn, logger: logger}, nil
}

// waitReady переводит канал из idle и ждёт состояния Ready.
func waitReady(ctx context.Context, conn *grpc.ClientConn, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if state == connectivity.Shutdown {
			return fmt.Errorf("%w: channel shut down", ErrUnavailable)
		}
		if !conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("%w: channel not ready after %s (state %s)", ErrUnavailable, timeout, state)
		}
	}
}

func (c *grpcClient) GetTask(ctx context.Context, provider, authToken string) (*domain.Task, error) {
	req := &providerRequest{Provider: provider, AuthToken: authToken}
	out := &wireTask{}

	if err := c.conn.Invoke(ctx, methodGetTask, req, out); err != nil {
		return nil, mapStatus(err)
	}
	return &out.Task, nil
}

func (c *grpcClient) SubmitTaskResult(ctx context.Context, result *domain.TaskResult) error {
	req := &wireTaskResult{TaskResult: *result}
	if err := c.conn.Invoke(ctx, methodSubmitTaskResult, req, &empty{}); err != nil {
		return mapStatus(err)
	}
	return nil
}

func (c *grpcClient) Close() error {
	return c.conn.Close()
}

// mapStatus приводит gRPC status к ошибкам пакета.
func mapStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("hub %s: %w", st.Code(), err)
	}
}
