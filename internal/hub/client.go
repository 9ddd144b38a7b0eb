package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Ошибки Hub.
var (
	// ErrUnauthenticated — Hub отклонил токен провайдера.
	ErrUnauthenticated = errors.New("hub: unauthenticated")

	// ErrNotFound — у Hub нет работы для провайдера.
	ErrNotFound = errors.New("hub: not found")

	// ErrUnavailable — канал к Hub недоступен или сломан.
	ErrUnavailable = errors.New("hub: unavailable")

	// ErrUnknownTransport — неизвестный транспорт в конфигурации.
	ErrUnknownTransport = errors.New("hub: unknown transport")
)

// Транспорты.
const (
	TransportGRPC = "grpc"
	TransportAMQP = "amqp"
)

// defaultReadyTimeout — ожидание готовности канала при подключении.
const defaultReadyTimeout = 30 * time.Second

// Client — RPC-поверхность Hub.
type Client interface {
	// GetTask запрашивает следующую task. Пустой ID — работы нет.
	GetTask(ctx context.Context, provider, authToken string) (*domain.Task, error)

	// SubmitTaskResult отправляет результат обработки.
	SubmitTaskResult(ctx context.Context, result *domain.TaskResult) error

	// Close освобождает соединение.
	Close() error
}

// Dialer устанавливает новое соединение с Hub.
type Dialer func(ctx context.Context) (Client, error)

// Options — параметры подключения.
type Options struct {
	// URL — адрес Hub: host:port для gRPC, amqp://... для AMQP.
	URL string

	// TLS — использовать TLS (только gRPC).
	TLS bool

	// ReadyTimeout — сколько ждать готовности канала (default: 30s).
	ReadyTimeout time.Duration

	// DialOptions — дополнительные опции gRPC.
	DialOptions []grpc.DialOption

	Logger *slog.Logger
}

// NewDialer возвращает Dialer для транспорта.
func NewDialer(transport string, opts Options) (Dialer, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = defaultReadyTimeout
	}

	switch transport {
	case "", TransportGRPC:
		return func(ctx context.Context) (Client, error) {
			return DialGRPC(ctx, opts)
		}, nil
	case TransportAMQP:
		return func(ctx context.Context) (Client, error) {
			return DialAMQP(ctx, opts)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, transport)
	}
}
