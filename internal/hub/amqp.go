package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/mq"
)

// amqpClient — Client поверх RabbitMQ RPC.
type amqpClient struct {
	conn   *mq.Connection
	rpc    *mq.RPC
	logger *slog.Logger
}

// DialAMQP подключается к брокеру, объявляет топологию и запускает consumer ответов.
func DialAMQP(ctx context.Context, opts Options) (Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	readyTimeout := opts.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = defaultReadyTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	conn, err := mq.Dial(dialCtx, opts.URL, logger)
	if err != nil {
		if mq.IsAuthError(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := mq.SetupTopology(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setup topology: %w", err)
	}

	rpc, err := mq.NewRPC(ctx, conn, mq.ExchangeHub, logger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	logger.Info("connected to hub", "transport", TransportAMQP)

	return &amqpClient{conn: conn, rpc: rpc, logger: logger}, nil
}

// jsonTask — task в JSON-представлении AMQP-транспорта.
// payload и account — вложенные JSON-объекты.
type jsonTask struct {
	TaskID  string          `json:"task_id"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Account json.RawMessage `json:"account,omitempty"`
}

// jsonTaskResult — результат в JSON-представлении AMQP-транспорта.
type jsonTaskResult struct {
	TaskID    string          `json:"task_id"`
	Provider  string          `json:"provider"`
	AuthToken string          `json:"auth_token"`
	Action    string          `json:"action"`
	Status    domain.Status   `json:"status"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Account   json.RawMessage `json:"account,omitempty"`
	Result    json.RawMessage `json:"result"`
}

type jsonProviderRequest struct {
	Provider  string `json:"provider"`
	AuthToken string `json:"auth_token"`
}

func (c *amqpClient) GetTask(ctx context.Context, provider, authToken string) (*domain.Task, error) {
	reply, err := c.rpc.Call(ctx, mq.RoutingKeyGetTask, mq.MessageTypeGetTask,
		jsonProviderRequest{Provider: provider, AuthToken: authToken})
	if err != nil {
		return nil, mapRPCError(err)
	}
	if err := replyError(reply); err != nil {
		return nil, err
	}

	task := &domain.Task{}
	if len(reply.Body) == 0 {
		return task, nil
	}

	var jt jsonTask
	if err := json.Unmarshal(reply.Body, &jt); err != nil {
		return nil, fmt.Errorf("%w: decode task: %v", domain.ErrMalformedTask, err)
	}
	task.ID = jt.TaskID
	task.Action = jt.Action
	task.Payload = []byte(jt.Payload)
	task.Account = []byte(jt.Account)
	return task, nil
}

func (c *amqpClient) SubmitTaskResult(ctx context.Context, result *domain.TaskResult) error {
	req := jsonTaskResult{
		TaskID:    result.ID,
		Provider:  result.Provider,
		AuthToken: result.AuthToken,
		Action:    result.Action,
		Status:    result.Status,
		Payload:   rawJSON(result.Payload),
		Account:   rawJSON(result.Account),
		Result:    rawJSON(result.Result),
	}

	reply, err := c.rpc.Call(ctx, mq.RoutingKeySubmitTaskResult, mq.MessageTypeSubmitTaskResult, req)
	if err != nil {
		return mapRPCError(err)
	}
	return replyError(reply)
}

func (c *amqpClient) Close() error {
	return c.conn.Close()
}

// replyError приводит код ответа Hub к ошибкам пакета.
func replyError(r *mq.Reply) error {
	switch r.Code {
	case mq.CodeOK, "":
		return nil
	case mq.CodeUnauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, r.Message)
	case mq.CodeNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, r.Message)
	case mq.CodeUnroutable:
		return fmt.Errorf("%w: %s", ErrUnavailable, r.Message)
	default:
		if r.Message == "" {
			r.Message = r.Code
		}
		return fmt.Errorf("hub error: %s", r.Message)
	}
}

func mapRPCError(err error) error {
	if errors.Is(err, mq.ErrClosed) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// rawJSON встраивает байты как JSON, если они валидны, иначе как строку.
func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	if json.Valid(b) {
		return b
	}
	quoted, _ := json.Marshal(string(b))
	return quoted
}
