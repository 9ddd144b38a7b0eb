package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/hub"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(t *testing.T, reg *actions.Registry, opts ...func(*DispatcherConfig)) *Dispatcher {
	t.Helper()

	cfg := DispatcherConfig{
		Registry: reg,
		Provider: "demo",
		Now:      func() time.Time { return fixedNow },
		Logger:   discardLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewDispatcher(cfg)
}

func task(id, action, payload string) *domain.Task {
	t := &domain.Task{ID: id, Action: action}
	if payload != "" {
		t.Payload = []byte(payload)
	}
	return t
}

// inner возвращает исходный data из нормализованного ответа.
func inner(t *testing.T, resp *domain.Response) any {
	t.Helper()

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data должен быть нормализован")
	return data["response"]
}

// countingScripter выполняет скрипт окна RedisWindow в памяти:
// считает вызовы по ключу, время не учитывает.
type countingScripter struct {
	redis.Scripter

	mu     sync.Mutex
	counts map[string]int64
	keys   []string
}

func newCountingScripter() *countingScripter {
	return &countingScripter{counts: make(map[string]int64)}
}

func (s *countingScripter) EvalSha(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(ctx, keys, args)
}

func (s *countingScripter) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(ctx, keys, args)
}

func (s *countingScripter) run(ctx context.Context, keys []string, args []interface{}) *redis.Cmd {
	window := args[1].(int64)
	limit := int64(args[2].(int))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys = append(s.keys, keys[0])
	cmd := redis.NewCmd(ctx)
	count := s.counts[keys[0]]
	if count >= limit {
		cmd.SetVal([]interface{}{int64(0), count, window})
		return cmd
	}
	s.counts[keys[0]] = count + 1
	cmd.SetVal([]interface{}{int64(1), count + 1, int64(0)})
	return cmd
}

// Keys возвращает ключи в порядке вызовов.
func (s *countingScripter) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...)
}

// reply — один ответ fakeHub на GetTask.
type reply struct {
	task *domain.Task
	err  error
	// hang — ответа нет: GetTask ждёт отмены ctx.
	hang bool
}

// fakeHub — Client в памяти: отдаёт replies по очереди, затем ErrNotFound.
type fakeHub struct {
	mu        sync.Mutex
	replies   []reply
	results   []*domain.TaskResult
	submitErr error
	polls     int
	closed    bool

	submitted chan *domain.TaskResult
}

func newFakeHub(replies ...reply) *fakeHub {
	return &fakeHub{
		replies:   replies,
		submitted: make(chan *domain.TaskResult, 16),
	}
}

func (h *fakeHub) GetTask(ctx context.Context, provider, authToken string) (*domain.Task, error) {
	h.mu.Lock()
	h.polls++
	if len(h.replies) == 0 {
		h.mu.Unlock()
		return nil, hub.ErrNotFound
	}
	r := h.replies[0]
	h.replies = h.replies[1:]
	h.mu.Unlock()

	if r.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.task, r.err
}

func (h *fakeHub) SubmitTaskResult(ctx context.Context, result *domain.TaskResult) error {
	h.mu.Lock()
	if h.submitErr != nil {
		err := h.submitErr
		h.mu.Unlock()
		return err
	}
	h.results = append(h.results, result)
	h.mu.Unlock()

	h.submitted <- result
	return nil
}

func (h *fakeHub) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	return nil
}

func (h *fakeHub) Polls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.polls
}

func (h *fakeHub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// waitResult ждёт отправленный результат.
func (h *fakeHub) waitResult(t *testing.T) *domain.TaskResult {
	t.Helper()

	select {
	case r := <-h.submitted:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("результат не отправлен")
		return nil
	}
}

// decodeResult разбирает отправленный Response.
func decodeResult(t *testing.T, r *domain.TaskResult) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(r.Result, &out))
	return out
}

// dialSequence возвращает Dialer, отдающий ошибки и клиентов по очереди.
func dialSequence(steps ...any) (hub.Dialer, *int) {
	var (
		mu    sync.Mutex
		calls int
	)
	return func(context.Context) (hub.Client, error) {
		mu.Lock()
		defer mu.Unlock()

		i := calls
		calls++
		if i >= len(steps) {
			i = len(steps) - 1
		}
		switch s := steps[i].(type) {
		case error:
			return nil, s
		case hub.Client:
			return s, nil
		}
		return nil, hub.ErrUnavailable
	}, &calls
}

func newTestWorker(t *testing.T, dial hub.Dialer, d *Dispatcher) *Worker {
	t.Helper()

	w, err := New(Config{
		Dial:             dial,
		Dispatcher:       d,
		Provider:         "demo",
		AuthToken:        "secret",
		ExecutionTimeout: 5 * time.Millisecond,
		ConnectBudget:    50 * time.Millisecond,
		InitialBackoff:   time.Millisecond,
		MaxBackoff:       5 * time.Millisecond,
		Logger:           discardLogger(),
	})
	require.NoError(t, err)
	return w
}
