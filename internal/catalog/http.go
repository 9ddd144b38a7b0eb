package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/contract"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/ratelimit"
)

const defaultHTTPTimeout = 30 * time.Second

// HTTPRequestPayload — payload http.request.
//
//   - method: GET, POST, PUT, PATCH, DELETE. Default: GET
//   - url: адрес запроса (обязательно)
//   - headers: заголовки запроса
//   - body: тело запроса (сериализуется в JSON)
//   - timeout_sec: таймаут в секундах. Default: 30
type HTTPRequestPayload struct {
	Method     string            `json:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE"`
	URL        string            `json:"url" validate:"required,url"`
	Headers    map[string]string `json:"headers"`
	Body       any               `json:"body"`
	TimeoutSec float64           `json:"timeout_sec" validate:"gte=0"`
}

type httpAction struct {
	client   *http.Client
	governor ratelimit.Governor
}

// registerHTTP регистрирует http.request. governor не проверяется при
// dispatch: запрос ждёт своей очереди внутри обработчика.
func registerHTTP(reg *actions.Registry, client *http.Client, governor ratelimit.Governor) {
	if governor == nil {
		governor = ratelimit.Noop{}
	}
	h := &httpAction{client: client, governor: governor}

	reg.Register(actions.Descriptor{
		Name:        "http.request",
		Description: "Perform an HTTP request",
		Payload:     contract.Struct[HTTPRequestPayload](),
		Params:      []actions.Param{actions.ParamPayload},
	}, h.handle)
}

// handle выполняет запрос под governor.
// HTTP >= 400 возвращается как error с сохранённым ответом.
func (h *httpAction) handle(ctx context.Context, p actions.Params) (*domain.Response, error) {
	in := p.Payload.(*HTTPRequestPayload)

	req := &ratelimit.Request{Scope: ratelimit.ScopeAction, Action: "http.request", Payload: map[string]any{"url": in.URL}}
	out, err := ratelimit.Guard(ctx, h.governor, req, func(ctx context.Context) (map[string]any, error) {
		return h.do(ctx, in)
	})
	if err != nil {
		return nil, err
	}

	status := out["status_code"].(int)
	if status >= 400 {
		return domain.Error(fmt.Sprintf("HTTP %d: %s", status, truncate(fmt.Sprint(out["body"]), 200)), out), nil
	}
	return domain.Success("", out), nil
}

func (h *httpAction) do(ctx context.Context, in *HTTPRequestPayload) (map[string]any, error) {
	timeout := defaultHTTPTimeout
	if in.TimeoutSec > 0 {
		timeout = time.Duration(in.TimeoutSec * float64(time.Second))
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := in.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if in.Body != nil {
		raw, err := json.Marshal(in.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, in.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range in.Headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return buildOutputs(resp, raw), nil
}

// buildOutputs формирует data из HTTP-ответа. Тело: JSON, иначе строка.
func buildOutputs(resp *http.Response, body []byte) map[string]any {
	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		parsed = string(body)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        parsed,
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
