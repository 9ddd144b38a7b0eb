package worker

import (
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
)

// normalize оборачивает data ответа метаданными.
//
//	{
//	    "provider":   "demo",
//	    "action":     "greet",
//	    "timezone":   "Europe/Moscow",
//	    "local_time": "2024-01-01T15:00:00+03:00",
//	    "utc_time":   "2024-01-01T12:00:00Z",
//	    "response":   <исходный data>
//	}
func (d *Dispatcher) normalize(action string, resp *domain.Response) *domain.Response {
	now := d.now()
	return &domain.Response{
		Status:  resp.Status,
		Message: resp.Message,
		Data: map[string]any{
			"provider":   d.provider,
			"action":     action,
			"timezone":   d.location.String(),
			"local_time": now.In(d.location).Format(time.RFC3339),
			"utc_time":   now.UTC().Format(time.RFC3339),
			"response":   resp.Data,
		},
	}
}
