package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики воркера. Регистрируются в prometheus.DefaultRegisterer
// и отдаются через promhttp.Handler() на /metrics.
var (
	// TasksTotal — обработанные tasks по action и итоговому статусу envelope.
	TasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_tasks_total",
		Help: "Total number of processed tasks by action and result status",
	}, []string{"action", "status"})

	// TaskDuration — время обработки task от получения до отправки результата.
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "conveyor_task_duration_seconds",
		Help:    "Task processing duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	// GovernorDecisions — решения rate-limit governor'ов.
	GovernorDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_governor_decisions_total",
		Help: "Rate limit governor decisions by strategy and result",
	}, []string{"strategy", "result"})

	// ConnectAttempts — попытки подключения к Hub.
	ConnectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_hub_connect_attempts_total",
		Help: "Hub connection attempts by result",
	}, []string{"result"})

	// ConnectionState — текущее состояние pipeline (значение domain.ConnState).
	ConnectionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conveyor_connection_state",
		Help: "Current worker connection state (0=disconnected, 1=connecting, 2=connected, 3=polling, 4=processing)",
	})
)

// RecordTask учитывает завершённую task.
func RecordTask(action, status string, took time.Duration) {
	if action == "" {
		action = "unknown"
	}
	TasksTotal.WithLabelValues(action, status).Inc()
	TaskDuration.WithLabelValues(action).Observe(took.Seconds())
}

// RecordDecision учитывает решение governor'а.
func RecordDecision(strategy string, limited bool) {
	result := "admitted"
	if limited {
		result = "limited"
	}
	GovernorDecisions.WithLabelValues(strategy, result).Inc()
}

// RecordConnectAttempt учитывает попытку подключения.
func RecordConnectAttempt(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ConnectAttempts.WithLabelValues(result).Inc()
}
