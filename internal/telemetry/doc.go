// Package telemetry обеспечивает наблюдаемость воркера.
//
// Включает:
//   - logging.go — structured logging через slog (JSON/text, stdout или файл)
//   - metrics.go — Prometheus метрики
//   - http.go — middleware служебного HTTP-сервера (access log, recovery)
//
// Метрики экспортируются на /metrics, состояние соединения — на /healthz.
package telemetry
