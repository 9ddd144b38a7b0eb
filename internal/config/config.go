// Package config загружает конфигурацию воркера из переменных окружения.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"

	"github.com/shaiso/Conveyor/internal/ratelimit"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// ErrInvalidConfig — обязательная переменная не задана или значение не разбирается.
var ErrInvalidConfig = errors.New("invalid config")

// Значения по умолчанию.
const (
	defaultHubURL           = "localhost:50051"
	defaultTransport        = "grpc"
	defaultExecutionTimeout = time.Second
	defaultConnectBudget    = 300 * time.Second
	defaultTimezone         = "UTC"
	defaultWorkerPort       = "8082"
)

// Config — конфигурация процесса воркера.
type Config struct {
	// Provider — имя провайдера (PROVIDER_NAME).
	Provider string

	// AuthToken — токен провайдера (PROVIDER_AUTH_TOKEN).
	AuthToken string

	Hub Hub

	// ExecutionTimeout — интервал idle-poll и пауза после ошибок (TASK_EXECUTION_TIMEOUT, сек).
	ExecutionTimeout time.Duration

	// Timezone — исходное значение TIMEZONE.
	Timezone string

	// Location — разобранная таймзона. UTC, если TIMEZONE невалиден.
	Location *time.Location

	// TimezoneErr — ошибка разбора TIMEZONE, для предупреждения в логе.
	TimezoneErr error

	Log       Log
	RateLimit RateLimit

	// RedisURL — Redis для стратегии redis (REDIS_URL).
	RedisURL string

	// DatabaseURL — Postgres для встроенных users.* actions (DB_URL). Пусто — actions не регистрируются.
	DatabaseURL string

	// WorkerPort — порт /metrics и /healthz (WORKER_PORT).
	WorkerPort string
}

// Hub — подключение к Hub.
type Hub struct {
	URL           string        // HUB_URL
	Transport     string        // HUB_TRANSPORT: grpc | amqp
	TLS           bool          // HUB_TLS
	ConnectBudget time.Duration // HUB_CONNECT_BUDGET, сек
}

// Log — параметры логирования.
type Log struct {
	Level  string // LOG_LEVEL: DEBUG | INFO | WARN | ERROR
	Format string // LOG_FORMAT: json | text
	File   string // LOG_FILE: путь к файлу, пусто — stdout
}

// RateLimit — provider-wide governor.
type RateLimit struct {
	Strategy          string        // RATE_LIMIT_STRATEGY
	MinDelay          time.Duration // RATE_LIMIT_MIN_DELAY, сек
	MaxCallsPerSecond int           // RATE_LIMIT_MAX_CALLS_PER_SECOND
	Warning           float64       // RATE_LIMIT_WARNING_THRESHOLD
	Critical          float64       // RATE_LIMIT_CRITICAL_THRESHOLD
	MaxRequests       int           // RATE_LIMIT_MAX_REQUESTS
	Window            time.Duration // RATE_LIMIT_WINDOW, сек
	RPS               float64       // RATE_LIMIT_RPS
	Burst             int           // RATE_LIMIT_BURST
	RedisPrefix       string        // RATE_LIMIT_REDIS_PREFIX
}

// Load читает конфигурацию из окружения процесса.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom читает конфигурацию через lookup (для тестов).
func LoadFrom(lookup func(string) (string, bool)) (*Config, error) {
	e := env{lookup: lookup}

	cfg := &Config{
		Provider:  e.str("PROVIDER_NAME", ""),
		AuthToken: e.str("PROVIDER_AUTH_TOKEN", ""),
		Hub: Hub{
			URL:           e.str("HUB_URL", defaultHubURL),
			Transport:     strings.ToLower(e.str("HUB_TRANSPORT", defaultTransport)),
			TLS:           e.boolean("HUB_TLS", false),
			ConnectBudget: e.seconds("HUB_CONNECT_BUDGET", defaultConnectBudget),
		},
		ExecutionTimeout: e.seconds("TASK_EXECUTION_TIMEOUT", defaultExecutionTimeout),
		Timezone:         e.str("TIMEZONE", defaultTimezone),
		Log: Log{
			Level:  strings.ToUpper(e.str("LOG_LEVEL", "INFO")),
			Format: strings.ToLower(e.str("LOG_FORMAT", "json")),
			File:   e.str("LOG_FILE", ""),
		},
		RateLimit: RateLimit{
			Strategy:          strings.ToLower(e.str("RATE_LIMIT_STRATEGY", "none")),
			MinDelay:          e.seconds("RATE_LIMIT_MIN_DELAY", time.Second),
			MaxCallsPerSecond: e.integer("RATE_LIMIT_MAX_CALLS_PER_SECOND", 2),
			Warning:           e.float("RATE_LIMIT_WARNING_THRESHOLD", 0.8),
			Critical:          e.float("RATE_LIMIT_CRITICAL_THRESHOLD", 0.9),
			MaxRequests:       e.integer("RATE_LIMIT_MAX_REQUESTS", 60),
			Window:            e.seconds("RATE_LIMIT_WINDOW", 60*time.Second),
			RPS:               e.float("RATE_LIMIT_RPS", 1),
			Burst:             e.integer("RATE_LIMIT_BURST", 1),
			RedisPrefix:       e.str("RATE_LIMIT_REDIS_PREFIX", "conveyor:ratelimit"),
		},
		RedisURL:    e.str("REDIS_URL", ""),
		DatabaseURL: e.str("DB_URL", ""),
		WorkerPort:  e.str("WORKER_PORT", defaultWorkerPort),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		cfg.TimezoneErr = err
		loc = time.UTC
	}
	cfg.Location = loc

	if len(e.errs) > 0 {
		return nil, errors.Join(e.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные поля.
func (c *Config) Validate() error {
	var errs []error
	if c.Provider == "" {
		errs = append(errs, fmt.Errorf("%w: PROVIDER_NAME is required", ErrInvalidConfig))
	}
	if c.AuthToken == "" {
		errs = append(errs, fmt.Errorf("%w: PROVIDER_AUTH_TOKEN is required", ErrInvalidConfig))
	}
	if c.Hub.Transport != "grpc" && c.Hub.Transport != "amqp" {
		errs = append(errs, fmt.Errorf("%w: HUB_TRANSPORT must be grpc or amqp, got %q", ErrInvalidConfig, c.Hub.Transport))
	}
	if c.ExecutionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: TASK_EXECUTION_TIMEOUT must be positive", ErrInvalidConfig))
	}
	if c.RateLimit.Strategy == "redis" && c.RedisURL == "" {
		errs = append(errs, fmt.Errorf("%w: REDIS_URL is required for redis rate limit strategy", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// env — чтение переменных с накоплением ошибок разбора.
type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *env) integer(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, raw))
		return def
	}
	return v
}

func (e *env) float(key string, def float64) float64 {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, raw))
		return def
	}
	return v
}

func (e *env) boolean(key string, def bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, key, raw))
		return def
	}
	return v
}

// seconds разбирает число секунд (допускается дробное) или строку time.ParseDuration.
func (e *env) seconds(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(v * float64(time.Second))
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	e.errs = append(e.errs, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfig, key, raw))
	return def
}

// Governor возвращает параметры provider-wide governor.
// Клиент Redis передаётся отдельно: его создаёт вызывающий.
func (c *Config) Governor(client redis.Scripter) ratelimit.Config {
	return ratelimit.Config{
		Strategy:          c.RateLimit.Strategy,
		MinDelay:          c.RateLimit.MinDelay,
		MaxCallsPerSecond: c.RateLimit.MaxCallsPerSecond,
		Warning:           c.RateLimit.Warning,
		Critical:          c.RateLimit.Critical,
		MaxRequests:       c.RateLimit.MaxRequests,
		Window:            c.RateLimit.Window,
		RPS:               c.RateLimit.RPS,
		Burst:             c.RateLimit.Burst,
		Redis:             client,
		RedisPrefix:       c.RateLimit.RedisPrefix,
	}
}

// LogOptions возвращает параметры логгера.
func (c *Config) LogOptions() telemetry.LogOptions {
	return telemetry.LogOptions{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		File:   c.Log.File,
	}
}
