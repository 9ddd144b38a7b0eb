// Conveyor Worker — провайдер-воркер Hub.
//
// Worker:
//   - Подключается к Hub (gRPC или AMQP) с exponential backoff
//   - Забирает tasks и выполняет зарегистрированные actions
//   - Соблюдает rate limit провайдера и отдельных actions
//   - Отправляет нормализованный результат обратно
//
// SIGHUP перечитывает RATE_LIMIT_* и подменяет provider-wide governor.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/catalog"
	"github.com/shaiso/Conveyor/internal/config"
	"github.com/shaiso/Conveyor/internal/hub"
	"github.com/shaiso/Conveyor/internal/ratelimit"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/telemetry"
	"github.com/shaiso/Conveyor/internal/worker"
)

// http.request: не больше 10 исходящих запросов в секунду.
const (
	httpRPS   = 10
	httpBurst = 10
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger, logCloser, err := telemetry.SetupLogger(cfg.LogOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	logger.Info("starting conveyor-worker",
		"provider", cfg.Provider,
		"hub", cfg.Hub.URL,
		"transport", cfg.Hub.Transport,
	)
	if cfg.TimezoneErr != nil {
		logger.Warn("invalid timezone, using UTC", "timezone", cfg.Timezone, "error", cfg.TimezoneErr)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Redis для стратегии redis
	var scripter redis.Scripter
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not available, rate limit checks will fail open", "error", err)
		} else {
			logger.Info("redis connected")
		}
		scripter = rdb
	}

	governor, err := ratelimit.NewDynamic(cfg.Governor(scripter), ratelimit.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create rate limit governor", "error", err)
		os.Exit(1)
	}
	logger.Info("rate limit configured", "strategy", governor.Config().Strategy)

	go reloadOnSignal(ctx, governor, scripter, logger)

	// DB pool для users.*
	var users catalog.UserStore
	if cfg.DatabaseURL != "" {
		pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		userRepo := repo.NewUserRepo(pool)
		if err := userRepo.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare database schema", "error", err)
			os.Exit(1)
		}
		users = userRepo
		logger.Info("database connected")
	}

	httpGovernor, err := ratelimit.NewTokenBucket(httpRPS, httpBurst, ratelimit.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create http governor", "error", err)
		os.Exit(1)
	}

	// Реестр actions
	registry := actions.NewRegistry(logger)
	catalog.Register(registry, catalog.Deps{
		Users:        users,
		HTTPClient:   &http.Client{Timeout: time.Minute},
		HTTPGovernor: httpGovernor,
		Logger:       logger,
	})
	logger.Info("actions registered", "count", registry.Len(), "actions", registry.Names())

	dial, err := hub.NewDialer(cfg.Hub.Transport, hub.Options{
		URL:    cfg.Hub.URL,
		TLS:    cfg.Hub.TLS,
		Logger: logger,
	})
	if err != nil {
		logger.Error("failed to create hub dialer", "error", err)
		os.Exit(1)
	}

	// Создаём worker
	w, err := worker.New(worker.Config{
		Dial: dial,
		Dispatcher: worker.NewDispatcher(worker.DispatcherConfig{
			Registry: registry,
			Governor: governor,
			Provider: cfg.Provider,
			Location: cfg.Location,
			Logger:   logger,
		}),
		Provider:         cfg.Provider,
		AuthToken:        cfg.AuthToken,
		ExecutionTimeout: cfg.ExecutionTimeout,
		ConnectBudget:    cfg.Hub.ConnectBudget,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("failed to create worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		state := w.State()
		rw.Header().Set("Content-Type", "application/json")
		if !state.IsOnline() {
			rw.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(rw).Encode(map[string]string{
			"worker_id": w.ID(),
			"state":     state.String(),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.WorkerPort,
		Handler:           telemetry.Chain(telemetry.Recovery(logger), telemetry.AccessLog(logger))(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Запускаем worker до сигнала завершения
	runErr := w.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}

	if runErr != nil {
		logger.Error("worker stopped with error", "error", runErr)
		logCloser.Close()
		os.Exit(1)
	}
	logger.Info("conveyor-worker stopped")
}

// reloadOnSignal перечитывает конфигурацию rate limit по SIGHUP.
func reloadOnSignal(ctx context.Context, governor *ratelimit.Dynamic, scripter redis.Scripter, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Load()
			if err != nil {
				logger.Error("reload config failed", "error", err)
				continue
			}
			if err := governor.Update(cfg.Governor(scripter)); err != nil {
				logger.Error("rate limit update rejected", "error", err)
				continue
			}
			logger.Info("rate limit reloaded", "strategy", cfg.RateLimit.Strategy)
		}
	}
}
