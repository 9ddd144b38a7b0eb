// Conveyor CLI — локальная работа с actions воркера без Hub.
//
// Использование:
//
//	conveyor [--json] [--provider NAME] [--timezone TZ] [--db-url DSN] <command> [flags]
//
// Команды:
//
//	actions   Просмотр зарегистрированных actions
//	dispatch  Выполнение одной task через dispatcher
//	governor  Проверка стратегий rate limit
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/catalog"
	"github.com/shaiso/Conveyor/internal/cli"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var (
		jsonOutput bool
		provider   string
		timezone   string
		dbURL      string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:           "conveyor",
		Short:         "Conveyor CLI — run provider actions locally",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := rootCmd.PersistentFlags()
	f.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	f.StringVar(&provider, "provider", envOr("PROVIDER_NAME", "local"), "Provider name")
	f.StringVar(&timezone, "timezone", envOr("TIMEZONE", "UTC"), "Timezone for local_time")
	f.StringVar(&dbURL, "db-url", os.Getenv("DB_URL"), "Postgres DSN for users.* actions")
	f.BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	envFn := func() (*cli.Env, error) {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}

		var logger *slog.Logger
		if verbose {
			logger = telemetry.NewLogger(os.Stderr, telemetry.LogOptions{Level: "DEBUG", Format: "text"})
		} else {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}

		var users catalog.UserStore
		if dbURL != "" {
			pool, err := repo.NewPool(rootCmd.Context(), dbURL)
			if err != nil {
				return nil, err
			}
			userRepo := repo.NewUserRepo(pool)
			if err := userRepo.EnsureSchema(rootCmd.Context()); err != nil {
				pool.Close()
				return nil, err
			}
			users = userRepo
		}

		registry := actions.NewRegistry(logger)
		catalog.Register(registry, catalog.Deps{Users: users, Logger: logger})

		return &cli.Env{
			Registry: registry,
			Provider: provider,
			Location: loc,
			Logger:   logger,
		}, nil
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewActionsCmd(envFn, outputFn),
		cli.NewDispatchCmd(envFn, outputFn),
		cli.NewGovernorCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
