package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/ratelimit"
)

// decisionView — одна проверка в симуляции.
type decisionView struct {
	Call    int     `json:"call"`
	At      string  `json:"at"`
	Limited bool    `json:"limited"`
	Wait    float64 `json:"wait_time"`
}

// NewGovernorCmd создаёт группу команд для проверки стратегий rate limit.
func NewGovernorCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "governor",
		Short: "Inspect rate-limit strategies",
	}

	cmd.AddCommand(newGovernorSimulateCmd(outputFn))
	return cmd
}

func newGovernorSimulateCmd(outputFn func() *Output) *cobra.Command {
	var (
		cfg      ratelimit.Config
		calls    int
		interval time.Duration
		action   string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a series of checks against a strategy on a simulated clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			if cfg.Strategy == ratelimit.StrategyRedis {
				return fmt.Errorf("strategy %q needs a live redis, use the worker", cfg.Strategy)
			}

			now := time.Unix(0, 0).UTC()
			clock := func() time.Time { return now }

			g, err := ratelimit.New(cfg, ratelimit.WithClock(clock))
			if err != nil {
				return err
			}

			req := &ratelimit.Request{Action: action}
			views := make([]decisionView, 0, calls)
			rows := make([][]string, 0, calls)
			for i := 1; i <= calls; i++ {
				d, err := g.Check(cmd.Context(), req)
				if err != nil {
					return err
				}
				at := now.Sub(time.Unix(0, 0))
				views = append(views, decisionView{Call: i, At: at.String(), Limited: d.Limited, Wait: d.Wait.Seconds()})
				rows = append(rows, []string{strconv.Itoa(i), at.String(), strconv.FormatBool(d.Limited), d.Wait.String()})
				now = now.Add(interval)
			}

			out.Print([]string{"CALL", "AT", "LIMITED", "WAIT"}, rows, views)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Strategy, "strategy", ratelimit.StrategyWindow, "Strategy: none|time|threshold|window|bucket")
	f.DurationVar(&cfg.MinDelay, "min-delay", 0, "Minimum delay between calls (time, threshold)")
	f.IntVar(&cfg.MaxCallsPerSecond, "max-calls-per-second", 10, "Hard cap per second (threshold)")
	f.IntVar(&cfg.MaxRequests, "max-requests", 3, "Requests per window (window)")
	f.DurationVar(&cfg.Window, "window", time.Minute, "Window length (window)")
	f.Float64Var(&cfg.RPS, "rps", 1, "Refill rate (bucket)")
	f.IntVar(&cfg.Burst, "burst", 1, "Bucket size (bucket)")
	f.IntVar(&calls, "calls", 5, "Number of checks")
	f.DurationVar(&interval, "interval", time.Second, "Simulated time between checks")
	f.StringVar(&action, "action", "simulate", "Action name in the request")

	return cmd
}
