package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/domain"
)

// ErrTaskFailed — task завершилась со статусом error или limit.
var ErrTaskFailed = errors.New("task failed")

// NewDispatchCmd создаёт команду локального выполнения одной task.
func NewDispatchCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	var (
		payload     string
		payloadFile string
		account     string
	)

	cmd := &cobra.Command{
		Use:   "dispatch ACTION",
		Short: "Run a single task locally through the dispatcher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			if payloadFile != "" {
				data, err := os.ReadFile(payloadFile)
				if err != nil {
					return fmt.Errorf("read payload file: %w", err)
				}
				payload = string(data)
			}

			task := &domain.Task{
				ID:      uuid.NewString(),
				Action:  args[0],
				Payload: []byte(payload),
			}
			if account != "" {
				task.Account = []byte(account)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			resp := env.Dispatcher().Dispatch(ctx, task)

			out.Print(
				[]string{"TASK", "STATUS", "MESSAGE"},
				[][]string{{task.ID, resp.Status.String(), resp.Message}},
				resp,
			)

			switch resp.Status {
			case domain.StatusError, domain.StatusLimit:
				return fmt.Errorf("%w: %s", ErrTaskFailed, resp.Status)
			case domain.StatusWarning:
				out.Warn(resp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "{}", "Task payload (JSON object)")
	cmd.Flags().StringVar(&payloadFile, "payload-file", "", "Read task payload from file")
	cmd.Flags().StringVar(&account, "account", "", "Account data (JSON object)")

	return cmd
}
