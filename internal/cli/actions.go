package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/actions"
	"github.com/shaiso/Conveyor/internal/contract"
)

// actionView — представление action для вывода.
type actionView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Params      string `json:"params"`
	Payload     string `json:"payload"`
	Account     string `json:"account"`
}

func viewOf(a *actions.Action) actionView {
	return actionView{
		Name:        a.Name,
		Description: a.Description,
		Params:      a.Params.String(),
		Payload:     contractName(a.Payload),
		Account:     contractName(a.Account),
	}
}

func contractName(c contract.Contract) string {
	if c == nil {
		return "-"
	}
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}

// NewActionsCmd создаёт группу команд для просмотра actions.
func NewActionsCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Inspect registered actions",
	}

	cmd.AddCommand(
		newActionsListCmd(envFn, outputFn),
		newActionsShowCmd(envFn, outputFn),
	)

	return cmd
}

func newActionsListCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			all := env.Registry.Actions()
			views := make([]actionView, len(all))
			rows := make([][]string, len(all))
			for i, a := range all {
				views[i] = viewOf(a)
				rows[i] = []string{views[i].Name, views[i].Params, views[i].Description}
			}

			out.Print([]string{"NAME", "PARAMS", "DESCRIPTION"}, rows, views)
			return nil
		},
	}
}

func newActionsShowCmd(envFn func() (*Env, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show action details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFn()
			if err != nil {
				return err
			}
			out := outputFn()

			a, err := env.Registry.Lookup(args[0])
			if err != nil {
				return err
			}

			v := viewOf(a)
			out.Print(
				[]string{"NAME", "PARAMS", "PAYLOAD", "ACCOUNT"},
				[][]string{{v.Name, v.Params, v.Payload, v.Account}},
				v,
			)
			return nil
		},
	}
}
