package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSetCapacityCommand creates the set-capacity command.
func NewSetCapacityCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-capacity <n>",
		Short: "Set the per-side stack bound and truncate resident stacks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parse capacity %q: %w", args[0], err)
			}
			if n < 1 {
				return fmt.Errorf("capacity must be >= 1, got %d", n)
			}

			env, err := openEnvironment(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			env.engine.SetCapacity(n)
			fmt.Fprintf(cmd.OutOrStdout(), "capacity set to %d\n", env.engine.Capacity())
			return nil
		},
	}
}
