package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var redoOnly bool

	cmd := &cobra.Command{
		Use:   "clear <workflow-id> <user-id>",
		Short: "Drop the stacks for one key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			if redoOnly {
				env.engine.ClearRedo(args[0], args[1])
				fmt.Fprintln(cmd.OutOrStdout(), "redo stack cleared")
				return nil
			}
			env.engine.Clear(args[0], args[1])
			fmt.Fprintln(cmd.OutOrStdout(), "stacks cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&redoOnly, "redo-only", false, "clear only the redo stack")
	return cmd
}
