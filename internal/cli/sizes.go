package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hylla/rewind/internal/domain"
)

// NewSizesCommand creates the sizes command.
func NewSizesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sizes [workflow-id user-id]",
		Short: "Show undo/redo depths for one key, or all resident keys",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return fmt.Errorf("provide both workflow-id and user-id, or neither")
			}
			env, err := openEnvironment(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()
			if len(args) == 2 {
				undoSize, redoSize := env.engine.StackSizes(args[0], args[1])
				fmt.Fprintf(out, "%s  undo %d  redo %d\n", domain.StackKey(args[0], args[1]), undoSize, redoSize)
				return nil
			}

			keys := env.engine.Keys()
			if len(keys) == 0 {
				fmt.Fprintln(out, "no history recorded")
				return nil
			}
			for _, stackKey := range keys {
				workflowID, userID := domain.SplitStackKey(stackKey)
				undoSize, redoSize := env.engine.StackSizes(workflowID, userID)
				fmt.Fprintf(out, "%s  undo %d  redo %d\n", stackKey, undoSize, redoSize)
			}
			return nil
		},
	}
}
