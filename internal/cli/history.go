package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hylla/rewind/internal/domain"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <workflow-id> <user-id>",
		Short: "List the undo and redo entries for one key, oldest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			undo, redo := env.engine.Entries(args[0], args[1])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "undo (%d):\n", len(undo))
			printEntries(cmd, undo)
			fmt.Fprintf(out, "redo (%d):\n", len(redo))
			printEntries(cmd, redo)
			return nil
		},
	}
}

// printEntries writes one stack side, oldest first.
func printEntries(cmd *cobra.Command, entries []domain.OperationEntry) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "  (empty)")
		return
	}
	for _, entry := range entries {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.Operation.Type,
			entry.Operation.Summary(),
		)
	}
}
