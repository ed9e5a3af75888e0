package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the history state with a previously exported document",
		Long:  "Replace the history state with a previously exported document.\nLegacy (version 1) documents are migrated on import.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read state file: %w", err)
			}

			env, err := openEnvironment(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.engine.ImportState(data); err != nil {
				return fmt.Errorf("import history state: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d stacks (capacity %d)\n",
				len(env.engine.Keys()), env.engine.Capacity())
			return nil
		},
	}
}
