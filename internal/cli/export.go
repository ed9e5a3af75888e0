package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the full history state document to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			data, err := env.engine.ExportState()
			if err != nil {
				return fmt.Errorf("export history state: %w", err)
			}
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := os.WriteFile(args[0], append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write state file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "state written to %s\n", args[0])
			return nil
		},
	}
}
