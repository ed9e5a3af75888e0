package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hylla/rewind/internal/platform"
)

// NewPathsCommand creates the paths command.
func NewPathsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved config and data locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: "rewind", DevMode: rootOpts.DevMode})
			if err != nil {
				return fmt.Errorf("resolve paths: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			fmt.Fprintf(out, "data:   %s\n", paths.DataDir)
			fmt.Fprintf(out, "db:     %s\n", paths.DBPath)
			return nil
		},
	}
}
