package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hylla/rewind/internal/adapters/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var bind string
	var mcpEndpoint string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the history engine over MCP streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			cfg := server.Config{
				HTTPBind:      env.cfg.Server.Bind,
				MCPEndpoint:   env.cfg.Server.MCPEndpoint,
				ServerName:    "rewind",
				ServerVersion: "dev",
			}
			if bind != "" {
				cfg.HTTPBind = bind
			}
			if mcpEndpoint != "" {
				cfg.MCPEndpoint = mcpEndpoint
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			env.logger.Info("serving history engine", "bind", cfg.HTTPBind, "mcp", cfg.MCPEndpoint)
			return server.Run(ctx, cfg, server.Dependencies{History: env.engine})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP endpoint path (overrides config)")
	return cmd
}
