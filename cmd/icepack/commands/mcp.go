package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/icepack-dev/icepack/internal/mcp"
	"github.com/icepack-dev/icepack/internal/observability"
	"github.com/icepack-dev/icepack/pkg/version"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes icepack capabilities as tools that AI agents can
discover and invoke:
  - icepack_trace: trace a Python program's import graph and report unresolved modules
  - icepack_classify: classify the imports of inline Python source by syntactic context`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			providers, err := initMCPObservability(debug)
			if err != nil {
				return err
			}

			defer func() {
				shutdownErr := providers.Shutdown(context.Background())
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			metrics, metricsErr := observability.NewWalkMetrics(providers.Meter)
			if metricsErr != nil {
				return metricsErr
			}

			deps := mcp.ServerDeps{Logger: providers.Logger, Metrics: metrics, Tracer: providers.Tracer}

			srv := mcp.NewServer(deps)

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}

// initMCPObservability builds providers for MCP mode. Logs always go to
// stderr; stdout carries the MCP protocol stream.
func initMCPObservability(debug bool) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.Mode = observability.ModeMCP
	cfg.ServiceVersion = version.Version
	cfg.LogJSON = true

	if debug {
		cfg.LogLevel = slog.LevelDebug
	}

	return observability.Init(cfg)
}
