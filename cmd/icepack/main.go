// Package main provides the entry point for the icepack CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/icepack-dev/icepack/cmd/icepack/commands"
	"github.com/icepack-dev/icepack/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "icepack",
		Short: "Icepack - Python import tracer and freeze-readiness reporter",
		Long: `Icepack traces a Python program's import graph from its entry script and
reports every module reference it could not resolve, together with the
syntactic context of each import.

Commands:
  trace     Trace an entry script and report unresolved modules
  diff      Compare two trace reports
  hooks     Inspect and validate hook files
  mcp       Start MCP server for AI agent integration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands.
	rootCmd.AddCommand(commands.NewTraceCommand())
	rootCmd.AddCommand(commands.NewDiffCommand())
	rootCmd.AddCommand(commands.NewHooksCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "icepack %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
