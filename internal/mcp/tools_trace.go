package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/icepack-dev/icepack/internal/observability"
	"github.com/icepack-dev/icepack/pkg/graph"
	"github.com/icepack-dev/icepack/pkg/pysrc"
	"github.com/icepack-dev/icepack/pkg/resolver"
)

// handleTrace processes icepack_trace tool calls.
func (s *Server) handleTrace(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input TraceInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateTraceInput(input)
	if err != nil {
		return errorResult(err)
	}

	parser, err := pysrc.NewParser()
	if err != nil {
		return errorResult(fmt.Errorf("create parser: %w", err))
	}

	searchPaths := input.SearchPaths
	if len(searchPaths) == 0 {
		searchPaths = []string{filepath.Dir(input.EntryPath)}
	}

	res := resolver.New(searchPaths, resolver.WithExcludes(input.Excludes...))
	walker := graph.NewWalker(parser, res, graph.Options{Workers: input.Workers})

	start := time.Now()

	report, stats, walkErr := walker.Walk(ctx, input.EntryPath)

	if s.metrics != nil {
		s.metrics.RecordWalk(ctx, walkOutcome(stats, walkErr), time.Since(start))
	}

	if walkErr != nil {
		return errorResult(fmt.Errorf("trace %s: %w", input.EntryPath, walkErr))
	}

	return jsonResult(report)
}

func validateTraceInput(input TraceInput) error {
	if input.EntryPath == "" {
		return ErrEmptyEntryPath
	}

	if !filepath.IsAbs(input.EntryPath) {
		return fmt.Errorf("%w: %s", ErrEntryPathNotAbsolute, input.EntryPath)
	}

	return nil
}

func walkOutcome(stats *graph.Stats, err error) observability.WalkOutcome {
	if stats == nil {
		return observability.WalkOutcome{Err: err}
	}

	return observability.WalkOutcome{
		FilesParsed:  stats.FilesParsed,
		CacheHits:    stats.CacheHits,
		ParseErrors:  stats.ParseErrors,
		BytesScanned: stats.BytesScanned,
		Resolved:     stats.Resolved,
		Missing:      stats.Missing,
		Excluded:     stats.Excluded,
		Err:          err,
	}
}
