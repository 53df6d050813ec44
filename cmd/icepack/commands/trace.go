// Package commands implements CLI command handlers for icepack.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/icepack-dev/icepack/internal/config"
	"github.com/icepack-dev/icepack/internal/observability"
	"github.com/icepack-dev/icepack/pkg/graph"
	"github.com/icepack-dev/icepack/pkg/hooks"
	"github.com/icepack-dev/icepack/pkg/pysrc"
	"github.com/icepack-dev/icepack/pkg/resolver"
	"github.com/icepack-dev/icepack/pkg/safeconv"
	"github.com/icepack-dev/icepack/pkg/scancache"
	"github.com/icepack-dev/icepack/pkg/version"
	"github.com/icepack-dev/icepack/pkg/warn"
)

// TraceCommand holds configuration for the trace command.
type TraceCommand struct {
	configPath    string
	searchPaths   []string
	excludes      []string
	hiddenImports []string
	hooksDir      string
	useCache      bool
	cachePath     string
	workers       int
	maxFileSize   string
	dedupe        bool
	format        string
	output        string
	plotPath      string
	summary       bool
	noColor       bool

	stdout io.Writer
	stderr io.Writer
}

// NewTraceCommand creates the trace command.
func NewTraceCommand() *cobra.Command {
	return newTraceCommand(&TraceCommand{stdout: os.Stdout, stderr: os.Stderr})
}

func newTraceCommand(tc *TraceCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <entry-script>",
		Short: "Trace a Python program's imports and report unresolved modules",
		Long: `Trace walks the import graph of a Python program starting at its entry
script, resolves every import against the configured search paths, and
reports each module it could not resolve together with the importers and
the syntactic context (top-level, conditional, delayed, optional) of every
reference.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return tc.run(cobraCmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&tc.configPath, "config", "c", "", "config file path (default: .icepack.yaml)")
	cmd.Flags().StringSliceVarP(&tc.searchPaths, "path", "p", nil, "module search paths (default: entry script directory)")
	cmd.Flags().StringSliceVarP(&tc.excludes, "exclude", "x", nil, "module names to exclude from the trace")
	cmd.Flags().StringSliceVar(&tc.hiddenImports, "hidden-import", nil, "extra modules to trace as if imported by the entry script")
	cmd.Flags().StringVar(&tc.hooksDir, "hooks-dir", "", "directory with hook-*.json files")
	cmd.Flags().BoolVar(&tc.useCache, "cache", false, "reuse parse results across runs")
	cmd.Flags().StringVar(&tc.cachePath, "cache-path", "", "scan cache file location")
	cmd.Flags().IntVarP(&tc.workers, "workers", "w", 0, "parallel parse width")
	cmd.Flags().StringVar(&tc.maxFileSize, "max-file-size", "", "skip source files larger than this (e.g. 1MB)")
	cmd.Flags().BoolVar(&tc.dedupe, "dedupe", false, "drop duplicate (importer, style) pairs per module")
	cmd.Flags().StringVarP(&tc.format, "format", "f", "", "report format: text, json, yaml")
	cmd.Flags().StringVarP(&tc.output, "output", "o", "", "report file (default: stdout)")
	cmd.Flags().StringVar(&tc.plotPath, "plot", "", "write an HTML chart page to this file")
	cmd.Flags().BoolVar(&tc.summary, "summary", false, "print a walk summary table to stderr")
	cmd.Flags().BoolVar(&tc.noColor, "no-color", false, "disable colored summary output")

	return cmd
}

func (tc *TraceCommand) run(cmd *cobra.Command, entryPath string) error {
	cfg, err := tc.loadConfig(cmd)
	if err != nil {
		return err
	}

	providers, err := observability.Init(observability.Config{
		ServiceName:    "icepack",
		ServiceVersion: version.Version,
		Mode:           observability.ModeCLI,
		OTLPEndpoint:   cfg.Observability.OTLPEndpoint,
		OTLPHeaders:    observability.ParseOTLPHeaders(cfg.Observability.OTLPHeaders),
		OTLPInsecure:   cfg.Observability.OTLPInsecure,
		SampleRatio:    cfg.Observability.SampleRatio,
		LogLevel:       observability.ParseLogLevel(cfg.Log.Level),
		LogJSON:        cfg.Log.JSON,
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	if cfg.Observability.DiagnosticsAddr != "" {
		diag, diagErr := observability.NewDiagnosticsServer(cfg.Observability.DiagnosticsAddr)
		if diagErr != nil {
			return diagErr
		}

		defer func() { _ = diag.Close() }()
	}

	metrics, err := observability.NewWalkMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create walk metrics: %w", err)
	}

	report, stats, duration, err := tc.trace(cmd.Context(), cfg, entryPath, providers)

	metrics.RecordWalk(cmd.Context(), traceOutcome(stats, err), duration)

	if err != nil {
		return err
	}

	renderErr := tc.render(report, cfg.Output.Format)
	if renderErr != nil {
		return renderErr
	}

	if tc.summary {
		tc.printSummary(report, stats, duration)
	}

	return nil
}

// loadConfig loads the config file and applies explicit flag overrides.
func (tc *TraceCommand) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(tc.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("path") {
		cfg.SearchPaths = tc.searchPaths
	}

	cfg.Excludes = append(cfg.Excludes, tc.excludes...)
	cfg.HiddenImports = append(cfg.HiddenImports, tc.hiddenImports...)

	if cmd.Flags().Changed("hooks-dir") {
		cfg.Hooks.Dir = tc.hooksDir
	}

	if cmd.Flags().Changed("cache") {
		cfg.Cache.Enabled = tc.useCache
	}

	if cmd.Flags().Changed("cache-path") {
		cfg.Cache.Path = tc.cachePath
	}

	if cmd.Flags().Changed("workers") {
		cfg.Trace.Workers = tc.workers
	}

	if cmd.Flags().Changed("max-file-size") {
		size, parseErr := humanize.ParseBytes(tc.maxFileSize)
		if parseErr != nil {
			return nil, fmt.Errorf("parse max-file-size %q: %w", tc.maxFileSize, parseErr)
		}

		cfg.Trace.MaxFileSize = safeconv.MustUint64ToInt64(size)
	}

	if cmd.Flags().Changed("dedupe") {
		cfg.Trace.DedupeOccurrences = tc.dedupe
	}

	if cmd.Flags().Changed("format") {
		cfg.Output.Format = tc.format
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return cfg, nil
}

// trace builds the walker from config and runs it.
func (tc *TraceCommand) trace(
	ctx context.Context,
	cfg *config.Config,
	entryPath string,
	providers observability.Providers,
) (*warn.Report, *graph.Stats, time.Duration, error) {
	parser, err := pysrc.NewParser()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("create parser: %w", err)
	}

	searchPaths := cfg.SearchPaths
	if len(searchPaths) == 0 {
		searchPaths = []string{filepath.Dir(entryPath)}
	}

	res := resolver.New(searchPaths, resolver.WithExcludes(cfg.Excludes...))

	hookSet, loadErrors, err := hooks.LoadDir(cfg.Hooks.Dir)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("load hooks: %w", err)
	}

	for _, loadErr := range loadErrors {
		providers.Logger.Warn("skipping invalid hook", "path", loadErr.Path, "error", loadErr.Err)
	}

	injectHiddenImports(hookSet, entryPath, cfg.HiddenImports)

	var cache *scancache.Cache
	if cfg.Cache.Enabled {
		cache = scancache.Open(cfg.Cache.Path)
	}

	walker := graph.NewWalker(parser, res, graph.Options{
		Workers:           cfg.Trace.Workers,
		MaxFileSize:       cfg.Trace.MaxFileSize,
		DedupeOccurrences: cfg.Trace.DedupeOccurrences,
		Hooks:             hookSet,
		Cache:             cache,
		Logger:            providers.Logger,
	})

	start := time.Now()

	report, stats, err := walker.Walk(ctx, entryPath)

	duration := time.Since(start)

	if err != nil {
		return nil, stats, duration, err
	}

	if cache != nil {
		saveErr := cache.Save()
		if saveErr != nil {
			providers.Logger.Warn("scan cache not saved", "path", cfg.Cache.Path, "error", saveErr)
		}
	}

	return report, stats, duration, nil
}

// injectHiddenImports attaches configured hidden imports to the entry
// module so the walker traces them as if the entry script imported them.
func injectHiddenImports(hookSet hooks.Set, entryPath string, hidden []string) {
	if len(hidden) == 0 {
		return
	}

	entryName := strings.TrimSuffix(filepath.Base(entryPath), filepath.Ext(entryPath))

	hook := hookSet[entryName]
	hook.Module = entryName
	hook.HiddenImports = append(hook.HiddenImports, hidden...)
	hookSet[entryName] = hook
}

func (tc *TraceCommand) render(report *warn.Report, format string) error {
	out := tc.stdout

	if tc.output != "" {
		file, err := os.Create(tc.output)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}

		defer func() { _ = file.Close() }()

		out = file
	}

	var err error

	switch format {
	case "json":
		err = report.WriteJSON(out)
	case "yaml":
		err = report.WriteYAML(out)
	default:
		err = report.WriteText(out)
	}

	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if tc.plotPath != "" {
		return tc.renderPlot(report)
	}

	return nil
}

func (tc *TraceCommand) renderPlot(report *warn.Report) error {
	file, err := os.Create(tc.plotPath)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}

	defer func() { _ = file.Close() }()

	plotErr := report.WritePlot(file)
	if plotErr != nil {
		return fmt.Errorf("render plot: %w", plotErr)
	}

	return nil
}

func traceOutcome(stats *graph.Stats, err error) observability.WalkOutcome {
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
