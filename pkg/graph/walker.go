// Package graph walks a program's statically reachable import graph: parse
// the entry script, classify its imports, resolve each referenced module,
// descend into resolvable source modules, and fold everything unresolvable
// into the warn report.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/icepack-dev/icepack/pkg/hooks"
	"github.com/icepack-dev/icepack/pkg/pysrc"
	"github.com/icepack-dev/icepack/pkg/resolver"
	"github.com/icepack-dev/icepack/pkg/scancache"
	"github.com/icepack-dev/icepack/pkg/warn"
)

// ErrEntryUnreadable is the only fatal condition of a walk: the entry point
// itself cannot be read, so there is nothing to trace.
var ErrEntryUnreadable = errors.New("entry point unreadable")

// defaultWorkers bounds parallel per-level file parsing when the caller does
// not configure a worker count.
const defaultWorkers = 4

// defaultMaxFileSize skips pathologically large sources (1 MiB), matching
// the tracer's interest in import statements rather than payload data.
const defaultMaxFileSize = 1 << 20

// Stats counts what a walk touched. Purely informational.
type Stats struct {
	FilesParsed  int
	CacheHits    int
	ParseErrors  int
	BytesScanned int64
	Resolved     int
	Missing      int
	Excluded     int
}

// Options configures a Walker.
type Options struct {
	// Workers bounds parallel file parsing per BFS level.
	Workers int
	// MaxFileSize skips source files larger than this many bytes.
	MaxFileSize int64
	// DedupeOccurrences drops duplicate (importer, style) pairs per entry.
	DedupeOccurrences bool
	// Hooks supplements the walk with hidden and excluded imports.
	Hooks hooks.Set
	// Cache reuses extraction results across runs when non-nil.
	Cache *scancache.Cache
	// Logger receives walk diagnostics. Nil uses the default logger.
	Logger *slog.Logger
}

// Walker traces import graphs. Construct with NewWalker; one Walker may run
// any number of walks.
type Walker struct {
	parser   *pysrc.Parser
	resolver *resolver.Resolver
	opts     Options
}

// NewWalker creates a Walker over the given parser and resolver.
func NewWalker(parser *pysrc.Parser, res *resolver.Resolver, opts Options) *Walker {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}

	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaultMaxFileSize
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Walker{parser: parser, resolver: res, opts: opts}
}

// task is one module scheduled for parsing.
type task struct {
	// module is the dotted name the file is known as ("" only for the
	// entry script, which reports under its stem name).
	module string
	// pkg is the dotted package context for relative import resolution.
	pkg string
	// path is the source file to parse.
	path string
	// importer is the name the module reports as when its own imports are
	// recorded.
	importer string
}

// Walk traces the graph from entryPath and returns the aggregated report.
// Everything except an unreadable entry folds into the report; the returned
// error is non-nil only for ErrEntryUnreadable wrapping.
func (w *Walker) Walk(ctx context.Context, entryPath string) (*warn.Report, *Stats, error) {
	info, err := os.Stat(entryPath)
	if err != nil || info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", ErrEntryUnreadable, entryPath)
	}

	// Probe readability up front; the BFS below treats read failures as
	// per-module events, the entry must not be one.
	probe, err := os.Open(entryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrEntryUnreadable, entryPath)
	}
	_ = probe.Close()

	entryName := strings.TrimSuffix(filepath.Base(entryPath), filepath.Ext(entryPath))

	builder := warn.NewBuilder(
		warn.WithProgram(filepath.Base(entryPath)),
		warn.WithDedupe(w.opts.DedupeOccurrences),
	)
	stats := &Stats{}

	visited := map[string]bool{}
	level := []task{{module: entryName, pkg: "", path: entryPath, importer: entryName}}

	for len(level) > 0 {
		extracted, extractErr := w.extractLevel(ctx, level, stats)
		if extractErr != nil {
			return nil, nil, extractErr
		}

		var next []task

		// Merge strictly in queue order so discovery order, and with it
		// the rendered artifact, is deterministic.
		for i, t := range level {
			next = append(next, w.processModule(t, extracted[i], builder, visited, stats)...)
		}

		level = next
	}

	return builder.Build(), stats, nil
}

// extraction is one file's per-goroutine result; the counters fold into the
// shared Stats only during the serialized merge.
type extraction struct {
	imports  []pysrc.RawImport
	size     int64
	parsed   bool
	cacheHit bool
	parseErr bool
}

// extractLevel parses every task of one BFS level, in parallel, returning
// results positionally aligned with the input. Shared state is only touched
// after Wait; each goroutine writes its own slot.
func (w *Walker) extractLevel(ctx context.Context, level []task, stats *Stats) ([][]pysrc.RawImport, error) {
	results := make([]extraction, len(level))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(w.opts.Workers)

	for i, t := range level {
		group.Go(func() error {
			results[i] = w.extractFile(groupCtx, t)

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("extract level: %w", err)
	}

	imports := make([][]pysrc.RawImport, len(level))

	for i, result := range results {
		imports[i] = result.imports

		switch {
		case result.parseErr:
			stats.ParseErrors++
		case result.cacheHit:
			stats.CacheHits++
		case result.parsed:
			stats.FilesParsed++
			stats.BytesScanned += result.size
		}
	}

	return imports, nil
}

// extractFile reads and parses one source file. All failures are folded:
// the result is simply empty and counted.
func (w *Walker) extractFile(ctx context.Context, t task) extraction {
	info, err := os.Stat(t.path)
	if err != nil {
		w.opts.Logger.Warn("stat failed, skipping module", "module", t.module, "path", t.path, "error", err)

		return extraction{parseErr: true}
	}

	if info.Size() > w.opts.MaxFileSize {
		w.opts.Logger.Debug("file exceeds size limit, skipping", "module", t.module, "size", info.Size())

		return extraction{}
	}

	if w.opts.Cache != nil {
		if cached, hit := w.opts.Cache.Lookup(t.path, info); hit {
			return extraction{imports: cached, cacheHit: true}
		}
	}

	content, err := os.ReadFile(t.path)
	if err != nil {
		w.opts.Logger.Warn("read failed, skipping module", "module", t.module, "path", t.path, "error", err)

		return extraction{parseErr: true}
	}

	if !pysrc.IsPython(t.path, content) {
		w.opts.Logger.Debug("not python source, skipping", "module", t.module, "path", t.path)

		return extraction{}
	}

	imports, err := w.parser.ExtractFile(ctx, t.path, content)
	if err != nil {
		w.opts.Logger.Warn("parse failed, skipping module", "module", t.module, "path", t.path, "error", err)

		return extraction{parseErr: true}
	}

	if w.opts.Cache != nil {
		w.opts.Cache.Store(t.path, info, imports)
	}

	return extraction{imports: imports, size: info.Size(), parsed: true}
}

// processModule folds one module's references into the builder and returns
// the next-level tasks it produced.
func (w *Walker) processModule(t task, imports []pysrc.RawImport, builder *warn.Builder, visited map[string]bool, stats *Stats) []task {
	var next []task

	// Hook adjustments apply the moment the module is reached.
	if hook, ok := w.opts.Hooks.Lookup(t.module); ok {
		w.resolver.Exclude(hook.ExcludedImports...)

		for _, hidden := range hook.HiddenImports {
			next = append(next, w.follow(hidden, t.importer, warn.StyleTopLevel, builder, visited, stats)...)
		}
	}

	for _, ref := range imports {
		targets := w.targetNames(t, ref, builder)

		for _, target := range targets {
			next = append(next, w.follow(target, t.importer, ref.Style, builder, visited, stats)...)
		}
	}

	return next
}

// targetNames expands one raw import into the dotted module names to
// resolve.
func (w *Walker) targetNames(t task, ref pysrc.RawImport, builder *warn.Builder) []string {
	if ref.Level > 0 {
		return w.relativeTargets(t, ref, builder)
	}

	if ref.Module == "" {
		return nil
	}

	targets := []string{ref.Module}

	// For from-imports against a source-backed package, the imported
	// names may themselves be submodules; probe them so `from pkg import
	// mod` descends into mod. Names that are plain attributes resolve to
	// nothing and are not reported: the parent entry already accounts
	// for the reference.
	base := w.resolver.Resolve(ref.Module)
	if base.Status == resolver.StatusResolved && base.IsPackage {
		for _, name := range ref.Names {
			if name == pysrc.WildcardName {
				continue
			}

			candidate := ref.Module + "." + name
			if w.resolver.Resolve(candidate).Status == resolver.StatusResolved {
				targets = append(targets, candidate)
			}
		}
	}

	return targets
}

// relativeTargets resolves a relative import against the importing module's
// package context. A level that escapes the package root cannot name a real
// module; it is recorded as missing in its textual form rather than
// aborting.
func (w *Walker) relativeTargets(t task, ref pysrc.RawImport, builder *warn.Builder) []string {
	pkgParts := []string{}
	if t.pkg != "" {
		pkgParts = strings.Split(t.pkg, ".")
	}

	hops := ref.Level - 1
	if hops > len(pkgParts) {
		textual := strings.Repeat(".", ref.Level) + ref.Module
		builder.Record(textual, warn.StatusMissing, t.importer, ref.Style)
		builder.MarkQuoted(textual)

		return nil
	}

	baseParts := pkgParts[:len(pkgParts)-hops]

	base := strings.Join(baseParts, ".")
	if ref.Module != "" {
		if base != "" {
			base += "."
		}

		base += ref.Module
	}

	if base == "" {
		// `from . import x`: the names are the submodule candidates.
		targets := make([]string, 0, len(ref.Names))

		for _, name := range ref.Names {
			if name == pysrc.WildcardName {
				continue
			}

			targets = append(targets, strings.Join(append(baseParts, name), "."))
		}

		return targets
	}

	targets := []string{base}

	for _, name := range ref.Names {
		if name == pysrc.WildcardName {
			continue
		}

		candidate := base + "." + name
		if w.resolver.Resolve(candidate).Status == resolver.StatusResolved {
			targets = append(targets, candidate)
		}
	}

	return targets
}

// follow resolves one dotted target, records unresolvable outcomes, and
// returns a task when the module has source to descend into.
func (w *Walker) follow(target, importer string, style warn.Style, builder *warn.Builder, visited map[string]bool, stats *Stats) []task {
	resolution := w.resolver.Resolve(target)

	switch resolution.Status {
	case resolver.StatusExcluded:
		stats.Excluded++
		builder.Record(target, warn.StatusExcluded, importer, style)

		return nil
	case resolver.StatusMissing:
		stats.Missing++
		builder.Record(target, warn.StatusMissing, importer, style)

		if !w.resolver.KnownRoot(target) && strings.Contains(target, ".") {
			builder.MarkQuoted(target)
		}

		return nil
	case resolver.StatusStdlib:
		stats.Resolved++

		return nil
	case resolver.StatusResolved:
		stats.Resolved++
	}

	if visited[target] {
		return nil
	}

	visited[target] = true

	var next []task

	// Importing a.b.c also initializes a and a.b; walk their sources too.
	if parent := parentPackage(target); parent != "" && !visited[parent] {
		next = append(next, w.follow(parent, importer, style, builder, visited, stats)...)
	}

	if !resolution.Walkable() {
		return next
	}

	pkg := parentPackage(target)
	if resolution.IsPackage {
		pkg = target
	}

	next = append(next, task{
		module:   target,
		pkg:      pkg,
		path:     resolution.Path,
		importer: target,
	})

	return next
}

func parentPackage(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}

	return name[:idx]
}
