package commands

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/icepack-dev/icepack/pkg/graph"
	"github.com/icepack-dev/icepack/pkg/safeconv"
	"github.com/icepack-dev/icepack/pkg/warn"
)

// printSummary renders a walk summary table to stderr so it never mixes
// with a report written to stdout.
func (tc *TraceCommand) printSummary(report *warn.Report, stats *graph.Stats, duration time.Duration) {
	if tc.noColor {
		color.NoColor = true
	}

	missing := len(report.Missing())
	excluded := len(report.Excluded())

	tbl := table.NewWriter()
	tbl.SetOutputMirror(tc.stderr)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Walk Summary", ""})
	tbl.AppendRows([]table.Row{
		{"Files parsed", stats.FilesParsed},
		{"Cache hits", stats.CacheHits},
		{"Parse errors", stats.ParseErrors},
		{"Bytes scanned", humanize.Bytes(safeconv.MustInt64ToUint64(stats.BytesScanned))},
		{"Modules resolved", stats.Resolved},
		{"Modules missing", missing},
		{"Modules excluded", excluded},
		{"Duration", duration.Round(time.Millisecond)},
	})
	tbl.Render()

	if missing == 0 {
		color.New(color.FgGreen).Fprintf(tc.stderr, "All imports resolved\n")

		return
	}

	color.New(color.FgYellow).Fprintf(tc.stderr, "%s unresolved\n", pluralModules(missing))
}

func pluralModules(n int) string {
	if n == 1 {
		return "1 module"
	}

	return fmt.Sprintf("%d modules", n)
}
