package warn

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	topModulesLimit = 25
	plotPieRadius   = "60%"
	xAxisRotate     = 60
)

// WritePlot renders an HTML page visualizing the report: most-referenced
// unresolved modules and the distribution of import styles.
func (r *Report) WritePlot(w io.Writer) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.PageTitle = "Unresolved Import Report"

	page.AddCharts(
		r.buildModulesBarChart(),
		r.buildStylesPie(),
	)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}

// buildModulesBarChart charts the unresolved modules with the most recorded
// occurrences.
func (r *Report) buildModulesBarChart() *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Most Referenced Unresolved Modules",
			Subtitle: "Occurrence counts across the traced import graph",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate, Interval: "0"},
		}),
	)

	type moduleCount struct {
		name  string
		count int
	}

	counts := make([]moduleCount, 0, len(r.Entries))
	for _, entry := range r.Entries {
		counts = append(counts, moduleCount{name: entry.Module, count: len(entry.Occurrences)})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}

		return counts[i].name < counts[j].name
	})

	if len(counts) > topModulesLimit {
		counts = counts[:topModulesLimit]
	}

	labels := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))

	for i, mc := range counts {
		labels[i] = mc.name
		data[i] = opts.BarData{Value: mc.count}
	}

	bar.SetXAxis(labels)
	bar.AddSeries("Occurrences", data)

	return bar
}

// buildStylesPie charts how occurrences distribute across import styles.
func (r *Report) buildStylesPie() *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Import Styles",
			Subtitle: "How unresolved imports are guarded",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
	)

	styleCounts := make(map[Style]int)

	for _, entry := range r.Entries {
		for _, occ := range entry.Occurrences {
			styleCounts[occ.Style]++
		}
	}

	data := make([]opts.PieData, 0, len(styleCounts))

	for style := StyleTopLevel; style <= StyleOptional; style++ {
		if count := styleCounts[style]; count > 0 {
			data = append(data, opts.PieData{Name: style.String(), Value: count})
		}
	}

	pie.AddSeries("Styles", data).
		SetSeriesOptions(
			charts.WithPieChartOpts(opts.PieChart{Radius: plotPieRadius}),
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {c} ({d}%)",
			}),
		)

	return pie
}
