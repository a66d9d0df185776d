package diag

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/persistent-clutter/internal/clutter"
)

// ChartInput is one convergence series to render.
type ChartInput struct {
	Title    string
	Subtitle string
	Stats    []clutter.VolumeStat
}

// RenderConvergenceChart writes an HTML line chart of threshold% and
// change% per volume to w.
func RenderConvergenceChart(in ChartInput, w io.Writer) error {
	if in.Title == "" {
		in.Title = "Persistent clutter convergence"
	}
	xs := make([]string, len(in.Stats))
	thr := make([]opts.LineData, len(in.Stats))
	chg := make([]opts.LineData, len(in.Stats))
	for i, s := range in.Stats {
		xs[i] = strconv.Itoa(s.Index)
		thr[i] = opts.LineData{Value: s.ThresholdPercent()}
		chg[i] = opts.LineData{Value: s.ChangePercent()}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: in.Title, Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: in.Title, Subtitle: in.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Volume", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Percent", NameLocation: "middle", NameGap: 40}),
	)
	line.SetXAxis(xs).
		AddSeries("threshold %", thr).
		AddSeries("change %", chg)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render convergence chart: %w", err)
	}
	return nil
}
