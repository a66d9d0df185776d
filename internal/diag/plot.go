package diag

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/persistent-clutter/internal/clutter"
)

// PlotConvergence saves a PNG of threshold% and change% against volume
// number.
func PlotConvergence(stats []clutter.VolumeStat, path string) error {
	if len(stats) == 0 {
		return fmt.Errorf("no volumes to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Persistent clutter convergence (%d volumes)", len(stats))
	p.X.Label.Text = "Volume"
	p.Y.Label.Text = "Percent"

	thrPts := make(plotter.XYs, len(stats))
	chgPts := make(plotter.XYs, len(stats))
	for i, s := range stats {
		thrPts[i] = plotter.XY{X: float64(s.Index), Y: s.ThresholdPercent()}
		chgPts[i] = plotter.XY{X: float64(s.Index), Y: s.ChangePercent()}
	}

	thrLine, err := plotter.NewLine(thrPts)
	if err != nil {
		return err
	}
	thrLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	thrLine.Width = vg.Points(1.5)

	chgLine, err := plotter.NewLine(chgPts)
	if err != nil {
		return err
	}
	chgLine.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	chgLine.Width = vg.Points(1.5)

	p.Add(plotter.NewGrid(), thrLine, chgLine)
	p.Legend.Add("threshold %", thrLine)
	p.Legend.Add("change %", chgLine)
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save convergence plot: %w", err)
	}
	return nil
}
