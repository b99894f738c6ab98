// Package report renders solver output for human inspection: PNG snapshots
// of the potential landscape with the electron configuration overlaid,
// convergence traces, and a standalone HTML report.
package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/SchusterLab/Trap-Analysis/internal/anneal"
	"github.com/SchusterLab/Trap-Analysis/internal/maxwell"
)

// micron rescales metre coordinates for axis labels.
const micron = 1e-6

// fieldGrid adapts a FieldMap to the plotter.GridXYZ interface, with axes
// in microns.
type fieldGrid struct {
	fm *maxwell.FieldMap
}

func (g fieldGrid) Dims() (c, r int)   { return g.fm.NX(), g.fm.NY() }
func (g fieldGrid) Z(c, r int) float64 { return g.fm.At(c, r) }
func (g fieldGrid) X(c int) float64    { return g.fm.X[c] / micron }
func (g fieldGrid) Y(r int) float64    { return g.fm.Y[r] / micron }

// Snapshot writes a PNG of the potential landscape with the electron
// configuration r (interleaved metres) drawn on top.
func Snapshot(path string, fm *maxwell.FieldMap, r []float64) error {
	if fm == nil || fm.NX() == 0 || fm.NY() == 0 {
		return fmt.Errorf("report: empty field map")
	}
	if len(r)%2 != 0 {
		return fmt.Errorf("report: odd position count %d", len(r))
	}

	p := plot.New()
	p.Title.Text = "Potential landscape"
	if fm.Quantity != "" {
		p.Title.Text = fm.Quantity
	}
	p.X.Label.Text = "x (um)"
	p.Y.Label.Text = "y (um)"

	heat := plotter.NewHeatMap(fieldGrid{fm}, palette.Heat(16, 1))
	p.Add(heat)

	if len(r) > 0 {
		pts := make(plotter.XYs, len(r)/2)
		for i := range pts {
			pts[i].X = r[2*i] / micron
			pts[i].Y = r[2*i+1] / micron
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("build scatter: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		sc.GlyphStyle.Color = color.RGBA{R: 64, G: 224, B: 255, A: 255}
		p.Add(sc)
		p.Legend.Add(fmt.Sprintf("%d electrons", len(pts)), sc)
		p.Legend.Top = true
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// ConvergenceTrace writes the monitor's energy and gradient norm traces as
// two PNGs (anneal_energy.png, anneal_gradnorm.png) under dir.
func ConvergenceTrace(dir string, m *anneal.Monitor) error {
	if m == nil || len(m.Iters) == 0 {
		return fmt.Errorf("report: empty convergence trace")
	}

	energyPts := make(plotter.XYs, len(m.Iters))
	gradPts := make(plotter.XYs, 0, len(m.Iters))
	for i, it := range m.Iters {
		energyPts[i] = plotter.XY{X: float64(it), Y: m.Energies[i]}
		if g := m.GradNorms[i]; g == g { // skip NaN samples
			gradPts = append(gradPts, plotter.XY{X: float64(it), Y: g})
		}
	}

	if err := saveLine(
		filepath.Join(dir, "anneal_energy.png"),
		"Total energy", "Iteration", "U (eV)", energyPts,
	); err != nil {
		return err
	}
	return saveLine(
		filepath.Join(dir, "anneal_gradnorm.png"),
		"Gradient norm", "Iteration", "|dU/dr| (eV/m)", gradPts,
	)
}

func saveLine(path, title, xlabel, ylabel string, pts plotter.XYs) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}
