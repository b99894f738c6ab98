package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/SchusterLab/Trap-Analysis/internal/anneal"
	"github.com/SchusterLab/Trap-Analysis/internal/store"
)

// HTMLReport writes a standalone HTML page for a solver run: an interactive
// scatter of the final configuration plus the convergence trace when a
// monitor is supplied (nil is allowed for stored runs without one).
func HTMLReport(path string, run *store.SolverRun, m *anneal.Monitor) error {
	if run == nil {
		return fmt.Errorf("report: nil run")
	}

	page := components.NewPage()
	page.PageTitle = "Solver run " + run.RunID

	page.AddCharts(configurationScatter(run))
	if m != nil && len(m.Iters) > 0 {
		page.AddCharts(convergenceLine(m))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func configurationScatter(run *store.SolverRun) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(run.Positions)/2)
	maxAbs := 0.0
	for i := 0; i+1 < len(run.Positions); i += 2 {
		x := run.Positions[i] / micron
		y := run.Positions[i+1] / micron
		if ax := abs(x); ax > maxAbs {
			maxAbs = ax
		}
		if ay := abs(y); ay > maxAbs {
			maxAbs = ay
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y}})
	}
	pad := maxAbs * 1.1
	if pad == 0 {
		pad = 1.0
	}

	subtitle := fmt.Sprintf("kind=%s n=%d U=%.6g eV converged=%v (%s)",
		run.Kind, run.NumElectrons, run.Energy, run.Converged, run.Status)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Electron configuration", Width: "700px", Height: "700px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Electron configuration", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "x (um)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "y (um)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("electrons", data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

func convergenceLine(m *anneal.Monitor) *charts.Line {
	xAxis := make([]string, len(m.Iters))
	energies := make([]opts.LineData, len(m.Iters))
	for i, it := range m.Iters {
		xAxis[i] = fmt.Sprintf("%d", it)
		energies[i] = opts.LineData{Value: m.Energies[i]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Convergence", Subtitle: "total energy per sampled iteration"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "U (eV)"}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("energy", energies)
	return line
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
