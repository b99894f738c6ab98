// Command resonator-solve anneals electrons on the resonator channel: a 1D
// potential cut from a field export, periodic along the channel. It reports
// frequencies and, when a microwave field export and a cavity frequency are
// given, the dispersive cavity shift.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/SchusterLab/Trap-Analysis/internal/analysis"
	"github.com/SchusterLab/Trap-Analysis/internal/anneal"
	"github.com/SchusterLab/Trap-Analysis/internal/config"
	"github.com/SchusterLab/Trap-Analysis/internal/maxwell"
	"github.com/SchusterLab/Trap-Analysis/internal/potential"
	"github.com/SchusterLab/Trap-Analysis/internal/report"
	"github.com/SchusterLab/Trap-Analysis/internal/store"
	"github.com/SchusterLab/Trap-Analysis/internal/units"
	"github.com/SchusterLab/Trap-Analysis/internal/version"
)

var (
	fldFile    = flag.String("fld", "", "Field export (.fld) with the channel potential (required)")
	exFile     = flag.String("ex-fld", "", "Field export with the microwave Ex field")
	cutY       = flag.Float64("cut-y", 0, "y value of the 1D cut through the export, in metres")
	boxLength  = flag.Float64("box", 0, "Periodic box length in metres (0 derives it from the x extent)")
	electrons  = flag.Int("n", 1, "Number of electrons")
	cavityGHz  = flag.Float64("cavity-ghz", 0, "Bare cavity frequency in GHz (0 disables the shift report)")
	configFile = flag.String("config", "", "Tuning config JSON")
	dbPath     = flag.String("db", "trap_runs.db", "Run database path (empty disables persistence)")
	outDir     = flag.String("out", "plots", "Output directory for figures (empty disables)")
)

// cutRow extracts the 1D potential along x at the grid row nearest y.
func cutRow(fm *maxwell.FieldMap, y float64) (x, v []float64) {
	j := 0
	for k := 1; k < fm.NY(); k++ {
		if math.Abs(fm.Y[k]-y) < math.Abs(fm.Y[j]-y) {
			j = k
		}
	}
	return fm.X, fm.Row(j)
}

func main() {
	flag.Parse()
	log.Printf("resonator-solve %s", version.String())

	if *fldFile == "" {
		log.Fatal("-fld is required")
	}
	if *electrons < 0 {
		log.Fatal("-n must be non-negative")
	}

	fm, err := maxwell.LoadFieldMap(*fldFile)
	if err != nil {
		log.Fatalf("load field map: %v", err)
	}
	x, v := cutRow(fm, *cutY)

	box := *boxLength
	if box == 0 {
		box = x[len(x)-1] - x[0]
	}
	rs, err := potential.NewResonator(x, v, box)
	if err != nil {
		log.Fatalf("build resonator: %v", err)
	}
	log.Printf("channel: %d samples, box length %g m", len(x), box)

	if *exFile != "" {
		exMap, err := maxwell.LoadFieldMap(*exFile)
		if err != nil {
			log.Fatalf("load Ex field map: %v", err)
		}
		ex, exv := cutRow(exMap, *cutY)
		if err := rs.SetExField(ex, exv); err != nil {
			log.Fatalf("set Ex field: %v", err)
		}
	}

	cfg := config.EmptyTuningConfig()
	if *configFile != "" {
		if cfg, err = config.LoadTuningConfig(*configFile); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	solver, err := anneal.NewSolver(rs, cfg)
	if err != nil {
		log.Fatalf("create solver: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mon := anneal.NewMonitor(cfg.GetMonitorEvery())
	first, err := solver.Minimize(solver.SeedConfiguration(*electrons), mon)
	if err != nil {
		log.Fatalf("minimise: %v", err)
	}
	best, err := solver.PerturbAndSolve(ctx, first)
	if err != nil && ctx.Err() == nil {
		log.Fatalf("anneal: %v", err)
	}

	log.Printf("result: U = %.8g eV, |grad| = %.3g eV/m, converged = %v (%s)",
		best.Energy, best.GradNorm, best.Converged, best.Status)

	freqs, err := analysis.TrapFrequencies(rs, best.R)
	if err != nil {
		log.Fatalf("frequencies: %v", err)
	}
	for i := range freqs.OmegaX {
		log.Printf("electron %d: fx = %.4g Hz", i, freqs.FxHz(i))
	}
	log.Printf("density: %.4g m^-2", analysis.ElectronDensity(rs, best.R))

	if *cavityGHz > 0 {
		omegaCavity := 2 * math.Pi * *cavityGHz * 1e9
		shift, err := analysis.CavityShift(rs, best.R, analysis.CavityParams{OmegaCavity: omegaCavity})
		if err != nil {
			log.Fatalf("cavity shift: %v", err)
		}
		log.Printf("cavity shift: %.6g rad/s (%.6g GHz)",
			shift, units.HzToGHz(units.OmegaToHz(shift)))
	}

	run := &store.SolverRun{
		Kind:       store.RunKindResonator,
		Source:     filepath.Base(*fldFile),
		Energy:     best.Energy,
		GradNorm:   best.GradNorm,
		Converged:  best.Converged,
		Status:     best.Status,
		Iterations: best.Iterations,
		FuncEvals:  best.FuncEvals,
		Positions:  best.R,
	}
	if params, err := json.Marshal(cfg); err == nil {
		run.ParamsJSON = params
	}

	if *dbPath != "" {
		s, err := store.Open(*dbPath)
		if err != nil {
			log.Fatalf("open run database: %v", err)
		}
		defer s.Close()
		if err := s.InsertRun(run); err != nil {
			log.Fatalf("persist run: %v", err)
		}
		log.Printf("run %s persisted to %s", run.RunID, *dbPath)
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			log.Fatalf("create output dir: %v", err)
		}
		if err := report.ConvergenceTrace(*outDir, mon); err != nil {
			log.Printf("convergence trace: %v", err)
		}
		if err := report.HTMLReport(filepath.Join(*outDir, "run.html"), run, mon); err != nil {
			log.Fatalf("html report: %v", err)
		}
		log.Printf("figures written to %s", *outDir)
	}
}
