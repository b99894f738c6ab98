// Command trap-solve loads a 2D field export, finds the minimal-energy
// configuration of n electrons by annealed minimisation, derives the
// per-electron frequencies, persists the run and writes figures.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
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
	"github.com/SchusterLab/Trap-Analysis/internal/version"
)

var (
	fldFile    = flag.String("fld", "", "Field export (.fld) with the trap potential (required)")
	dspFile    = flag.String("dsp", "", "Geometry export (.dsp); trapped-electron window from its bounds")
	electrons  = flag.Int("n", 1, "Number of electrons")
	configFile = flag.String("config", "", "Tuning config JSON")
	dbPath     = flag.String("db", "trap_runs.db", "Run database path (empty disables persistence)")
	outDir     = flag.String("out", "plots", "Output directory for figures (empty disables)")
	downsample = flag.Int("downsample", 1, "Grid downsample stride")
)

func main() {
	flag.Parse()
	log.Printf("trap-solve %s", version.String())

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
	if *downsample > 1 {
		if fm, err = fm.Downsample(*downsample); err != nil {
			log.Fatalf("downsample: %v", err)
		}
	}
	xmin, xmax, ymin, ymax := fm.Bounds()
	log.Printf("field map: %dx%d grid, x [%g, %g] m, y [%g, %g] m",
		fm.NX(), fm.NY(), xmin, xmax, ymin, ymax)

	trap, err := potential.NewTrap(fm)
	if err != nil {
		log.Fatalf("build trap: %v", err)
	}

	cfg := config.EmptyTuningConfig()
	if *configFile != "" {
		if cfg, err = config.LoadTuningConfig(*configFile); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	solver, err := anneal.NewSolver(trap, cfg)
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
	if ctx.Err() != nil {
		log.Printf("interrupted; reporting best configuration so far")
	}

	log.Printf("result: U = %.8g eV, |grad| = %.3g eV/m, converged = %v (%s)",
		best.Energy, best.GradNorm, best.Converged, best.Status)

	freqs, err := analysis.TrapFrequencies(trap, best.R)
	if err != nil {
		log.Fatalf("frequencies: %v", err)
	}
	for i := range freqs.OmegaX {
		log.Printf("electron %d: fx = %.4g Hz, fy = %.4g Hz", i, freqs.FxHz(i), freqs.FyHz(i))
	}
	log.Printf("density: %.4g m^-2", analysis.ElectronDensity(trap, best.R))

	if *dspFile != "" {
		design, err := maxwell.LoadDesign(*dspFile)
		if err != nil {
			log.Fatalf("load design: %v", err)
		}
		dxmin, dxmax, _, _ := design.Bounds()
		log.Printf("trapped electrons in x (%g, %g): %d",
			dxmin, dxmax, analysis.TrappedElectrons(best.R, dxmin, dxmax))
	}

	run := &store.SolverRun{
		Kind:       store.RunKindTrap,
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
		if err := report.Snapshot(filepath.Join(*outDir, "snapshot.png"), fm, best.R); err != nil {
			log.Fatalf("snapshot: %v", err)
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
