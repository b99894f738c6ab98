// Package anneal finds equilibrium electron configurations: positions where
// the net force from the trap landscape and the pairwise Coulomb repulsion
// vanishes on every electron.
//
// The search wraps a conjugate-gradient minimiser in a thermal perturbation
// schedule: minimise, kick every electron by a temperature-dependent random
// displacement, re-minimise, and keep the lowest converged energy while the
// temperature cools. This escapes the shallow local minima that a single
// descent from a random seed tends to land in.
package anneal

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/SchusterLab/Trap-Analysis/internal/config"
	"github.com/SchusterLab/Trap-Analysis/internal/monitoring"
	"github.com/SchusterLab/Trap-Analysis/internal/potential"
	"github.com/SchusterLab/Trap-Analysis/internal/units"
)

// ErrNoPotential is returned when a Solver is built without a potential.
var ErrNoPotential = errors.New("anneal: nil potential")

// Result is the outcome of a minimisation. Non-convergence is reported
// through Converged, never as an error: the caller decides whether to retry
// with another seed or schedule.
type Result struct {
	// R is the final configuration in the interleaved layout.
	R []float64
	// Energy is the total configuration energy in eV.
	Energy float64
	// GradNorm is the L-inf norm of the energy gradient in eV/m.
	GradNorm float64
	// Converged reports whether the minimiser met the gradient tolerance
	// (or another success criterion) within its budgets.
	Converged bool
	// Status is the optimizer's terminal status string.
	Status string

	Iterations int
	FuncEvals  int
}

// Solver searches for equilibrium configurations over a trap potential.
type Solver struct {
	pot potential.Field
	cfg *config.TuningConfig
	rng *rand.Rand
}

// NewSolver builds a solver over the given potential. A zero seed derives
// one from the clock.
func NewSolver(pot potential.Field, cfg *config.TuningConfig) (*Solver, error) {
	if pot == nil {
		return nil, ErrNoPotential
	}
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	seed := cfg.GetRandomSeed()
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Solver{
		pot: pot,
		cfg: cfg,
		rng: rand.New(rand.NewSource(uint64(seed))),
	}, nil
}

// SeedConfiguration draws n electron positions uniformly over the
// potential's domain.
func (s *Solver) SeedConfiguration(n int) []float64 {
	xmin, xmax, ymin, ymax := s.pot.Domain()
	r := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		r[2*i] = xmin + s.rng.Float64()*(xmax-xmin)
		r[2*i+1] = ymin + s.rng.Float64()*(ymax-ymin)
	}
	return r
}

func (s *Solver) method() optimize.Method {
	if s.cfg.GetMethod() == "lbfgs" {
		return &optimize.LBFGS{}
	}
	return &optimize.CG{}
}

// statusConverged reports whether the optimizer status counts as a genuine
// convergence rather than a budget limit.
func statusConverged(st optimize.Status) bool {
	switch st {
	case optimize.Success,
		optimize.GradientThreshold,
		optimize.FunctionThreshold,
		optimize.FunctionConvergence,
		optimize.StepConvergence,
		optimize.MethodConverge:
		return true
	}
	return false
}

// Minimize runs a single descent from r0. mon may be nil. The input slice
// is not modified.
func (s *Solver) Minimize(r0 []float64, mon *Monitor) (Result, error) {
	if len(r0)%2 != 0 {
		return Result{}, potential.ErrLayout
	}
	if len(r0) == 0 {
		// Zero electrons: trivially force balanced.
		return Result{R: []float64{}, Converged: true, Status: "empty configuration"}, nil
	}

	problem := optimize.Problem{
		Func: s.pot.TotalEnergy,
		Grad: func(grad, x []float64) {
			s.pot.Gradient(grad, x)
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: s.cfg.GetGradientTolerance(),
		MajorIterations:   s.cfg.GetMaxIterations(),
		FuncEvaluations:   s.cfg.GetMaxFuncEvals(),
	}
	if mon != nil {
		settings.Recorder = mon
	}

	start := append([]float64(nil), r0...)
	res, err := optimize.Minimize(problem, start, settings, s.method())
	if res == nil {
		return Result{}, err
	}
	if err != nil {
		// The method gave up (typically a linesearch failure near a flat
		// region). The last location is still a usable, non-converged
		// answer.
		monitoring.Logf("anneal: minimiser stopped early: %v", err)
	}

	out := Result{
		R:          res.X,
		Energy:     res.F,
		Converged:  err == nil && statusConverged(res.Status),
		Status:     res.Status.String(),
		Iterations: res.Stats.MajorIterations,
		FuncEvals:  res.Stats.FuncEvaluations,
	}
	if len(res.Gradient) > 0 {
		out.GradNorm = floats.Norm(res.Gradient, math.Inf(1))
	} else {
		grad := make([]float64, len(res.X))
		s.pot.Gradient(grad, res.X)
		out.GradNorm = floats.Norm(grad, math.Inf(1))
	}
	return out, nil
}

// Solve seeds n electrons at random and runs the full anneal: one descent
// followed by the perturbation schedule.
func (s *Solver) Solve(ctx context.Context, n int) (Result, error) {
	first, err := s.Minimize(s.SeedConfiguration(n), nil)
	if err != nil {
		return Result{}, err
	}
	return s.PerturbAndSolve(ctx, first)
}

// PerturbAndSolve runs the thermal perturbation schedule starting from a
// previous result, returning the best converged configuration found. The
// context is checked between rounds; cancellation returns the best result
// so far together with the context error.
func (s *Solver) PerturbAndSolve(ctx context.Context, seed Result) (Result, error) {
	best := seed
	temperature := s.cfg.GetTemperatureK()
	rounds := s.cfg.GetPerturbations()

	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return best, err
		}

		kicked := s.thermalKick(best.R, temperature)
		res, err := s.Minimize(kicked, nil)
		if err != nil {
			return best, err
		}

		switch {
		case res.Converged && res.Energy < best.Energy:
			monitoring.Logf("anneal: round %d: new minimum %.8f eV (was %.8f eV)", round, res.Energy, best.Energy)
			best = res
		case !res.Converged && res.Energy < best.Energy:
			monitoring.Logf("anneal: round %d: lower state %.8f eV found but minimiser did not converge", round, res.Energy)
		}

		temperature *= s.cfg.GetCoolingFactor()
	}
	return best, nil
}

// thermalKick displaces every electron by a Gaussian step whose scale is
// the thermal amplitude in the local trap curvature: sigma = sqrt(2 kB T /
// k) with k = |qe d2V|. Electrons kicked outside the domain are mapped back
// in.
func (s *Solver) thermalKick(r []float64, temperatureK float64) []float64 {
	xmin, xmax, ymin, ymax := s.pot.Domain()
	// Flat spots have vanishing curvature and would get an unbounded kick;
	// the step is capped at a tenth of the domain width.
	sigmaCap := 0.1 * (xmax - xmin)

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: s.rng}

	out := append([]float64(nil), r...)
	for i := 0; i < len(r); i += 2 {
		x, y := r[i], r[i+1]
		sx := kickSigma(s.pot.D2VDX2(x, y), temperatureK, sigmaCap)
		ky := s.pot.D2VDY2(x, y)
		var sy float64
		if ky != 0 {
			sy = kickSigma(ky, temperatureK, sigmaCap)
		} else {
			// Translationally invariant direction (the resonator channel):
			// reuse the confined axis scale.
			sy = sx
		}
		out[i] += sx * normal.Rand()
		out[i+1] += sy * normal.Rand()
	}
	potential.MapIntoDomain(out, xmin, xmax, ymin, ymax)
	return out
}

func kickSigma(curvature, temperatureK, sigmaCap float64) float64 {
	k := math.Abs(units.ElectronCharge * curvature)
	if k == 0 {
		return sigmaCap
	}
	sigma := math.Sqrt(2 * units.Boltzmann * temperatureK / k)
	if sigma > sigmaCap {
		return sigmaCap
	}
	return sigma
}
