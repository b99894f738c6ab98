package anneal

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/SchusterLab/Trap-Analysis/internal/monitoring"
)

// Monitor is an optimize.Recorder that reports the energy and the L-inf
// gradient norm every CallEvery major iterations and retains the trace for
// plotting after the run.
type Monitor struct {
	// CallEvery sets the reporting interval in major iterations.
	CallEvery int
	// Verbose controls whether sampled iterations are logged.
	Verbose bool

	// Trace, filled during the run.
	Iters     []int
	Energies  []float64
	GradNorms []float64

	counter int
}

// NewMonitor returns a verbose monitor reporting every callEvery major
// iterations.
func NewMonitor(callEvery int) *Monitor {
	if callEvery < 1 {
		callEvery = 1
	}
	return &Monitor{CallEvery: callEvery, Verbose: true}
}

// Init resets the trace. Part of the optimize.Recorder interface.
func (m *Monitor) Init() error {
	m.counter = 0
	m.Iters = m.Iters[:0]
	m.Energies = m.Energies[:0]
	m.GradNorms = m.GradNorms[:0]
	return nil
}

// Record samples major iterations. Part of the optimize.Recorder interface.
func (m *Monitor) Record(loc *optimize.Location, op optimize.Operation, _ *optimize.Stats) error {
	if op&optimize.MajorIteration == 0 {
		return nil
	}
	if m.counter%m.CallEvery == 0 {
		gradNorm := math.NaN()
		if len(loc.Gradient) > 0 {
			gradNorm = floats.Norm(loc.Gradient, math.Inf(1))
		}
		m.Iters = append(m.Iters, m.counter)
		m.Energies = append(m.Energies, loc.F)
		m.GradNorms = append(m.GradNorms, gradNorm)
		if m.Verbose {
			monitoring.Logf("%d\tU: %.8f eV\tgradient norm: %.2e eV/m", m.counter, loc.F, gradNorm)
		}
	}
	m.counter++
	return nil
}
