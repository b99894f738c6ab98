// Package analysis derives physical quantities from a trap potential and an
// electron configuration: single-electron oscillation frequencies from the
// local curvature, collective normal modes of the electron crystal, spatial
// density, and the dispersive frequency shift the electrons induce on a
// coupled microwave cavity.
package analysis

import (
	"math"

	"github.com/SchusterLab/Trap-Analysis/internal/potential"
	"github.com/SchusterLab/Trap-Analysis/internal/units"
)

// Frequencies holds per-electron small-oscillation frequencies derived from
// the trap curvature at each electron position. Angular frequencies are in
// rad/s; a NaN marks a direction with negative curvature (no confinement),
// and a zero marks a free direction (the resonator channel's y axis).
type Frequencies struct {
	OmegaX []float64
	OmegaY []float64
}

// TrapFrequencies evaluates the curvature of the external landscape at
// every electron and maps it to an oscillation frequency through
// omega = sqrt(qe * d2V / me). The 2D trap differentiates along both axes;
// the 1D resonator has zero curvature along y and yields a zero there.
func TrapFrequencies(pot potential.Field, r []float64) (*Frequencies, error) {
	if len(r)%2 != 0 {
		return nil, potential.ErrLayout
	}
	n := len(r) / 2
	f := &Frequencies{
		OmegaX: make([]float64, n),
		OmegaY: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		x, y := r[2*i], r[2*i+1]
		f.OmegaX[i] = curvatureToOmega(pot.D2VDX2(x, y))
		f.OmegaY[i] = curvatureToOmega(pot.D2VDY2(x, y))
	}
	return f, nil
}

// curvatureToOmega converts a landscape curvature in V/m^2 to an angular
// frequency. Zero curvature maps to zero; negative curvature to NaN.
func curvatureToOmega(d2v float64) float64 {
	if d2v == 0 {
		return 0
	}
	if d2v < 0 {
		return math.NaN()
	}
	return math.Sqrt(units.ElectronCharge * d2v / units.ElectronMass)
}

// FxHz returns electron i's x frequency in Hz.
func (f *Frequencies) FxHz(i int) float64 { return units.OmegaToHz(f.OmegaX[i]) }

// FyHz returns electron i's y frequency in Hz.
func (f *Frequencies) FyHz(i int) float64 { return units.OmegaToHz(f.OmegaY[i]) }
