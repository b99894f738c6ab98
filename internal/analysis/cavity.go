package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/SchusterLab/Trap-Analysis/internal/potential"
	"github.com/SchusterLab/Trap-Analysis/internal/units"
)

// Cavity coupling errors.
var (
	ErrUnconfined = errors.New("analysis: electron is not confined along x")
	ErrResonant   = errors.New("analysis: electron motion resonant with the cavity")
)

// CavityParams describes the microwave cavity the resonator channel
// couples to.
type CavityParams struct {
	// OmegaCavity is the bare cavity angular frequency in rad/s.
	OmegaCavity float64
	// MinDetuning rejects electrons whose motional frequency comes closer
	// than this to the cavity (the dispersive expansion diverges there).
	// Zero selects a default of 1e-3 * OmegaCavity.
	MinDetuning float64
}

// CavityShift computes the dispersive cavity frequency shift induced by a
// converged electron configuration on the resonator.
//
// Each electron couples to the cavity's microwave field Ex with strength
// g_i = e * Ex(x_i) * x_zpf,i / hbar, where x_zpf,i = sqrt(hbar / (2 me
// omega_i)) and omega_i is the electron's motional frequency from the
// channel curvature. The total cavity pull is
//
//	delta_omega = sum_i g_i^2 / (omega_cavity - omega_i)
//
// in rad/s. Electrons with negative curvature yield ErrUnconfined;
// detunings below MinDetuning yield ErrResonant.
func CavityShift(rs *potential.Resonator, r []float64, p CavityParams) (float64, error) {
	if len(r)%2 != 0 {
		return 0, potential.ErrLayout
	}
	if p.OmegaCavity <= 0 {
		return 0, errors.New("analysis: cavity frequency must be positive")
	}
	minDetuning := p.MinDetuning
	if minDetuning == 0 {
		minDetuning = 1e-3 * p.OmegaCavity
	}

	shift := 0.0
	for i := 0; i < len(r); i += 2 {
		x := r[i]

		omega := curvatureToOmega(rs.D2VDX2(x, 0))
		if math.IsNaN(omega) || omega == 0 {
			return 0, fmt.Errorf("%w: electron %d at x=%g", ErrUnconfined, i/2, x)
		}

		detuning := p.OmegaCavity - omega
		if math.Abs(detuning) < minDetuning {
			return 0, fmt.Errorf("%w: electron %d at %g rad/s, cavity at %g rad/s",
				ErrResonant, i/2, omega, p.OmegaCavity)
		}

		ex, err := rs.Ex(x)
		if err != nil {
			return 0, err
		}

		xzpf := math.Sqrt(units.Hbar / (2 * units.ElectronMass * omega))
		g := units.ElectronCharge * ex * xzpf / units.Hbar
		shift += g * g / detuning
	}
	return shift, nil
}
