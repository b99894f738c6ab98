package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/SchusterLab/Trap-Analysis/internal/potential"
	"github.com/SchusterLab/Trap-Analysis/internal/units"
)

// ErrEigenFailed is returned when the symmetric eigendecomposition of the
// Hessian does not converge.
var ErrEigenFailed = errors.New("analysis: eigendecomposition failed")

// ModeSpectrum holds the collective normal modes of an electron
// configuration: the eigenfrequencies of small oscillations around
// equilibrium.
type ModeSpectrum struct {
	// Omegas are the stable mode frequencies in rad/s, ascending. A
	// configuration at a true minimum yields 2N entries (some may be ~0
	// for soft directions such as rotations or the periodic channel).
	Omegas []float64
	// Unstable counts negative-curvature modes; nonzero means the
	// configuration is a saddle, not a minimum.
	Unstable int
}

// NormalModes builds the 2N x 2N Hessian of the total energy at r (trap
// curvature plus Coulomb coupling, in J/m^2) and diagonalises it. Mode
// frequencies follow from omega_k = sqrt(lambda_k / me).
func NormalModes(pot potential.Field, r []float64) (*ModeSpectrum, error) {
	if len(r)%2 != 0 {
		return nil, potential.ErrLayout
	}
	n := len(r) / 2
	if n == 0 {
		return &ModeSpectrum{}, nil
	}

	dim := 2 * n
	h := mat.NewSymDense(dim, nil)

	// External landscape: per-electron diagonal blocks.
	for i := 0; i < n; i++ {
		x, y := r[2*i], r[2*i+1]
		h.SetSym(2*i, 2*i, units.ElectronCharge*pot.D2VDX2(x, y))
		h.SetSym(2*i+1, 2*i+1, units.ElectronCharge*pot.D2VDY2(x, y))
		h.SetSym(2*i, 2*i+1, units.ElectronCharge*pot.D2VDXDY(x, y))
	}

	// Coulomb coupling: each pair contributes to both diagonal blocks and
	// the (i, j) off-diagonal block with opposite sign.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := pot.Delta(r[2*i], r[2*i+1], r[2*j], r[2*j+1])
			d := math.Hypot(dx, dy)
			if d == 0 {
				return nil, errors.New("analysis: coincident electrons have no mode expansion")
			}
			d5 := d * d * d * d * d
			k := units.CoulombPrefactor

			hxx := k * (3*dx*dx - d*d) / d5
			hyy := k * (3*dy*dy - d*d) / d5
			hxy := k * 3 * dx * dy / d5

			h.SetSym(2*i, 2*i, h.At(2*i, 2*i)+hxx)
			h.SetSym(2*i+1, 2*i+1, h.At(2*i+1, 2*i+1)+hyy)
			h.SetSym(2*i, 2*i+1, h.At(2*i, 2*i+1)+hxy)

			h.SetSym(2*j, 2*j, h.At(2*j, 2*j)+hxx)
			h.SetSym(2*j+1, 2*j+1, h.At(2*j+1, 2*j+1)+hyy)
			h.SetSym(2*j, 2*j+1, h.At(2*j, 2*j+1)+hxy)

			h.SetSym(2*i, 2*j, h.At(2*i, 2*j)-hxx)
			h.SetSym(2*i+1, 2*j+1, h.At(2*i+1, 2*j+1)-hyy)
			h.SetSym(2*i, 2*j+1, h.At(2*i, 2*j+1)-hxy)
			h.SetSym(2*i+1, 2*j, h.At(2*i+1, 2*j)-hxy)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(h, false); !ok {
		return nil, ErrEigenFailed
	}
	lambdas := eig.Values(nil)
	sort.Float64s(lambdas)

	spec := &ModeSpectrum{}
	for _, l := range lambdas {
		if l < 0 {
			spec.Unstable++
			continue
		}
		spec.Omegas = append(spec.Omegas, math.Sqrt(l/units.ElectronMass))
	}
	return spec, nil
}
