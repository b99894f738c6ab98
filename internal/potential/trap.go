package potential

import (
	"math"

	"github.com/SchusterLab/Trap-Analysis/internal/maxwell"
	"github.com/SchusterLab/Trap-Analysis/internal/spline"
	"github.com/SchusterLab/Trap-Analysis/internal/units"
)

// Trap is a two-dimensional trap potential, fitted from a field map whose
// values are the electron's energy landscape in volts (the exported data is
// already -V_ext, so minima attract electrons).
type Trap struct {
	fit *spline.Bicubic
}

// NewTrap fits a bicubic spline to the imported field map.
func NewTrap(fm *maxwell.FieldMap) (*Trap, error) {
	fit, err := spline.NewBicubic(fm.X, fm.Y, fm.Values)
	if err != nil {
		return nil, err
	}
	return &Trap{fit: fit}, nil
}

// Domain returns the rectangle over which the fit is valid.
func (t *Trap) Domain() (xmin, xmax, ymin, ymax float64) { return t.fit.Domain() }

// V evaluates the landscape at (x, y) in volts.
func (t *Trap) V(x, y float64) float64 { return t.fit.At(x, y) }

// DVDX is the first derivative of the landscape along x, in V/m.
func (t *Trap) DVDX(x, y float64) float64 { return t.fit.DerivX(x, y) }

// DVDY is the first derivative of the landscape along y, in V/m.
func (t *Trap) DVDY(x, y float64) float64 { return t.fit.DerivY(x, y) }

// D2VDX2 is the trap curvature along x, in V/m^2.
func (t *Trap) D2VDX2(x, y float64) float64 { return t.fit.Deriv2X(x, y) }

// D2VDY2 is the trap curvature along y, in V/m^2.
func (t *Trap) D2VDY2(x, y float64) float64 { return t.fit.Deriv2Y(x, y) }

// D2VDXDY is the mixed curvature, in V/m^2.
func (t *Trap) D2VDXDY(x, y float64) float64 { return t.fit.DerivXY(x, y) }

// Delta returns the plain displacement between two electrons.
func (t *Trap) Delta(xi, yi, xj, yj float64) (dx, dy float64) {
	return xi - xj, yi - yj
}

// coulombEV is the pairwise repulsion prefactor expressed in eV·m, so
// energies come out in electron-volts directly.
const coulombEV = units.CoulombPrefactor / units.ElectronCharge

// TotalEnergy returns the total energy of the configuration in eV: the sum
// of the landscape energy of every electron plus the pairwise Coulomb
// repulsion.
func (t *Trap) TotalEnergy(r []float64) float64 {
	n := len(r) / 2
	total := 0.0
	for i := 0; i < n; i++ {
		total += t.V(r[2*i], r[2*i+1])
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := t.Delta(r[2*i], r[2*i+1], r[2*j], r[2*j+1])
			d := math.Hypot(dx, dy)
			if d < distanceFloor {
				d = distanceFloor
			}
			total += coulombEV / d
		}
	}
	return total
}

// Gradient fills grad with the analytic gradient of TotalEnergy in eV/m.
// grad must have the same length as r.
func (t *Trap) Gradient(grad, r []float64) {
	pairGradient(t, grad, r)
}

// pairGradient implements the gradient shared by both geometries: the
// landscape term from the spline derivatives plus the Coulomb term summed
// over pairs with the geometry's Delta.
func pairGradient(f Field, grad, r []float64) {
	n := len(r) / 2
	for i := 0; i < n; i++ {
		grad[2*i] = f.DVDX(r[2*i], r[2*i+1])
		grad[2*i+1] = f.DVDY(r[2*i], r[2*i+1])
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := f.Delta(r[2*i], r[2*i+1], r[2*j], r[2*j+1])
			d := math.Hypot(dx, dy)
			if d < distanceFloor {
				d = distanceFloor
			}
			g := coulombEV / (d * d * d)
			grad[2*i] -= g * dx
			grad[2*i+1] -= g * dy
			grad[2*j] += g * dx
			grad[2*j+1] += g * dy
		}
	}
}
