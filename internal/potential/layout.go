// Package potential builds differentiable trap potentials from imported
// field maps and evaluates the total energy and analytic gradient of an
// electron configuration: the external electrostatic landscape plus the
// pairwise Coulomb repulsion.
//
// Configurations use the interleaved layout r = [x0, y0, x1, y1, ...]; the
// even elements are x coordinates, the odd ones y. Energies are in
// electron-volts and gradients in eV/m, which keeps the optimizer working
// on O(1) numbers instead of O(1e-19) joules.
package potential

import (
	"errors"
	"math"
)

// ErrLayout is returned when a configuration slice has odd length or when
// coordinate slices disagree in length.
var ErrLayout = errors.New("potential: bad configuration layout")

// distanceFloor regularises coincident electrons; the Coulomb terms divide
// by the pair distance, so exact overlaps (possible in a random seed) are
// clamped to this value in metres.
const distanceFloor = 1e-15

// RToXY splits an interleaved configuration into x and y slices.
func RToXY(r []float64) (x, y []float64, err error) {
	if len(r)%2 != 0 {
		return nil, nil, ErrLayout
	}
	n := len(r) / 2
	x = make([]float64, n)
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = r[2*i]
		y[i] = r[2*i+1]
	}
	return x, y, nil
}

// XYToR interleaves coordinate slices into a configuration.
func XYToR(x, y []float64) ([]float64, error) {
	if len(x) != len(y) {
		return nil, ErrLayout
	}
	r := make([]float64, 2*len(x))
	for i := range x {
		r[2*i] = x[i]
		r[2*i+1] = y[i]
	}
	return r, nil
}

// MapIntoDomain maps electrons that left the simulation box back inside,
// in place. Electrons crossing an x wall are mirrored back; y is clamped.
func MapIntoDomain(r []float64, xmin, xmax, ymin, ymax float64) {
	L := xmax - xmin
	for i := 0; i < len(r); i += 2 {
		x := math.Mod(r[i]-xmax, 2*L)
		if x < 0 {
			x += 2 * L
		}
		r[i] = math.Abs(L-x) + xmin

		if r[i+1] > ymax {
			r[i+1] = ymax
		}
		if r[i+1] < ymin {
			r[i+1] = ymin
		}
	}
}

// Field is the query surface shared by the 2D trap and the 1D resonator.
// V and its derivatives describe the external landscape in volts (energy in
// eV per electron); TotalEnergy and Gradient fold in the Coulomb repulsion.
// Delta returns the displacement between two electrons under the geometry's
// boundary conditions.
type Field interface {
	Domain() (xmin, xmax, ymin, ymax float64)

	V(x, y float64) float64
	DVDX(x, y float64) float64
	DVDY(x, y float64) float64
	D2VDX2(x, y float64) float64
	D2VDY2(x, y float64) float64
	D2VDXDY(x, y float64) float64

	TotalEnergy(r []float64) float64
	Gradient(grad, r []float64)
	Delta(xi, yi, xj, yj float64) (dx, dy float64)
}
