package potential

import (
	"errors"
	"math"

	"github.com/SchusterLab/Trap-Analysis/internal/spline"
)

// ErrNoExData is returned by Ex when the resonator was built without a
// microwave field export.
var ErrNoExData = errors.New("potential: resonator has no Ex field data")

// Resonator is a one-dimensional potential for electrons along a resonator
// channel. The landscape varies only along x; the y direction is a periodic
// box of length BoxLength, so pairwise distances use the minimum image in y.
type Resonator struct {
	fit       *spline.Cubic
	ex        *spline.Cubic // Optional microwave field, V/m.
	boxLength float64
}

// NewResonator fits a cubic spline to the 1D landscape samples (x in
// metres, v in volts). boxLength sets the periodic extent in y.
func NewResonator(x, v []float64, boxLength float64) (*Resonator, error) {
	if boxLength <= 0 {
		return nil, errors.New("potential: resonator box length must be positive")
	}
	fit, err := spline.NewCubic(x, v)
	if err != nil {
		return nil, err
	}
	return &Resonator{fit: fit, boxLength: boxLength}, nil
}

// SetExField fits the microwave field samples (x in metres, ex in V/m) used
// for the cavity coupling calculation.
func (rs *Resonator) SetExField(x, ex []float64) error {
	fit, err := spline.NewCubic(x, ex)
	if err != nil {
		return err
	}
	rs.ex = fit
	return nil
}

// BoxLength returns the periodic extent in y.
func (rs *Resonator) BoxLength() float64 { return rs.boxLength }

// Domain returns the fitted x range and the periodic y box.
func (rs *Resonator) Domain() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = rs.fit.Domain()
	return xmin, xmax, -rs.boxLength / 2, rs.boxLength / 2
}

// MapIntoBox wraps a y coordinate into [-L/2, L/2).
func (rs *Resonator) MapIntoBox(y float64) float64 {
	L := rs.boxLength
	y = math.Mod(y+L/2, L)
	if y < 0 {
		y += L
	}
	return y - L/2
}

// Ex evaluates the microwave field at x in V/m.
func (rs *Resonator) Ex(x float64) (float64, error) {
	if rs.ex == nil {
		return 0, ErrNoExData
	}
	return rs.ex.At(x), nil
}

// V evaluates the landscape in volts. It depends on x only.
func (rs *Resonator) V(x, _ float64) float64 { return rs.fit.At(x) }

// DVDX is the landscape slope along x, in V/m.
func (rs *Resonator) DVDX(x, _ float64) float64 { return rs.fit.Deriv(x) }

// DVDY is zero: the channel is translationally invariant in y.
func (rs *Resonator) DVDY(_, _ float64) float64 { return 0 }

// D2VDX2 is the channel curvature along x, in V/m^2.
func (rs *Resonator) D2VDX2(x, _ float64) float64 { return rs.fit.Deriv2(x) }

// D2VDY2 is zero in the periodic direction.
func (rs *Resonator) D2VDY2(_, _ float64) float64 { return 0 }

// D2VDXDY is zero for a separable channel.
func (rs *Resonator) D2VDXDY(_, _ float64) float64 { return 0 }

// Delta returns the displacement between two electrons using the minimum
// image in the periodic y direction.
func (rs *Resonator) Delta(xi, yi, xj, yj float64) (dx, dy float64) {
	dx = xi - xj
	dy = rs.MapIntoBox(yi) - rs.MapIntoBox(yj)
	L := rs.boxLength
	if dy > L/2 {
		dy -= L
	}
	if dy < -L/2 {
		dy += L
	}
	return dx, dy
}

// TotalEnergy returns the configuration energy in eV with periodic pair
// distances.
func (rs *Resonator) TotalEnergy(r []float64) float64 {
	n := len(r) / 2
	total := 0.0
	for i := 0; i < n; i++ {
		total += rs.V(r[2*i], r[2*i+1])
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := rs.Delta(r[2*i], r[2*i+1], r[2*j], r[2*j+1])
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
func (rs *Resonator) Gradient(grad, r []float64) {
	pairGradient(rs, grad, r)
}
