// Package spline fits natural cubic splines to sampled potential data and
// evaluates them together with their first and second derivatives. The trap
// and resonator solvers differentiate these fits to get forces and
// curvatures, so second derivatives must be available analytically, not by
// finite differencing.
package spline

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Fit errors.
var (
	ErrTooFewKnots    = errors.New("spline: need at least two knots")
	ErrKnotOrder      = errors.New("spline: knots must be strictly increasing")
	ErrLengthMismatch = errors.New("spline: knot and value lengths differ")
)

// Cubic is a 1D natural cubic spline: second derivatives vanish at both
// ends. Queries outside the knot range are clamped to the nearest boundary,
// so electrons that wander off the simulated sheet see the boundary value
// rather than a runaway extrapolation.
type Cubic struct {
	x []float64
	y []float64
	m []float64 // Second derivatives at the knots.
}

// NewCubic fits a natural cubic spline through the samples (x[i], y[i]).
// x must be strictly increasing.
func NewCubic(x, y []float64) (*Cubic, error) {
	n := len(x)
	if n < 2 {
		return nil, ErrTooFewKnots
	}
	if len(y) != n {
		return nil, fmt.Errorf("%w: %d knots, %d values", ErrLengthMismatch, n, len(y))
	}
	for i := 1; i < n; i++ {
		if x[i] <= x[i-1] {
			return nil, fmt.Errorf("%w: index %d", ErrKnotOrder, i)
		}
	}

	s := &Cubic{
		x: append([]float64(nil), x...),
		y: append([]float64(nil), y...),
		m: make([]float64, n),
	}
	if n == 2 {
		// Two knots: the natural spline is the straight line, m stays zero.
		return s, nil
	}

	// Tridiagonal system for the interior second derivatives, with identity
	// rows enforcing the natural boundary m[0] = m[n-1] = 0.
	dl := make([]float64, n-1)
	d := make([]float64, n)
	du := make([]float64, n-1)
	rhs := make([]float64, n)

	d[0], d[n-1] = 1, 1
	for i := 1; i < n-1; i++ {
		h0 := x[i] - x[i-1]
		h1 := x[i+1] - x[i]
		dl[i-1] = h0
		d[i] = 2 * (h0 + h1)
		du[i] = h1
		rhs[i] = 6 * ((y[i+1]-y[i])/h1 - (y[i]-y[i-1])/h0)
	}

	tri := mat.NewTridiag(n, dl, d, du)
	var sol mat.VecDense
	if err := tri.SolveVecTo(&sol, false, mat.NewVecDense(n, rhs)); err != nil {
		return nil, fmt.Errorf("spline: tridiagonal solve: %w", err)
	}
	for i := 0; i < n; i++ {
		s.m[i] = sol.AtVec(i)
	}
	return s, nil
}

// Knots returns the number of knots in the fit.
func (s *Cubic) Knots() int { return len(s.x) }

// Domain returns the fitted x range.
func (s *Cubic) Domain() (lo, hi float64) { return s.x[0], s.x[len(s.x)-1] }

// clampSegment maps a query point into the knot range and returns the
// segment index together with the clamped coordinate.
func (s *Cubic) clampSegment(xq float64) (int, float64) {
	n := len(s.x)
	if xq <= s.x[0] {
		return 0, s.x[0]
	}
	if xq >= s.x[n-1] {
		return n - 2, s.x[n-1]
	}
	// SearchFloat64s returns the first index with x[i] >= xq.
	i := sort.SearchFloat64s(s.x, xq)
	return i - 1, xq
}

// At evaluates the spline at xq.
func (s *Cubic) At(xq float64) float64 {
	i, xc := s.clampSegment(xq)
	h := s.x[i+1] - s.x[i]
	a := s.x[i+1] - xc
	b := xc - s.x[i]
	return s.m[i]*a*a*a/(6*h) + s.m[i+1]*b*b*b/(6*h) +
		(s.y[i]/h-s.m[i]*h/6)*a + (s.y[i+1]/h-s.m[i+1]*h/6)*b
}

// Deriv evaluates the first derivative at xq. Outside the domain it returns
// the boundary slope.
func (s *Cubic) Deriv(xq float64) float64 {
	i, xc := s.clampSegment(xq)
	h := s.x[i+1] - s.x[i]
	a := s.x[i+1] - xc
	b := xc - s.x[i]
	return -s.m[i]*a*a/(2*h) + s.m[i+1]*b*b/(2*h) +
		(s.y[i+1]-s.y[i])/h - (s.m[i+1]-s.m[i])*h/6
}

// Deriv2 evaluates the second derivative at xq. Outside the domain it
// returns the boundary curvature (zero for a natural fit).
func (s *Cubic) Deriv2(xq float64) float64 {
	i, xc := s.clampSegment(xq)
	h := s.x[i+1] - s.x[i]
	return s.m[i]*(s.x[i+1]-xc)/h + s.m[i+1]*(xc-s.x[i])/h
}
