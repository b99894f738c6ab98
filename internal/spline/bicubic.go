package spline

import (
	"fmt"
)

// Bicubic interpolates a scalar field sampled on a rectangular grid. It is
// a tensor product of natural cubic splines: values are first interpolated
// along x on every grid row, then a 1D spline across the rows interpolates
// (or differentiates) along y. All first and second partials the
// equations-of-motion calculations need are available analytically.
type Bicubic struct {
	y    []float64
	rows []*Cubic // rows[j] interpolates the field over x at fixed y[j].
}

// NewBicubic fits a bicubic spline to values sampled on the grid
// (x[i], y[j]), with values row-major: values[j*len(x)+i].
func NewBicubic(x, y, values []float64) (*Bicubic, error) {
	nx, ny := len(x), len(y)
	if ny < 2 {
		return nil, ErrTooFewKnots
	}
	if len(values) != nx*ny {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrLengthMismatch, len(values), nx, ny)
	}
	for j := 1; j < ny; j++ {
		if y[j] <= y[j-1] {
			return nil, fmt.Errorf("%w: y index %d", ErrKnotOrder, j)
		}
	}

	b := &Bicubic{
		y:    append([]float64(nil), y...),
		rows: make([]*Cubic, ny),
	}
	for j := 0; j < ny; j++ {
		row, err := NewCubic(x, values[j*nx:(j+1)*nx])
		if err != nil {
			return nil, fmt.Errorf("spline: row %d: %w", j, err)
		}
		b.rows[j] = row
	}
	return b, nil
}

// Domain returns the fitted rectangle.
func (b *Bicubic) Domain() (xlo, xhi, ylo, yhi float64) {
	xlo, xhi = b.rows[0].Domain()
	return xlo, xhi, b.y[0], b.y[len(b.y)-1]
}

// column evaluates fn on every row spline at x and fits a spline across y
// to the results.
func (b *Bicubic) column(x float64, fn func(*Cubic, float64) float64) *Cubic {
	col := make([]float64, len(b.rows))
	for j, row := range b.rows {
		col[j] = fn(row, x)
	}
	// The y knots are already validated; a fit over them cannot fail.
	s, err := NewCubic(b.y, col)
	if err != nil {
		panic(err)
	}
	return s
}

// At evaluates the field at (x, y).
func (b *Bicubic) At(x, y float64) float64 {
	return b.column(x, (*Cubic).At).At(y)
}

// DerivX evaluates dF/dx at (x, y).
func (b *Bicubic) DerivX(x, y float64) float64 {
	return b.column(x, (*Cubic).Deriv).At(y)
}

// DerivY evaluates dF/dy at (x, y).
func (b *Bicubic) DerivY(x, y float64) float64 {
	return b.column(x, (*Cubic).At).Deriv(y)
}

// Deriv2X evaluates d2F/dx2 at (x, y).
func (b *Bicubic) Deriv2X(x, y float64) float64 {
	return b.column(x, (*Cubic).Deriv2).At(y)
}

// Deriv2Y evaluates d2F/dy2 at (x, y).
func (b *Bicubic) Deriv2Y(x, y float64) float64 {
	return b.column(x, (*Cubic).At).Deriv2(y)
}

// DerivXY evaluates the mixed partial d2F/dxdy at (x, y).
func (b *Bicubic) DerivXY(x, y float64) float64 {
	return b.column(x, (*Cubic).Deriv).Deriv(y)
}
