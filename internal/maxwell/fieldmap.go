// Package maxwell imports field and geometry exports from electromagnetic
// simulation tools. Two formats are handled: .fld files carrying sampled
// potential or field values on a rectangular grid, and .dsp files carrying
// named electrode outlines from the design layout.
//
// Imported data is treated as immutable: post-processing operations (Crop,
// Downsample) return new FieldMaps and never touch the source arrays.
package maxwell

import (
	"errors"
	"fmt"
	"math"
)

// Import errors. Parse failures wrap one of these so callers can distinguish
// a bad grid from an unreadable file.
var (
	ErrNotRectangular = errors.New("maxwell: samples do not form a rectangular grid")
	ErrEmptyExport    = errors.New("maxwell: export contains no samples")
	ErrBadSample      = errors.New("maxwell: malformed sample row")
)

// FieldMap holds one scalar quantity (potential or a field component)
// sampled on a rectangular grid. X and Y are the strictly increasing grid
// axes in metres; Values is row-major with Values[j*NX()+i] the sample at
// (X[i], Y[j]).
//
// A FieldMap is read-only once built. Downstream consumers (spline fits,
// the solvers) share the backing arrays, so mutating them is a bug.
type FieldMap struct {
	X      []float64
	Y      []float64
	Values []float64

	// Quantity is the label from the export header, e.g. "V" or "Ex".
	Quantity string
}

// NX returns the number of grid columns.
func (f *FieldMap) NX() int { return len(f.X) }

// NY returns the number of grid rows.
func (f *FieldMap) NY() int { return len(f.Y) }

// At returns the sample at grid indices (i, j) without interpolation.
func (f *FieldMap) At(i, j int) float64 { return f.Values[j*len(f.X)+i] }

// Bounds returns the extent of the grid: xmin, xmax, ymin, ymax.
func (f *FieldMap) Bounds() (xmin, xmax, ymin, ymax float64) {
	return f.X[0], f.X[len(f.X)-1], f.Y[0], f.Y[len(f.Y)-1]
}

// Row returns the j-th grid row (all x, fixed y) as a copy.
func (f *FieldMap) Row(j int) []float64 {
	out := make([]float64, len(f.X))
	copy(out, f.Values[j*len(f.X):(j+1)*len(f.X)])
	return out
}

// validate checks the grid invariants after assembly.
func (f *FieldMap) validate() error {
	if len(f.X) == 0 || len(f.Y) == 0 {
		return ErrEmptyExport
	}
	if len(f.Values) != len(f.X)*len(f.Y) {
		return fmt.Errorf("%w: %d samples for %dx%d grid",
			ErrNotRectangular, len(f.Values), len(f.X), len(f.Y))
	}
	for i := 1; i < len(f.X); i++ {
		if f.X[i] <= f.X[i-1] {
			return fmt.Errorf("%w: x axis not strictly increasing at index %d", ErrNotRectangular, i)
		}
	}
	for j := 1; j < len(f.Y); j++ {
		if f.Y[j] <= f.Y[j-1] {
			return fmt.Errorf("%w: y axis not strictly increasing at index %d", ErrNotRectangular, j)
		}
	}
	for k, v := range f.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at sample %d", ErrBadSample, k)
		}
	}
	return nil
}

// Crop returns a new FieldMap restricted to the grid points inside the
// closed window [xmin,xmax] x [ymin,ymax]. The source map is unchanged.
func (f *FieldMap) Crop(xmin, xmax, ymin, ymax float64) (*FieldMap, error) {
	var xi, yi []int
	for i, x := range f.X {
		if x >= xmin && x <= xmax {
			xi = append(xi, i)
		}
	}
	for j, y := range f.Y {
		if y >= ymin && y <= ymax {
			yi = append(yi, j)
		}
	}
	if len(xi) == 0 || len(yi) == 0 {
		return nil, fmt.Errorf("maxwell: crop window [%g,%g]x[%g,%g] contains no grid points",
			xmin, xmax, ymin, ymax)
	}

	out := &FieldMap{
		X:        make([]float64, len(xi)),
		Y:        make([]float64, len(yi)),
		Values:   make([]float64, len(xi)*len(yi)),
		Quantity: f.Quantity,
	}
	for a, i := range xi {
		out.X[a] = f.X[i]
	}
	for b, j := range yi {
		out.Y[b] = f.Y[j]
	}
	for b, j := range yi {
		for a, i := range xi {
			out.Values[b*len(xi)+a] = f.At(i, j)
		}
	}
	return out, nil
}

// Downsample returns a new FieldMap keeping every stride-th grid point on
// both axes. The first and last points of each axis are always kept so the
// domain extent survives. stride must be >= 1.
func (f *FieldMap) Downsample(stride int) (*FieldMap, error) {
	if stride < 1 {
		return nil, fmt.Errorf("maxwell: downsample stride must be >= 1, got %d", stride)
	}
	xi := strideIndices(len(f.X), stride)
	yi := strideIndices(len(f.Y), stride)

	out := &FieldMap{
		X:        make([]float64, len(xi)),
		Y:        make([]float64, len(yi)),
		Values:   make([]float64, len(xi)*len(yi)),
		Quantity: f.Quantity,
	}
	for a, i := range xi {
		out.X[a] = f.X[i]
	}
	for b, j := range yi {
		out.Y[b] = f.Y[j]
	}
	for b, j := range yi {
		for a, i := range xi {
			out.Values[b*len(xi)+a] = f.At(i, j)
		}
	}
	return out, nil
}

func strideIndices(n, stride int) []int {
	var idx []int
	for i := 0; i < n; i += stride {
		idx = append(idx, i)
	}
	if idx[len(idx)-1] != n-1 {
		idx = append(idx, n-1)
	}
	return idx
}
