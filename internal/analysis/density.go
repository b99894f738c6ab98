package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/SchusterLab/Trap-Analysis/internal/potential"
)

// ElectronDensity estimates the areal electron density in m^-2 from the
// mean nearest-neighbour spacing: n_s = 1 / <d_nn>^2. Pair distances use
// the geometry's boundary conditions, so the resonator channel wraps in y.
// A configuration with fewer than two electrons has no density estimate and
// returns 0.
func ElectronDensity(pot potential.Field, r []float64) float64 {
	n := len(r) / 2
	if n < 2 {
		return 0
	}

	nearest := make([]float64, n)
	for i := 0; i < n; i++ {
		min := math.Inf(1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			dx, dy := pot.Delta(r[2*i], r[2*i+1], r[2*j], r[2*j+1])
			if d := math.Hypot(dx, dy); d < min {
				min = d
			}
		}
		nearest[i] = min
	}

	mean := stat.Mean(nearest, nil)
	if mean == 0 {
		return math.Inf(1)
	}
	return 1 / (mean * mean)
}

// TrappedElectrons counts the electrons whose x coordinate lies inside the
// open interval (xmin, xmax), the footprint of the trapping electrode.
func TrappedElectrons(r []float64, xmin, xmax float64) int {
	count := 0
	for i := 0; i < len(r); i += 2 {
		if r[i] > xmin && r[i] < xmax {
			count++
		}
	}
	return count
}
