package potential

import (
	"errors"
	"math"
	"testing"
)

// channel builds a 1D harmonic landscape V(x) = curv/2 * x^2 over
// [-span, span].
func channel(curv, span float64, n int) (x, v []float64) {
	x = make([]float64, n)
	v = make([]float64, n)
	step := 2 * span / float64(n-1)
	for i := range x {
		x[i] = -span + float64(i)*step
		v[i] = 0.5 * curv * x[i] * x[i]
	}
	return x, v
}

func TestNewResonatorValidation(t *testing.T) {
	x, v := channel(1e8, 5e-6, 21)
	if _, err := NewResonator(x, v, 0); err == nil {
		t.Error("expected error for zero box length")
	}
	if _, err := NewResonator(x[:1], v[:1], 40e-6); err == nil {
		t.Error("expected error for too few samples")
	}
}

func TestResonatorMapIntoBox(t *testing.T) {
	x, v := channel(1e8, 5e-6, 21)
	rs, err := NewResonator(x, v, 40e-6)
	if err != nil {
		t.Fatalf("NewResonator: %v", err)
	}

	L := 40e-6
	for _, y := range []float64{0, 19e-6, -19e-6, 21e-6, -21e-6, 65e-6} {
		m := rs.MapIntoBox(y)
		if m < -L/2 || m >= L/2 {
			t.Errorf("MapIntoBox(%g) = %g outside [-L/2, L/2)", y, m)
		}
		// Wrapped coordinate differs from the input by a multiple of L.
		k := (y - m) / L
		if math.Abs(k-math.Round(k)) > 1e-9 {
			t.Errorf("MapIntoBox(%g) = %g not congruent mod L", y, m)
		}
	}
}

func TestResonatorMinimumImage(t *testing.T) {
	x, v := channel(1e8, 5e-6, 21)
	rs, err := NewResonator(x, v, 40e-6)
	if err != nil {
		t.Fatalf("NewResonator: %v", err)
	}

	// Two electrons near opposite box edges are close through the boundary:
	// the periodic distance must never exceed the direct one.
	yi, yj := 19e-6, -19e-6
	dx, dy := rs.Delta(0, yi, 0, yj)
	direct := math.Abs(yi - yj)
	if math.Hypot(dx, dy) > direct {
		t.Errorf("minimum image distance %g exceeds direct %g", math.Hypot(dx, dy), direct)
	}
	if math.Abs(math.Abs(dy)-2e-6) > 1e-12 {
		t.Errorf("wrapped separation = %g, want 2e-6", math.Abs(dy))
	}
}

func TestResonatorYInvariance(t *testing.T) {
	x, v := channel(1e8, 5e-6, 41)
	rs, err := NewResonator(x, v, 40e-6)
	if err != nil {
		t.Fatalf("NewResonator: %v", err)
	}

	if rs.DVDY(1e-6, 3e-6) != 0 || rs.D2VDY2(1e-6, 3e-6) != 0 || rs.D2VDXDY(1e-6, 3e-6) != 0 {
		t.Error("y derivatives must vanish for the channel geometry")
	}
	if rs.V(1e-6, 0) != rs.V(1e-6, 12e-6) {
		t.Error("landscape must not depend on y")
	}
}

func TestResonatorGradientMatchesFiniteDifference(t *testing.T) {
	x, v := channel(3e8, 5e-6, 101)
	rs, err := NewResonator(x, v, 40e-6)
	if err != nil {
		t.Fatalf("NewResonator: %v", err)
	}

	r := []float64{0.5e-6, 3e-6, -0.7e-6, -4e-6, 0.1e-6, 15e-6}
	grad := make([]float64, len(r))
	rs.Gradient(grad, r)

	const h = 1e-10
	for k := range r {
		rp := append([]float64(nil), r...)
		rm := append([]float64(nil), r...)
		rp[k] += h
		rm[k] -= h
		fd := (rs.TotalEnergy(rp) - rs.TotalEnergy(rm)) / (2 * h)
		if diff := math.Abs(grad[k] - fd); diff > 1e-3*math.Max(1, math.Abs(fd)) {
			t.Errorf("gradient[%d] = %g, finite difference %g", k, grad[k], fd)
		}
	}
}

func TestResonatorExField(t *testing.T) {
	x, v := channel(1e8, 5e-6, 21)
	rs, err := NewResonator(x, v, 40e-6)
	if err != nil {
		t.Fatalf("NewResonator: %v", err)
	}

	if _, err := rs.Ex(0); !errors.Is(err, ErrNoExData) {
		t.Errorf("expected ErrNoExData, got %v", err)
	}

	ex := make([]float64, len(x))
	for i, xi := range x {
		ex[i] = 1e4 * xi / 5e-6
	}
	if err := rs.SetExField(x, ex); err != nil {
		t.Fatalf("SetExField: %v", err)
	}
	got, err := rs.Ex(2.5e-6)
	if err != nil {
		t.Fatalf("Ex: %v", err)
	}
	if math.Abs(got-5e3) > 50 {
		t.Errorf("Ex(2.5um) = %g, want ~5e3", got)
	}
}
