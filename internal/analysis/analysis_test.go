package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/SchusterLab/Trap-Analysis/internal/maxwell"
	"github.com/SchusterLab/Trap-Analysis/internal/potential"
	"github.com/SchusterLab/Trap-Analysis/internal/units"
)

// harmonicTrap builds a 2D trap with landscape curv/2 * (x^2 + y^2).
func harmonicTrap(t *testing.T, curv, span float64, n int) *potential.Trap {
	t.Helper()
	axis := make([]float64, n)
	step := 2 * span / float64(n-1)
	for i := range axis {
		axis[i] = -span + float64(i)*step
	}
	values := make([]float64, n*n)
	for j, y := range axis {
		for i, x := range axis {
			values[j*n+i] = 0.5 * curv * (x*x + y*y)
		}
	}
	fm := &maxwell.FieldMap{X: axis, Y: append([]float64(nil), axis...), Values: values}
	tr, err := potential.NewTrap(fm)
	if err != nil {
		t.Fatalf("NewTrap: %v", err)
	}
	return tr
}

// harmonicChannel builds a 1D resonator with landscape curv/2 * x^2.
func harmonicChannel(t *testing.T, curv, span float64, n int, box float64) *potential.Resonator {
	t.Helper()
	x := make([]float64, n)
	v := make([]float64, n)
	step := 2 * span / float64(n-1)
	for i := range x {
		x[i] = -span + float64(i)*step
		v[i] = 0.5 * curv * x[i] * x[i]
	}
	rs, err := potential.NewResonator(x, v, box)
	if err != nil {
		t.Fatalf("NewResonator: %v", err)
	}
	return rs
}

// omega0 is the analytic small-oscillation frequency for curvature curv.
func omega0(curv float64) float64 {
	return math.Sqrt(units.ElectronCharge * curv / units.ElectronMass)
}

func TestTrapFrequenciesHarmonic(t *testing.T) {
	curv := 1e8
	tr := harmonicTrap(t, curv, 5e-6, 101)

	f, err := TrapFrequencies(tr, []float64{0.5e-6, -0.5e-6})
	if err != nil {
		t.Fatalf("TrapFrequencies: %v", err)
	}
	want := omega0(curv)
	if math.Abs(f.OmegaX[0]-want) > 0.01*want {
		t.Errorf("OmegaX = %g, want %g", f.OmegaX[0], want)
	}
	if math.Abs(f.OmegaY[0]-want) > 0.01*want {
		t.Errorf("OmegaY = %g, want %g", f.OmegaY[0], want)
	}
	// Isotropic trap: axes interchangeable.
	if math.Abs(f.OmegaX[0]-f.OmegaY[0]) > 1e-4*want {
		t.Errorf("isotropic trap has anisotropic frequencies: %g vs %g", f.OmegaX[0], f.OmegaY[0])
	}
	if got := f.FxHz(0); math.Abs(got-units.OmegaToHz(f.OmegaX[0])) > 1 {
		t.Errorf("FxHz = %g", got)
	}
}

func TestResonatorFrequencyOneAxisOnly(t *testing.T) {
	curv := 1e8
	rs := harmonicChannel(t, curv, 5e-6, 101, 40e-6)

	f, err := TrapFrequencies(rs, []float64{0, 3e-6})
	if err != nil {
		t.Fatalf("TrapFrequencies: %v", err)
	}
	want := omega0(curv)
	if math.Abs(f.OmegaX[0]-want) > 0.01*want {
		t.Errorf("OmegaX = %g, want %g", f.OmegaX[0], want)
	}
	if f.OmegaY[0] != 0 {
		t.Errorf("channel y frequency = %g, want 0 (free direction)", f.OmegaY[0])
	}
}

func TestTrapFrequenciesBadLayout(t *testing.T) {
	tr := harmonicTrap(t, 1e8, 5e-6, 41)
	if _, err := TrapFrequencies(tr, []float64{1, 2, 3}); err == nil {
		t.Error("expected layout error")
	}
}

func TestNormalModesSingleElectron(t *testing.T) {
	curv := 1e8
	tr := harmonicTrap(t, curv, 5e-6, 101)

	spec, err := NormalModes(tr, []float64{0, 0})
	if err != nil {
		t.Fatalf("NormalModes: %v", err)
	}
	if spec.Unstable != 0 {
		t.Fatalf("unstable modes at the trap centre: %d", spec.Unstable)
	}
	if len(spec.Omegas) != 2 {
		t.Fatalf("got %d modes, want 2", len(spec.Omegas))
	}
	want := omega0(curv)
	for k, w := range spec.Omegas {
		if math.Abs(w-want) > 0.02*want {
			t.Errorf("mode %d = %g, want %g", k, w, want)
		}
	}
}

func TestNormalModesTwoElectronCrystal(t *testing.T) {
	// Two electrons in an isotropic harmonic trap at their equilibrium
	// separation: the spectrum is a zero rotation mode, two centre-of-mass
	// modes at omega0 and a breathing mode at sqrt(3)*omega0.
	curv := 1e8
	tr := harmonicTrap(t, curv, 5e-6, 201)

	coulombEV := units.CoulombPrefactor / units.ElectronCharge
	d := math.Cbrt(2 * coulombEV / curv)
	r := []float64{-d / 2, 0, d / 2, 0}

	spec, err := NormalModes(tr, r)
	if err != nil {
		t.Fatalf("NormalModes: %v", err)
	}
	if spec.Unstable+len(spec.Omegas) != 4 {
		t.Fatalf("mode count = %d stable + %d unstable, want 4 total", len(spec.Omegas), spec.Unstable)
	}

	w0 := omega0(curv)
	// The rotation mode sits at ~0 and may land on either side of zero
	// numerically.
	soft := 4 - len(spec.Omegas) // Unstable modes are all soft here.
	hard := spec.Omegas
	if soft == 0 {
		if hard[0] > 0.2*w0 {
			t.Errorf("lowest mode = %g, want ~0", hard[0])
		}
		hard = hard[1:]
	}
	if len(hard) != 3 {
		t.Fatalf("got %d hard modes, want 3", len(hard))
	}
	for k, want := range []float64{w0, w0, math.Sqrt(3) * w0} {
		if math.Abs(hard[k]-want) > 0.03*want {
			t.Errorf("mode %d = %g, want %g", k, hard[k], want)
		}
	}
}

func TestNormalModesCoincidentElectrons(t *testing.T) {
	tr := harmonicTrap(t, 1e8, 5e-6, 41)
	if _, err := NormalModes(tr, []float64{0, 0, 0, 0}); err == nil {
		t.Error("expected error for coincident electrons")
	}
}

func TestElectronDensity(t *testing.T) {
	tr := harmonicTrap(t, 1e8, 5e-6, 41)

	d := 2e-6
	got := ElectronDensity(tr, []float64{-d / 2, 0, d / 2, 0})
	want := 1 / (d * d)
	if math.Abs(got-want) > 1e-6*want {
		t.Errorf("density = %g, want %g", got, want)
	}

	if ElectronDensity(tr, []float64{0, 0}) != 0 {
		t.Error("single electron has no density estimate")
	}
}

func TestElectronDensityPeriodicChannel(t *testing.T) {
	// Two electrons across the periodic boundary: the wrapped separation
	// (2 um) sets the density, not the direct 38 um.
	rs := harmonicChannel(t, 1e8, 5e-6, 41, 40e-6)
	got := ElectronDensity(rs, []float64{0, 19e-6, 0, -19e-6})
	want := 1 / (2e-6 * 2e-6)
	if math.Abs(got-want) > 1e-6*want {
		t.Errorf("periodic density = %g, want %g", got, want)
	}
}

func TestTrappedElectrons(t *testing.T) {
	r := []float64{-3e-6, 0, -2e-6, 1e-6, 0, 0, 2e-6, -1e-6}
	if got := TrappedElectrons(r, -2.5e-6, 1e-6); got != 2 {
		t.Errorf("TrappedElectrons = %d, want 2", got)
	}
	if got := TrappedElectrons(nil, -1, 1); got != 0 {
		t.Errorf("TrappedElectrons(empty) = %d, want 0", got)
	}
}

func TestCavityShift(t *testing.T) {
	curv := 1e8
	rs := harmonicChannel(t, curv, 5e-6, 101, 40e-6)

	// Uniform microwave field along the channel.
	x := []float64{-5e-6, 0, 5e-6}
	ex := []float64{200, 200, 200}
	if err := rs.SetExField(x, ex); err != nil {
		t.Fatalf("SetExField: %v", err)
	}

	we := omega0(curv)
	p := CavityParams{OmegaCavity: 1.5 * we}

	got, err := CavityShift(rs, []float64{0, 0}, p)
	if err != nil {
		t.Fatalf("CavityShift: %v", err)
	}

	// Recompute the dispersive pull for one electron at the channel centre.
	xzpf := math.Sqrt(units.Hbar / (2 * units.ElectronMass * we))
	g := units.ElectronCharge * 200 * xzpf / units.Hbar
	want := g * g / (p.OmegaCavity - we)
	if math.Abs(got-want) > 0.02*math.Abs(want) {
		t.Errorf("shift = %g, want %g", got, want)
	}
	if got <= 0 {
		t.Errorf("cavity above the electron frequency must be pulled up, got %g", got)
	}

	// Two electrons double the shift.
	got2, err := CavityShift(rs, []float64{-0.1e-6, 0, 0.1e-6, 0}, p)
	if err != nil {
		t.Fatalf("CavityShift: %v", err)
	}
	if got2 < 1.8*got || got2 > 2.2*got {
		t.Errorf("two-electron shift = %g, want ~2x %g", got2, got)
	}
}

func TestCavityShiftErrors(t *testing.T) {
	curv := 1e8
	rs := harmonicChannel(t, curv, 5e-6, 101, 40e-6)
	we := omega0(curv)

	// No Ex data loaded.
	if _, err := CavityShift(rs, []float64{0, 0}, CavityParams{OmegaCavity: 2 * we}); err == nil {
		t.Error("expected error without Ex data")
	}

	x := []float64{-5e-6, 0, 5e-6}
	if err := rs.SetExField(x, []float64{100, 100, 100}); err != nil {
		t.Fatalf("SetExField: %v", err)
	}

	// Resonant electron.
	if _, err := CavityShift(rs, []float64{0, 0}, CavityParams{OmegaCavity: we}); !errors.Is(err, ErrResonant) {
		t.Errorf("expected ErrResonant, got %v", err)
	}

	// Anti-trapped channel.
	anti := harmonicChannel(t, -curv, 5e-6, 101, 40e-6)
	if err := anti.SetExField(x, []float64{100, 100, 100}); err != nil {
		t.Fatalf("SetExField: %v", err)
	}
	if _, err := CavityShift(anti, []float64{0, 0}, CavityParams{OmegaCavity: 2 * we}); !errors.Is(err, ErrUnconfined) {
		t.Errorf("expected ErrUnconfined, got %v", err)
	}

	// Bad layout and bad params.
	if _, err := CavityShift(rs, []float64{0}, CavityParams{OmegaCavity: 2 * we}); err == nil {
		t.Error("expected layout error")
	}
	if _, err := CavityShift(rs, []float64{0, 0}, CavityParams{}); err == nil {
		t.Error("expected error for zero cavity frequency")
	}
}
