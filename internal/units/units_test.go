package units

import (
	"math"
	"testing"
)

func TestIsValidLengthUnit(t *testing.T) {
	for _, u := range ValidLengthUnits {
		if !IsValidLengthUnit(u) {
			t.Errorf("expected %q to be valid", u)
		}
	}
	if IsValidLengthUnit("furlong") {
		t.Error("expected furlong to be invalid")
	}
}

func TestToMetres(t *testing.T) {
	if got := ToMetres(2.5, Microns); math.Abs(got-2.5e-6) > 1e-18 {
		t.Errorf("ToMetres(2.5, um) = %g, want 2.5e-6", got)
	}
	if got := ToMetres(1.0, Metres); got != 1.0 {
		t.Errorf("ToMetres(1, m) = %g, want 1", got)
	}
}

func TestEnergyRoundTrip(t *testing.T) {
	ev := 0.37
	if got := JoulesToEV(EVToJoules(ev)); math.Abs(got-ev) > 1e-12 {
		t.Errorf("round trip = %g, want %g", got, ev)
	}
}

func TestCoulombPrefactor(t *testing.T) {
	// Two electrons 1 um apart repel with ~1.44 meV of potential energy.
	mEV := JoulesToEV(CoulombPrefactor/1e-6) * 1e3
	if mEV < 1.43 || mEV > 1.45 {
		t.Errorf("Coulomb energy at 1 um = %g meV, want ~1.44", mEV)
	}
}

func TestOmegaToHz(t *testing.T) {
	if got := OmegaToHz(2 * math.Pi * 5e9); math.Abs(got-5e9) > 1 {
		t.Errorf("OmegaToHz = %g, want 5e9", got)
	}
	if got := HzToGHz(5e9); math.Abs(got-5.0) > 1e-12 {
		t.Errorf("HzToGHz = %g, want 5", got)
	}
}
