package maxwell

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

const sampleFld = `DC bias potential, trap sheet
x [m] y [m] z [m] V [V]
0.0e-6  0.0e-6  0  -1.0
1.0e-6  0.0e-6  0  -0.5
2.0e-6  0.0e-6  0  -1.0
0.0e-6  1.0e-6  0  -0.8
1.0e-6  1.0e-6  0  -0.3
2.0e-6  1.0e-6  0  -0.8
`

func TestLoadFieldMap(t *testing.T) {
	path := writeTemp(t, "trap.fld", sampleFld)
	fm, err := LoadFieldMap(path)
	if err != nil {
		t.Fatalf("LoadFieldMap: %v", err)
	}

	if fm.NX() != 3 || fm.NY() != 2 {
		t.Fatalf("grid = %dx%d, want 3x2", fm.NX(), fm.NY())
	}
	if fm.Quantity != "V" {
		t.Errorf("quantity = %q, want V", fm.Quantity)
	}
	if got := fm.At(1, 1); got != -0.3 {
		t.Errorf("At(1,1) = %g, want -0.3", got)
	}
	xmin, xmax, ymin, ymax := fm.Bounds()
	if xmin != 0 || math.Abs(xmax-2e-6) > 1e-18 || ymin != 0 || math.Abs(ymax-1e-6) > 1e-18 {
		t.Errorf("bounds = %g %g %g %g", xmin, xmax, ymin, ymax)
	}
}

func TestLoadFieldMapShuffledRows(t *testing.T) {
	// Same grid with rows out of order; reconstruction must sort.
	shuffled := `x [m] y [m] z [m] V [V]
2.0e-6  1.0e-6  0  -0.8
0.0e-6  0.0e-6  0  -1.0
1.0e-6  1.0e-6  0  -0.3
2.0e-6  0.0e-6  0  -1.0
0.0e-6  1.0e-6  0  -0.8
1.0e-6  0.0e-6  0  -0.5
`
	fm, err := LoadFieldMap(writeTemp(t, "shuffled.fld", shuffled))
	if err != nil {
		t.Fatalf("LoadFieldMap: %v", err)
	}
	if got := fm.At(1, 0); got != -0.5 {
		t.Errorf("At(1,0) = %g, want -0.5", got)
	}
}

func TestLoadFieldMapErrors(t *testing.T) {
	if _, err := LoadFieldMap(filepath.Join(t.TempDir(), "missing.fld")); err == nil {
		t.Error("expected error for missing file")
	}

	ragged := `x y z V
0 0 0 1
1 0 0 2
0 1 0 3
`
	if _, err := LoadFieldMap(writeTemp(t, "ragged.fld", ragged)); !errors.Is(err, ErrNotRectangular) {
		t.Errorf("expected ErrNotRectangular, got %v", err)
	}

	badCols := `x y z V
0 0 0
`
	if _, err := LoadFieldMap(writeTemp(t, "cols.fld", badCols)); !errors.Is(err, ErrBadSample) {
		t.Errorf("expected ErrBadSample, got %v", err)
	}

	if _, err := LoadFieldMap(writeTemp(t, "empty.fld", "just a header\n")); !errors.Is(err, ErrEmptyExport) {
		t.Errorf("expected ErrEmptyExport, got %v", err)
	}

	dup := `x y z V
0 0 0 1
0 0 0 1
1 0 0 2
1 1 0 2
`
	if _, err := LoadFieldMap(writeTemp(t, "dup.fld", dup)); !errors.Is(err, ErrNotRectangular) {
		t.Errorf("expected ErrNotRectangular for duplicate sample, got %v", err)
	}
}

func TestCrop(t *testing.T) {
	fm, err := LoadFieldMap(writeTemp(t, "trap.fld", sampleFld))
	if err != nil {
		t.Fatalf("LoadFieldMap: %v", err)
	}

	cropped, err := fm.Crop(0.5e-6, 2.5e-6, -1, 2e-6)
	if err != nil {
		t.Fatalf("Crop: %v", err)
	}
	if cropped.NX() != 2 || cropped.NY() != 2 {
		t.Fatalf("cropped grid = %dx%d, want 2x2", cropped.NX(), cropped.NY())
	}
	if got := cropped.At(0, 0); got != -0.5 {
		t.Errorf("cropped At(0,0) = %g, want -0.5", got)
	}

	// Source must be untouched.
	if fm.NX() != 3 || fm.At(0, 0) != -1.0 {
		t.Error("crop mutated the source map")
	}

	if _, err := fm.Crop(10, 20, 10, 20); err == nil {
		t.Error("expected error for empty crop window")
	}
}

func TestDownsample(t *testing.T) {
	fm := &FieldMap{
		X:      []float64{0, 1, 2, 3, 4},
		Y:      []float64{0, 1, 2},
		Values: make([]float64, 15),
	}
	for k := range fm.Values {
		fm.Values[k] = float64(k)
	}

	ds, err := fm.Downsample(2)
	if err != nil {
		t.Fatalf("Downsample: %v", err)
	}
	// Endpoints always kept: x -> {0,2,4}, y -> {0,2}.
	if ds.NX() != 3 || ds.NY() != 2 {
		t.Fatalf("downsampled grid = %dx%d, want 3x2", ds.NX(), ds.NY())
	}
	if ds.At(2, 1) != fm.At(4, 2) {
		t.Errorf("downsample picked wrong corner sample")
	}

	if _, err := fm.Downsample(0); err == nil {
		t.Error("expected error for stride 0")
	}
}
