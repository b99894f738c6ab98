package maxwell

import (
	"errors"
	"math"
	"testing"
)

const sampleDsp = `# trap chip layout, metres
ELECTRODE guard left
-5e-6 -2e-6
-4e-6 -2e-6
-4e-6  2e-6
-5e-6  2e-6
END

ELECTRODE trap
-2e-6 -1e-6
 2e-6 -1e-6
 2e-6  1e-6
-2e-6  1e-6
END
`

func TestLoadDesign(t *testing.T) {
	d, err := LoadDesign(writeTemp(t, "chip.dsp", sampleDsp))
	if err != nil {
		t.Fatalf("LoadDesign: %v", err)
	}
	if len(d.Electrodes) != 2 {
		t.Fatalf("got %d electrodes, want 2", len(d.Electrodes))
	}
	if e := d.Electrode("guard left"); e == nil || len(e.Vertices) != 4 {
		t.Errorf("guard left electrode missing or wrong vertex count: %+v", e)
	}
	if d.Electrode("nope") != nil {
		t.Error("unknown electrode should be nil")
	}

	xmin, xmax, ymin, ymax := d.Bounds()
	if math.Abs(xmin+5e-6) > 1e-18 || math.Abs(xmax-2e-6) > 1e-18 ||
		math.Abs(ymin+2e-6) > 1e-18 || math.Abs(ymax-2e-6) > 1e-18 {
		t.Errorf("bounds = %g %g %g %g", xmin, xmax, ymin, ymax)
	}
}

func TestLoadDesignErrors(t *testing.T) {
	cases := map[string]string{
		"unterminated": "ELECTRODE a\n0 0\n1 0\n0 1\n",
		"vertexFirst":  "0 0\n",
		"endOutside":   "END\n",
		"fewVertices":  "ELECTRODE a\n0 0\n1 1\nEND\n",
		"badCoord":     "ELECTRODE a\n0 zero\n1 0\n0 1\nEND\n",
		"noName":       "ELECTRODE\n0 0\n1 0\n0 1\nEND\n",
	}
	for name, content := range cases {
		if _, err := LoadDesign(writeTemp(t, name+".dsp", content)); err == nil {
			t.Errorf("%s: expected parse error", name)
		}
	}

	if _, err := LoadDesign(writeTemp(t, "empty.dsp", "# nothing here\n")); !errors.Is(err, ErrNoElectrodes) {
		t.Errorf("expected ErrNoElectrodes, got %v", err)
	}
}
