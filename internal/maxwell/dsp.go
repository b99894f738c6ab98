package maxwell

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrNoElectrodes is returned when a design export contains no electrode
// sections.
var ErrNoElectrodes = errors.New("maxwell: design export contains no electrodes")

// Electrode is one named outline from the design layout: a closed polyline
// of (x, y) vertices in metres.
type Electrode struct {
	Name     string
	Vertices [][2]float64
}

// Design holds the electrode geometry read from a .dsp export.
type Design struct {
	Electrodes []Electrode
}

// Bounds returns the bounding box of all electrode outlines.
func (d *Design) Bounds() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, e := range d.Electrodes {
		for _, v := range e.Vertices {
			xmin = math.Min(xmin, v[0])
			xmax = math.Max(xmax, v[0])
			ymin = math.Min(ymin, v[1])
			ymax = math.Max(ymax, v[1])
		}
	}
	return xmin, xmax, ymin, ymax
}

// Electrode returns the named electrode, or nil if absent.
func (d *Design) Electrode(name string) *Electrode {
	for i := range d.Electrodes {
		if d.Electrodes[i].Name == name {
			return &d.Electrodes[i]
		}
	}
	return nil
}

// LoadDesign reads a .dsp design export. The format is section based:
//
//	ELECTRODE <name>
//	<x> <y>
//	<x> <y>
//	...
//	END
//
// Lines starting with '#' and blank lines are ignored. Coordinates are in
// metres. A section must carry at least three vertices to describe an
// outline.
func LoadDesign(path string) (*Design, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("maxwell: open design export: %w", err)
	}
	defer file.Close()

	var (
		design  Design
		current *Electrode
	)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch strings.ToUpper(fields[0]) {
		case "ELECTRODE":
			if current != nil {
				return nil, fmt.Errorf("maxwell: line %d: ELECTRODE inside open section %q", lineNo, current.Name)
			}
			if len(fields) < 2 {
				return nil, fmt.Errorf("maxwell: line %d: ELECTRODE without a name", lineNo)
			}
			current = &Electrode{Name: strings.Join(fields[1:], " ")}

		case "END":
			if current == nil {
				return nil, fmt.Errorf("maxwell: line %d: END outside a section", lineNo)
			}
			if len(current.Vertices) < 3 {
				return nil, fmt.Errorf("maxwell: line %d: electrode %q has %d vertices, want >= 3",
					lineNo, current.Name, len(current.Vertices))
			}
			design.Electrodes = append(design.Electrodes, *current)
			current = nil

		default:
			if current == nil {
				return nil, fmt.Errorf("maxwell: line %d: vertex outside an ELECTRODE section", lineNo)
			}
			if len(fields) != 2 {
				return nil, fmt.Errorf("maxwell: line %d: vertex has %d columns, want 2", lineNo, len(fields))
			}
			x, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return nil, fmt.Errorf("maxwell: line %d: bad x coordinate: %v", lineNo, err)
			}
			y, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("maxwell: line %d: bad y coordinate: %v", lineNo, err)
			}
			current.Vertices = append(current.Vertices, [2]float64{x, y})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("maxwell: read design export: %w", err)
	}
	if current != nil {
		return nil, fmt.Errorf("maxwell: unterminated ELECTRODE section %q", current.Name)
	}
	if len(design.Electrodes) == 0 {
		return nil, ErrNoElectrodes
	}
	return &design, nil
}
