package maxwell

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// LoadFieldMap reads a .fld export. The format is line oriented: any leading
// lines that do not start with a number are header text (the tool writes a
// title line and a column legend), then each sample row is whitespace
// separated as
//
//	x y z value
//
// with coordinates in metres. The z column is present because the tool
// exports 3D sheets; all rows of one file must share a single z value. Rows
// may arrive in any order; the grid is reconstructed from the unique x and y
// coordinates and must be rectangular.
func LoadFieldMap(path string) (*FieldMap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("maxwell: open field export: %w", err)
	}
	defer file.Close()

	var (
		quantity string
		xs, ys   []float64
		vals     []float64
	)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	headerDone := false
	zSeen := false
	var zRef float64

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if !headerDone {
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				// Header line. The last header token names the quantity,
				// e.g. `x [m] y [m] z [m] V [V]`.
				if q := headerQuantity(fields); q != "" {
					quantity = q
				}
				continue
			}
			headerDone = true
		}

		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: line %d has %d columns, want 4", ErrBadSample, lineNo, len(fields))
		}
		row := make([]float64, 4)
		for k, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %v", ErrBadSample, lineNo, k+1, err)
			}
			row[k] = v
		}

		if !zSeen {
			zRef, zSeen = row[2], true
		} else if row[2] != zRef {
			return nil, fmt.Errorf("%w: line %d: z=%g differs from sheet z=%g",
				ErrNotRectangular, lineNo, row[2], zRef)
		}

		xs = append(xs, row[0])
		ys = append(ys, row[1])
		vals = append(vals, row[3])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("maxwell: read field export: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrEmptyExport
	}

	fm, err := assembleGrid(xs, ys, vals)
	if err != nil {
		return nil, err
	}
	fm.Quantity = quantity
	return fm, nil
}

// headerQuantity pulls the name of the sampled quantity out of a column
// legend line, ignoring bracketed unit tokens.
func headerQuantity(fields []string) string {
	for i := len(fields) - 1; i >= 0; i-- {
		tok := fields[i]
		if strings.HasPrefix(tok, "[") {
			continue
		}
		if tok == "x" || tok == "y" || tok == "z" {
			return ""
		}
		return strings.TrimSuffix(tok, ":")
	}
	return ""
}

// assembleGrid turns unordered (x, y, value) triples into a sorted
// rectangular FieldMap.
func assembleGrid(xs, ys, vals []float64) (*FieldMap, error) {
	ux := uniqueSorted(xs)
	uy := uniqueSorted(ys)
	if len(ux)*len(uy) != len(vals) {
		return nil, fmt.Errorf("%w: %d samples but %d x %d unique coordinates",
			ErrNotRectangular, len(vals), len(ux), len(uy))
	}

	xIdx := indexOf(ux)
	yIdx := indexOf(uy)

	values := make([]float64, len(vals))
	seen := make([]bool, len(vals))
	for k := range vals {
		i, okX := xIdx[xs[k]]
		j, okY := yIdx[ys[k]]
		if !okX || !okY {
			return nil, fmt.Errorf("%w: sample %d off-grid", ErrNotRectangular, k)
		}
		pos := j*len(ux) + i
		if seen[pos] {
			return nil, fmt.Errorf("%w: duplicate sample at (%g, %g)", ErrNotRectangular, xs[k], ys[k])
		}
		seen[pos] = true
		values[pos] = vals[k]
	}
	for pos, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: missing sample at grid position %d", ErrNotRectangular, pos)
		}
	}

	fm := &FieldMap{X: ux, Y: uy, Values: values}
	if err := fm.validate(); err != nil {
		return nil, err
	}
	return fm, nil
}

func uniqueSorted(v []float64) []float64 {
	out := append([]float64(nil), v...)
	sort.Float64s(out)
	n := 0
	for i, x := range out {
		if i == 0 || x != out[n-1] {
			out[n] = x
			n++
		}
	}
	return out[:n]
}

func indexOf(v []float64) map[float64]int {
	m := make(map[float64]int, len(v))
	for i, x := range v {
		m[x] = i
	}
	return m
}
