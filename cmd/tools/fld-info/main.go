// Command fld-info inspects simulation exports: grid shape and value range
// for .fld field maps, electrode outlines for .dsp geometry files.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strings"

	"github.com/SchusterLab/Trap-Analysis/internal/maxwell"
)

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: fld-info <file.fld|file.dsp> ...")
	}

	for _, path := range flag.Args() {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".fld":
			if err := printFieldMap(path); err != nil {
				log.Fatalf("%s: %v", path, err)
			}
		case ".dsp":
			if err := printDesign(path); err != nil {
				log.Fatalf("%s: %v", path, err)
			}
		default:
			log.Fatalf("%s: unrecognised extension (want .fld or .dsp)", path)
		}
	}
}

func printFieldMap(path string) error {
	fm, err := maxwell.LoadFieldMap(path)
	if err != nil {
		return err
	}

	xmin, xmax, ymin, ymax := fm.Bounds()
	vmin, vmax := math.Inf(1), math.Inf(-1)
	for _, v := range fm.Values {
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
	}

	fmt.Printf("%s\n", path)
	if fm.Quantity != "" {
		fmt.Printf("  quantity: %s\n", fm.Quantity)
	}
	fmt.Printf("  grid:     %d x %d (%d samples)\n", fm.NX(), fm.NY(), len(fm.Values))
	fmt.Printf("  x:        [%g, %g] m (step %g)\n", xmin, xmax, (xmax-xmin)/float64(fm.NX()-1))
	fmt.Printf("  y:        [%g, %g] m (step %g)\n", ymin, ymax, (ymax-ymin)/float64(fm.NY()-1))
	fmt.Printf("  values:   [%g, %g]\n", vmin, vmax)
	return nil
}

func printDesign(path string) error {
	design, err := maxwell.LoadDesign(path)
	if err != nil {
		return err
	}

	xmin, xmax, ymin, ymax := design.Bounds()
	fmt.Printf("%s\n", path)
	fmt.Printf("  electrodes: %d\n", len(design.Electrodes))
	fmt.Printf("  bounds:     x [%g, %g] m, y [%g, %g] m\n", xmin, xmax, ymin, ymax)
	for _, e := range design.Electrodes {
		fmt.Printf("  %-16s %d vertices\n", e.Name, len(e.Vertices))
	}
	return nil
}
