// Package catalog reads point catalogs from delimited text files.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/TrevorS/paircorr"
)

// Spec describes where a catalog's columns are in a text file. Column
// numbers are 1-based; 0 means the column is absent.
type Spec struct {
	Name string

	// Delimiter separates values; empty means any run of whitespace.
	Delimiter string
	// Comment marks lines to skip. Default: "#".
	Comment string

	X, Y, Z    int
	RA, Dec, R int
	W, WPos    int
	K          int
	G1, G2     int

	// RAUnits and DecUnits are the angular units of the RA and Dec columns.
	// Required when those columns are used.
	RAUnits, DecUnits paircorr.SepUnits

	// FlipG1 and FlipG2 negate the shear components as they are read.
	FlipG1, FlipG2 bool
}

// Load reads the catalog at path.
func Load(path string, spec Spec) (paircorr.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return paircorr.Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	if spec.Name == "" {
		spec.Name = path
	}
	return Read(f, spec)
}

// Read parses a catalog from r.
func Read(r io.Reader, spec Spec) (paircorr.Catalog, error) {
	cat := paircorr.Catalog{Name: spec.Name}
	if err := spec.check(); err != nil {
		return cat, err
	}
	comment := spec.Comment
	if comment == "" {
		comment = "#"
	}

	type target struct {
		col int
		dst *[]float64
	}
	var targets []target
	for _, t := range []target{
		{spec.X, &cat.X}, {spec.Y, &cat.Y}, {spec.Z, &cat.Z},
		{spec.RA, &cat.RA}, {spec.Dec, &cat.Dec}, {spec.R, &cat.R},
		{spec.W, &cat.W}, {spec.WPos, &cat.WPos},
		{spec.K, &cat.K}, {spec.G1, &cat.G1}, {spec.G2, &cat.G2},
	} {
		if t.col > 0 {
			*t.dst = []float64{}
			targets = append(targets, t)
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, comment) {
			continue
		}
		var fields []string
		if spec.Delimiter == "" {
			fields = strings.Fields(text)
		} else {
			fields = strings.Split(text, spec.Delimiter)
		}
		for _, t := range targets {
			if t.col > len(fields) {
				return cat, fmt.Errorf("%s line %d: has %d columns, need %d", spec.Name, line, len(fields), t.col)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(fields[t.col-1]), 64)
			if err != nil {
				return cat, fmt.Errorf("%s line %d column %d: %w", spec.Name, line, t.col, err)
			}
			*t.dst = append(*t.dst, v)
		}
	}
	if err := sc.Err(); err != nil {
		return cat, fmt.Errorf("read catalog: %w", err)
	}

	if err := scale(cat.RA, spec.RAUnits); err != nil {
		return cat, err
	}
	if err := scale(cat.Dec, spec.DecUnits); err != nil {
		return cat, err
	}
	if spec.FlipG1 {
		negate(cat.G1)
	}
	if spec.FlipG2 {
		negate(cat.G2)
	}
	return cat, nil
}

func (s Spec) check() error {
	hasXY := s.X > 0 || s.Y > 0
	hasRaDec := s.RA > 0 || s.Dec > 0
	switch {
	case hasXY && hasRaDec:
		return fmt.Errorf("%s: give x/y or ra/dec columns, not both", s.Name)
	case hasXY && (s.X == 0 || s.Y == 0):
		return fmt.Errorf("%s: x and y columns must be given together", s.Name)
	case hasRaDec && (s.RA == 0 || s.Dec == 0):
		return fmt.Errorf("%s: ra and dec columns must be given together", s.Name)
	case !hasXY && !hasRaDec:
		return fmt.Errorf("%s: no position columns", s.Name)
	case hasRaDec && (s.RAUnits == "" || s.DecUnits == ""):
		return fmt.Errorf("%s: ra_units and dec_units are required with ra/dec columns", s.Name)
	case s.Z > 0 && !hasXY:
		return fmt.Errorf("%s: z column requires x and y", s.Name)
	case s.R > 0 && !hasRaDec:
		return fmt.Errorf("%s: r column requires ra and dec", s.Name)
	case (s.G1 > 0) != (s.G2 > 0):
		return fmt.Errorf("%s: g1 and g2 columns must be given together", s.Name)
	}
	return nil
}

func scale(v []float64, units paircorr.SepUnits) error {
	if v == nil {
		return nil
	}
	f, err := units.Radians()
	if err != nil {
		return err
	}
	for i := range v {
		v[i] *= f
	}
	return nil
}

func negate(v []float64) {
	for i := range v {
		v[i] = -v[i]
	}
}
