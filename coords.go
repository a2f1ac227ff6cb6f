package paircorr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Coords is the coordinate system of a field.
type Coords string

const (
	// Flat positions are (x, y) on a plane.
	Flat Coords = "flat"
	// ThreeD positions are (x, y, z) with the observer at the origin.
	ThreeD Coords = "3d"
	// Spherical positions are (ra, dec) directions on the unit sphere.
	Spherical Coords = "spherical"
)

func (c Coords) curved() bool { return c == ThreeD || c == Spherical }

// SepUnits names the angular unit in which separations are given and reported.
type SepUnits string

const (
	Radians SepUnits = "rad"
	Hours   SepUnits = "hours"
	Degrees SepUnits = "deg"
	Arcmin  SepUnits = "arcmin"
	Arcsec  SepUnits = "arcsec"
)

// Radians returns the size of one unit in radians. The empty unit is 1.
func (u SepUnits) Radians() (float64, error) {
	switch u {
	case "", Radians:
		return 1, nil
	case Hours:
		return math.Pi / 12, nil
	case Degrees:
		return math.Pi / 180, nil
	case Arcmin:
		return math.Pi / 180 / 60, nil
	case Arcsec:
		return math.Pi / 180 / 3600, nil
	}
	return 0, fmt.Errorf("%w: unknown separation unit %q", ErrValue, string(u))
}

// FromRaDec converts a direction in radians to a unit vector.
func FromRaDec(ra, dec float64) r3.Vec {
	sd, cd := math.Sincos(dec)
	sr, cr := math.Sincos(ra)
	return r3.Vec{X: cd * cr, Y: cd * sr, Z: sd}
}

// ToRaDec is the inverse of FromRaDec for any non-zero vector.
func ToRaDec(p r3.Vec) (ra, dec float64) {
	ra = math.Atan2(p.Y, p.X)
	if ra < 0 {
		ra += 2 * math.Pi
	}
	dec = math.Atan2(p.Z, math.Hypot(p.X, p.Y))
	return ra, dec
}
