package paircorr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// MetricName selects how the separation between two positions is measured.
type MetricName string

const (
	MetricEuclidean MetricName = "Euclidean"
	MetricArc       MetricName = "Arc"
	MetricRperp     MetricName = "Rperp"
	MetricRlens     MetricName = "Rlens"
)

// SepBounds is the range of separations, and of the signed line-of-sight
// component, between any point of one node and any point of another.
type SepBounds struct {
	RMin, RMax       float64
	RParMin, RParMax float64
}

// Metric maps two positions to a separation r >= 0 and a signed
// line-of-sight component rpar, positive when p2 is farther than p1.
// Bounds must contain every value Separation can return for points within
// s1 of c1 and s2 of c2.
type Metric interface {
	Name() MetricName
	Separation(p1, p2 r3.Vec) (r, rpar float64)
	Bounds(c1 r3.Vec, s1 float64, c2 r3.Vec, s2 float64) SepBounds
}

// NewMetric returns the named metric for the given coordinate system.
// Flat fields only support Euclidean; spherical fields support Euclidean
// (chord length) and Arc; 3-D fields support all four.
func NewMetric(name MetricName, coords Coords) (Metric, error) {
	if name == "" {
		name = MetricEuclidean
	}
	switch name {
	case MetricEuclidean:
		return EuclideanMetric{Coords: coords}, nil
	case MetricArc:
		if coords == ThreeD || coords == Spherical {
			return ArcMetric{Coords: coords}, nil
		}
	case MetricRperp:
		if coords == ThreeD {
			return RperpMetric{}, nil
		}
	case MetricRlens:
		if coords == ThreeD {
			return RlensMetric{}, nil
		}
	default:
		return nil, fmt.Errorf("%w: unknown metric %q", ErrValue, string(name))
	}
	return nil, fmt.Errorf("%w: metric %s is not valid for %s coordinates", ErrValue, name, coords)
}

// EuclideanMetric is the straight-line distance. On the unit sphere it is the
// chord length.
type EuclideanMetric struct {
	Coords Coords
}

func (EuclideanMetric) Name() MetricName { return MetricEuclidean }

func (m EuclideanMetric) Separation(p1, p2 r3.Vec) (float64, float64) {
	r := r3.Norm(r3.Sub(p2, p1))
	if m.Coords != ThreeD {
		return r, 0
	}
	return r, lineOfSight(p1, p2)
}

func (m EuclideanMetric) Bounds(c1 r3.Vec, s1 float64, c2 r3.Vec, s2 float64) SepBounds {
	d := r3.Norm(r3.Sub(c2, c1))
	b := SepBounds{RMin: math.Max(0, d-s1-s2), RMax: d + s1 + s2}
	if m.Coords == ThreeD {
		b.RParMin, b.RParMax = lineOfSightBounds(c1, s1, c2, s2)
	}
	return b
}

// ArcMetric is the great-circle angle between the two directions, in radians.
type ArcMetric struct {
	Coords Coords
}

func (ArcMetric) Name() MetricName { return MetricArc }

func (m ArcMetric) Separation(p1, p2 r3.Vec) (float64, float64) {
	r := angleBetween(p1, p2)
	if m.Coords != ThreeD {
		return r, 0
	}
	return r, lineOfSight(p1, p2)
}

func (m ArcMetric) Bounds(c1 r3.Vec, s1 float64, c2 r3.Vec, s2 float64) SepBounds {
	theta := angleBetween(c1, c2)
	spread := m.angularRadius(c1, s1) + m.angularRadius(c2, s2)
	b := SepBounds{RMin: math.Max(0, theta-spread), RMax: math.Min(math.Pi, theta+spread)}
	if m.Coords == ThreeD {
		b.RParMin, b.RParMax = lineOfSightBounds(c1, s1, c2, s2)
	}
	return b
}

// angularRadius bounds the angle between c and any point within s of it.
func (m ArcMetric) angularRadius(c r3.Vec, s float64) float64 {
	if s == 0 {
		return 0
	}
	if m.Coords == Spherical {
		return 2 * math.Asin(math.Min(1, s/2))
	}
	n := r3.Norm(c)
	if s >= n {
		return math.Pi
	}
	return math.Asin(s / n)
}

// RperpMetric is the separation perpendicular to the mean line of sight,
// |L x (p2-p1)|/|L| with L = (p1+p2)/2.
type RperpMetric struct{}

func (RperpMetric) Name() MetricName { return MetricRperp }

func (RperpMetric) Separation(p1, p2 r3.Vec) (float64, float64) {
	sum := r3.Norm(r3.Add(p1, p2))
	if sum == 0 {
		return r3.Norm(r3.Sub(p2, p1)), 0
	}
	return 2 * r3.Norm(r3.Cross(p1, p2)) / sum, lineOfSight(p1, p2)
}

func (RperpMetric) Bounds(c1 r3.Vec, s1 float64, c2 r3.Vec, s2 float64) SepBounds {
	ss := s1 + s2
	crossMin, crossMax := crossBounds(c1, s1, c2, s2)
	sum := r3.Norm(r3.Add(c1, c2))
	var b SepBounds
	if sum+ss > 0 {
		b.RMin = 2 * crossMin / (sum + ss)
	}
	// Rperp never exceeds the full 3-D separation.
	b.RMax = r3.Norm(r3.Sub(c2, c1)) + ss
	if sum > ss {
		b.RMax = math.Min(b.RMax, 2*crossMax/(sum-ss))
	}
	b.RParMin, b.RParMax = lineOfSightBounds(c1, s1, c2, s2)
	return b
}

// RlensMetric is the distance from p1 to the line of sight through p2,
// measured at the distance of p1. It is not symmetric in its arguments.
type RlensMetric struct{}

func (RlensMetric) Name() MetricName { return MetricRlens }

func (RlensMetric) Separation(p1, p2 r3.Vec) (float64, float64) {
	n2 := r3.Norm(p2)
	if n2 == 0 {
		return r3.Norm(p1), 0
	}
	return r3.Norm(r3.Cross(p1, p2)) / n2, lineOfSight(p1, p2)
}

func (RlensMetric) Bounds(c1 r3.Vec, s1 float64, c2 r3.Vec, s2 float64) SepBounds {
	crossMin, crossMax := crossBounds(c1, s1, c2, s2)
	n2 := r3.Norm(c2)
	var b SepBounds
	if n2+s2 > 0 {
		b.RMin = crossMin / (n2 + s2)
	}
	b.RMax = r3.Norm(c1) + s1
	if n2 > s2 {
		b.RMax = math.Min(b.RMax, crossMax/(n2-s2))
	}
	b.RParMin, b.RParMax = lineOfSightBounds(c1, s1, c2, s2)
	return b
}

func angleBetween(p1, p2 r3.Vec) float64 {
	return math.Atan2(r3.Norm(r3.Cross(p1, p2)), r3.Dot(p1, p2))
}

// lineOfSight is (|p2|^2 - |p1|^2) / |p1+p2|, the projection of p2-p1 onto
// the mean line of sight.
func lineOfSight(p1, p2 r3.Vec) float64 {
	sum := r3.Norm(r3.Add(p1, p2))
	if sum == 0 {
		return 0
	}
	n1, n2 := r3.Norm(p1), r3.Norm(p2)
	return (n2 - n1) * (n2 + n1) / sum
}

// lineOfSightBounds writes rpar as (|p2|-|p1|) * f with
// f = (|p1|+|p2|)/|p1+p2| >= 1 and bounds both factors.
func lineOfSightBounds(c1 r3.Vec, s1 float64, c2 r3.Vec, s2 float64) (lo, hi float64) {
	ss := s1 + s2
	n1, n2 := r3.Norm(c1), r3.Norm(c2)
	sum := r3.Norm(r3.Add(c1, c2))

	dlo, dhi := n2-n1-ss, n2-n1+ss
	flo, fhi := 1.0, math.Inf(1)
	if sum+ss > 0 {
		flo = math.Max(1, (n1+n2-ss)/(sum+ss))
	}
	if sum > ss {
		fhi = math.Max(flo, (n1+n2+ss)/(sum-ss))
	}

	if dlo < 0 {
		lo = dlo * fhi
	} else {
		lo = dlo * flo
	}
	if dhi > 0 {
		hi = dhi * fhi
	} else {
		hi = dhi * flo
	}
	return lo, hi
}

// crossBounds bounds |p1 x p2| using
// |p1 x p2 - c1 x c2| <= s1|c2| + s2|c1| + s1*s2.
func crossBounds(c1 r3.Vec, s1 float64, c2 r3.Vec, s2 float64) (lo, hi float64) {
	x := r3.Norm(r3.Cross(c1, c2))
	e := s1*r3.Norm(c2) + s2*r3.Norm(c1) + s1*s2
	return math.Max(0, x-e), x + e
}
