package paircorr

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewMetric_Coords(t *testing.T) {
	valid := map[Coords][]MetricName{
		Flat:      {MetricEuclidean},
		Spherical: {MetricEuclidean, MetricArc},
		ThreeD:    {MetricEuclidean, MetricArc, MetricRperp, MetricRlens},
	}
	all := []MetricName{MetricEuclidean, MetricArc, MetricRperp, MetricRlens}
	for coords, ok := range valid {
		for _, name := range all {
			m, err := NewMetric(name, coords)
			if contains(ok, name) {
				require.NoError(t, err, "%s on %s", name, coords)
				assert.Equal(t, name, m.Name())
			} else {
				require.ErrorIs(t, err, ErrValue, "%s on %s", name, coords)
			}
		}
	}

	_, err := NewMetric("Manhattan", Flat)
	require.ErrorIs(t, err, ErrValue)
}

func contains(names []MetricName, n MetricName) bool {
	for _, m := range names {
		if m == n {
			return true
		}
	}
	return false
}

func TestMetric_Separation(t *testing.T) {
	x := r3.Vec{X: 1}
	y := r3.Vec{Y: 1}

	r, rpar := ArcMetric{Coords: Spherical}.Separation(x, y)
	assert.InDelta(t, math.Pi/2, r, 1e-15)
	assert.Zero(t, rpar)

	r, _ = EuclideanMetric{Coords: Spherical}.Separation(x, y)
	assert.InDelta(t, math.Sqrt2, r, 1e-15)

	// Two points on one line of sight are separated only along it.
	near, far := r3.Vec{X: 100, Y: 10}, r3.Vec{X: 200, Y: 20}
	r, rpar = RperpMetric{}.Separation(near, far)
	assert.InDelta(t, 0, r, 1e-12)
	assert.InDelta(t, r3.Norm(far)-r3.Norm(near), rpar, 1e-9)

	_, rpar = EuclideanMetric{Coords: ThreeD}.Separation(far, near)
	assert.Negative(t, rpar, "rpar is negative when p2 is nearer")

	// Rlens measures at the distance of the first point.
	lens := r3.Vec{X: 100}
	src := r3.Vec{X: 200, Y: 20}
	r, _ = RlensMetric{}.Separation(lens, src)
	want := r3.Norm(r3.Cross(lens, src)) / r3.Norm(src)
	assert.InDelta(t, want, r, 1e-12)
	r2, _ := RlensMetric{}.Separation(src, lens)
	assert.NotEqual(t, r, r2, "Rlens is not symmetric")
}

// randomWithin returns a point at most s from c.
func randomWithin(rng *rand.Rand, c r3.Vec, s float64) r3.Vec {
	for {
		d := r3.Vec{X: 2*rng.Float64() - 1, Y: 2*rng.Float64() - 1, Z: 2*rng.Float64() - 1}
		if r3.Norm(d) <= 1 {
			return r3.Add(c, r3.Scale(s, d))
		}
	}
}

func TestMetric_BoundsContainSamples(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	tests := []struct {
		metric Metric
		coords Coords
	}{
		{EuclideanMetric{Coords: Flat}, Flat},
		{EuclideanMetric{Coords: Spherical}, Spherical},
		{ArcMetric{Coords: Spherical}, Spherical},
		{EuclideanMetric{Coords: ThreeD}, ThreeD},
		{ArcMetric{Coords: ThreeD}, ThreeD},
		{RperpMetric{}, ThreeD},
		{RlensMetric{}, ThreeD},
	}
	const eps = 1e-12
	for _, tt := range tests {
		t.Run(string(tt.metric.Name())+"/"+string(tt.coords), func(t *testing.T) {
			for trial := 0; trial < 200; trial++ {
				c1, c2, s1, s2 := sampleNodes(rng, tt.coords)
				bd := tt.metric.Bounds(c1, s1, c2, s2)
				for i := 0; i < 50; i++ {
					p1 := project(tt.coords, randomWithin(rng, c1, s1))
					p2 := project(tt.coords, randomWithin(rng, c2, s2))
					if r3.Norm(r3.Sub(p1, c1)) > s1 || r3.Norm(r3.Sub(p2, c2)) > s2 {
						continue
					}
					r, rpar := tt.metric.Separation(p1, p2)
					require.GreaterOrEqual(t, r, bd.RMin-eps*(1+bd.RMin))
					require.LessOrEqual(t, r, bd.RMax+eps*(1+bd.RMax))
					require.GreaterOrEqual(t, rpar, bd.RParMin-eps*(1+math.Abs(bd.RParMin)))
					require.LessOrEqual(t, rpar, bd.RParMax+eps*(1+math.Abs(bd.RParMax)))
				}
			}
		})
	}
}

func sampleNodes(rng *rand.Rand, coords Coords) (c1, c2 r3.Vec, s1, s2 float64) {
	switch coords {
	case Flat:
		c1 = r3.Vec{X: rng.Float64() * 10, Y: rng.Float64() * 10}
		c2 = r3.Vec{X: rng.Float64() * 10, Y: rng.Float64() * 10}
		return c1, c2, rng.Float64() * 2, rng.Float64() * 2
	case Spherical:
		c1 = FromRaDec(rng.Float64(), rng.Float64()-0.5)
		c2 = FromRaDec(rng.Float64(), rng.Float64()-0.5)
		return c1, c2, rng.Float64() * 0.1, rng.Float64() * 0.1
	}
	c1 = r3.Scale(50+100*rng.Float64(), FromRaDec(rng.Float64()*0.3, rng.Float64()*0.3))
	c2 = r3.Scale(50+100*rng.Float64(), FromRaDec(rng.Float64()*0.3, rng.Float64()*0.3))
	return c1, c2, rng.Float64() * 10, rng.Float64() * 10
}

// project keeps a sample in the coordinate system's space: flat points in
// the plane, spherical points on the sphere. Projecting can move a sample
// out of its ball, so callers recheck the distance.
func project(coords Coords, p r3.Vec) r3.Vec {
	switch coords {
	case Flat:
		p.Z = 0
	case Spherical:
		p = r3.Scale(1/r3.Norm(p), p)
	}
	return p
}
