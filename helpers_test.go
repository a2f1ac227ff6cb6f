package paircorr

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type catalogOpts struct {
	k, g    bool
	weights bool
}

func flatCatalog(rng *rand.Rand, n int, size float64, o catalogOpts) Catalog {
	cat := Catalog{Name: "flat", X: make([]float64, n), Y: make([]float64, n)}
	for i := range n {
		cat.X[i] = rng.Float64() * size
		cat.Y[i] = rng.Float64() * size
	}
	fillValues(rng, &cat, n, o)
	return cat
}

// sphereCatalog draws points in a patch of side size radians around
// (ra0, dec0).
func sphereCatalog(rng *rand.Rand, n int, ra0, dec0, size float64, o catalogOpts) Catalog {
	cat := Catalog{Name: "sphere", RA: make([]float64, n), Dec: make([]float64, n)}
	for i := range n {
		cat.RA[i] = ra0 + (rng.Float64()-0.5)*size
		cat.Dec[i] = dec0 + (rng.Float64()-0.5)*size
	}
	fillValues(rng, &cat, n, o)
	return cat
}

// shellCatalog is sphereCatalog with distances in [rmin, rmax).
func shellCatalog(rng *rand.Rand, n int, size, rmin, rmax float64, o catalogOpts) Catalog {
	cat := sphereCatalog(rng, n, 0.4, 0.2, size, o)
	cat.Name = "shell"
	cat.R = make([]float64, n)
	for i := range n {
		cat.R[i] = rmin + rng.Float64()*(rmax-rmin)
	}
	return cat
}

func fillValues(rng *rand.Rand, cat *Catalog, n int, o catalogOpts) {
	if o.weights {
		cat.W = make([]float64, n)
		for i := range n {
			cat.W[i] = 0.5 + rng.Float64()
		}
	}
	if o.k {
		cat.K = make([]float64, n)
		for i := range n {
			cat.K[i] = rng.NormFloat64()
		}
	}
	if o.g {
		cat.G1 = make([]float64, n)
		cat.G2 = make([]float64, n)
		for i := range n {
			cat.G1[i] = 0.2 * rng.NormFloat64()
			cat.G2[i] = 0.2 * rng.NormFloat64()
		}
	}
}

func mustField(t testing.TB, cat Catalog) *Field {
	t.Helper()
	f, err := NewField(cat)
	require.NoError(t, err)
	return f
}

func mustCorrelation(t testing.TB, kind Kind, cfg Config) *Correlation {
	t.Helper()
	c, err := NewCorrelation(kind, cfg)
	require.NoError(t, err)
	return c
}

func exactConfig(minSep, maxSep float64, nbins int) Config {
	cfg := DefaultConfig()
	cfg.MinSep, cfg.MaxSep, cfg.NBins = minSep, maxSep, nbins
	cfg.BinSlop = Float64(0)
	return cfg
}

// bruteForce accumulates every pair of points one by one, without trees.
// b == nil means the auto-correlation of a.
func bruteForce(t *testing.T, c *Correlation, a, b *Field) *Accumulator {
	t.Helper()
	auto := b == nil
	if auto {
		b = a
	}
	tr, err := c.newTraverser(a, b, auto)
	require.NoError(t, err)

	acc := NewAccumulator(c.bins.NBins)
	var st traversalStats
	for i := range a.Len() {
		if a.w[i] == 0 {
			continue
		}
		ci := a.cell(i)
		start := 0
		if auto {
			start = i + 1
		}
		for j := start; j < b.Len(); j++ {
			if b.w[j] == 0 {
				continue
			}
			cj := b.cell(j)
			tr.pointPair(acc, a.pos[i], &ci, b.pos[j], &cj, &st)
		}
	}
	return acc
}

func requireCellsClose(t *testing.T, want, got []Cell, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for k := range want {
		w, g := want[k], got[k]
		require.Equal(t, w.NPairs, g.NPairs, "npairs in bin %d", k)
		requireClose(t, w.Weight, g.Weight, tol, "weight in bin %d", k)
		requireClose(t, w.WeightSq, g.WeightSq, tol, "weight_sq in bin %d", k)
		requireClose(t, w.SumR, g.SumR, tol, "sumR in bin %d", k)
		requireClose(t, w.SumLogR, g.SumLogR, tol, "sumlogR in bin %d", k)
		for i := range w.Sum {
			requireClose(t, w.Sum[i], g.Sum[i], tol, "sum[%d] in bin %d", i, k)
		}
	}
}

// requireClose compares with a relative tolerance, falling back to an
// absolute one near zero.
func requireClose(t *testing.T, want, got, tol float64, msgAndArgs ...any) {
	t.Helper()
	scale := math.Max(1, math.Max(math.Abs(want), math.Abs(got)))
	require.InDelta(t, want, got, tol*scale, msgAndArgs...)
}

func totalPairs(cells []Cell) int64 {
	var n int64
	for _, c := range cells {
		n += c.NPairs
	}
	return n
}
