package paircorr

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Catalog is the input to NewField: parallel columns of positions, weights
// and optional values. Give either X and Y (plus Z for 3-D positions) or RA
// and Dec in radians (plus R, a distance, for 3-D positions).
type Catalog struct {
	Name   string
	Coords Coords // optional; inferred from the columns when empty

	X, Y, Z    []float64
	RA, Dec, R []float64

	// W is the value weight of each point (default 1). WPos is the weight
	// used to build the tree (default W). Zeroing W while keeping WPos lets
	// a subset of a catalog be processed with the tree of the whole.
	W, WPos []float64

	K      []float64
	G1, G2 []float64
}

// Field is an immutable weighted point set ready to be correlated.
type Field struct {
	Name   string
	Coords Coords

	pos  []r3.Vec
	w    []float64
	wpos []float64
	k    []float64
	g    []complex128

	// SumW and SumW2 are the sums of the weights and squared weights.
	SumW, SumW2 float64
	// NObj counts points with a non-zero weight.
	NObj int

	MeanK, VarK float64
	MeanG       complex128
	// VarG is the mean of the two per-component variances of G.
	VarG float64

	kMoments, gMoments Moments

	mu    sync.Mutex
	trees map[treeKey]*BallTree
}

type treeKey struct {
	leafSize int
	split    SplitMethod
}

// NewField validates a catalog and computes its summary statistics.
func NewField(cat Catalog) (*Field, error) {
	pos, coords, err := catalogPositions(&cat)
	if err != nil {
		return nil, err
	}
	n := len(pos)

	f := &Field{Name: cat.Name, Coords: coords, pos: pos, trees: make(map[treeKey]*BallTree)}

	if f.w, err = column("W", cat.W, n, 1); err != nil {
		return nil, err
	}
	if f.wpos, err = column("WPos", cat.WPos, n, -1); err != nil {
		return nil, err
	}
	if cat.WPos == nil {
		f.wpos = f.w
	}
	for i := range n {
		if !(f.w[i] >= 0) || math.IsInf(f.w[i], 0) || !(f.wpos[i] >= 0) || math.IsInf(f.wpos[i], 0) {
			return nil, fmt.Errorf("%w: weights must be finite and non-negative (point %d)", ErrValue, i)
		}
		if f.w[i] > 0 {
			f.NObj++
		}
	}

	if cat.K != nil {
		if f.k, err = column("K", cat.K, n, 0); err != nil {
			return nil, err
		}
	}
	if cat.G1 != nil || cat.G2 != nil {
		if cat.G1 == nil || cat.G2 == nil {
			return nil, fmt.Errorf("%w: G1 and G2 must be given together", ErrValue)
		}
		g1, err := column("G1", cat.G1, n, 0)
		if err != nil {
			return nil, err
		}
		g2, err := column("G2", cat.G2, n, 0)
		if err != nil {
			return nil, err
		}
		f.g = make([]complex128, n)
		for i := range n {
			f.g[i] = complex(g1[i], g2[i])
		}
		f.computeG(g1, g2)
	}

	f.SumW = floats.Sum(f.w)
	f.SumW2 = floats.Dot(f.w, f.w)
	if f.k != nil {
		f.computeK()
	}
	return f, nil
}

func catalogPositions(cat *Catalog) ([]r3.Vec, Coords, error) {
	var (
		pos    []r3.Vec
		coords Coords
	)
	switch {
	case cat.RA != nil || cat.Dec != nil:
		if len(cat.RA) != len(cat.Dec) {
			return nil, "", fmt.Errorf("%w: RA has %d entries, Dec has %d", ErrValue, len(cat.RA), len(cat.Dec))
		}
		coords = Spherical
		if cat.R != nil {
			coords = ThreeD
			if len(cat.R) != len(cat.RA) {
				return nil, "", fmt.Errorf("%w: R has %d entries, want %d", ErrValue, len(cat.R), len(cat.RA))
			}
		}
		pos = make([]r3.Vec, len(cat.RA))
		for i := range pos {
			pos[i] = FromRaDec(cat.RA[i], cat.Dec[i])
			if cat.R != nil {
				pos[i] = r3.Scale(cat.R[i], pos[i])
			}
		}
	case cat.X != nil || cat.Y != nil:
		if len(cat.X) != len(cat.Y) {
			return nil, "", fmt.Errorf("%w: X has %d entries, Y has %d", ErrValue, len(cat.X), len(cat.Y))
		}
		coords = Flat
		if cat.Z != nil {
			coords = ThreeD
			if len(cat.Z) != len(cat.X) {
				return nil, "", fmt.Errorf("%w: Z has %d entries, want %d", ErrValue, len(cat.Z), len(cat.X))
			}
		}
		pos = make([]r3.Vec, len(cat.X))
		for i := range pos {
			pos[i] = r3.Vec{X: cat.X[i], Y: cat.Y[i]}
			if cat.Z != nil {
				pos[i].Z = cat.Z[i]
			}
		}
	default:
		return nil, "", fmt.Errorf("%w: catalog %q has no positions", ErrValue, cat.Name)
	}

	if cat.Coords != "" && cat.Coords != coords {
		return nil, "", fmt.Errorf("%w: catalog columns give %s coordinates, not %s", ErrValue, coords, cat.Coords)
	}
	for i, p := range pos {
		if math.IsNaN(p.X+p.Y+p.Z) || math.IsInf(p.X+p.Y+p.Z, 0) {
			return nil, "", fmt.Errorf("%w: position of point %d is not finite", ErrValue, i)
		}
	}
	return pos, coords, nil
}

// column checks the length of an optional column, filling it with def when
// it is nil and def >= 0.
func column(name string, v []float64, n int, def float64) ([]float64, error) {
	if v == nil {
		if def < 0 {
			return nil, nil
		}
		out := make([]float64, n)
		if def != 0 {
			for i := range out {
				out[i] = def
			}
		}
		return out, nil
	}
	if len(v) != n {
		return nil, fmt.Errorf("%w: %s has %d entries, want %d", ErrValue, name, len(v), n)
	}
	out := make([]float64, n)
	copy(out, v)
	return out, nil
}

func (f *Field) computeK() {
	if f.SumW == 0 {
		return
	}
	f.MeanK, f.VarK = stat.PopMeanVariance(f.k, f.w)
	f.kMoments = momentsOf(f.SumW, [2]float64{f.MeanK}, [2]float64{f.VarK})
}

func (f *Field) computeG(g1, g2 []float64) {
	sumw := floats.Sum(f.w)
	if sumw == 0 {
		return
	}
	m1, v1 := stat.PopMeanVariance(g1, f.w)
	m2, v2 := stat.PopMeanVariance(g2, f.w)
	f.MeanG = complex(m1, m2)
	f.VarG = (v1 + v2) / 2
	f.gMoments = momentsOf(sumw, [2]float64{m1, m2}, [2]float64{v1, v2})
}

func momentsOf(sumw float64, mean, variance [2]float64) Moments {
	m := Moments{SumW: sumw}
	for i := range mean {
		m.SumWX[i] = sumw * mean[i]
		m.SumWX2[i] = sumw * (variance[i] + mean[i]*mean[i])
	}
	return m
}

// Len returns the number of points, including those with zero weight.
func (f *Field) Len() int { return len(f.pos) }

// HasK reports whether the field carries a scalar value.
func (f *Field) HasK() bool { return f.k != nil }

// HasG reports whether the field carries a spin-2 value.
func (f *Field) HasG() bool { return f.g != nil }

// KMoments returns the weighted moments of the scalar value.
func (f *Field) KMoments() Moments { return f.kMoments }

// GMoments returns the weighted moments of the spin-2 value.
func (f *Field) GMoments() Moments { return f.gMoments }

func (f *Field) has(v valueType) bool {
	switch v {
	case valueK:
		return f.HasK()
	case valueG:
		return f.HasG()
	}
	return true
}

func (f *Field) moments(v valueType) Moments {
	switch v {
	case valueK:
		return f.kMoments
	case valueG:
		return f.gMoments
	}
	return Moments{SumW: f.SumW}
}

// Tree returns the ball tree for the given options, building it on first
// use. Trees are cached and safe to share between goroutines.
func (f *Field) Tree(leafSize int, split SplitMethod) *BallTree {
	key := treeKey{leafSize: leafSize, split: split}
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.trees[key]; ok {
		return t
	}
	t := NewBallTree(f, leafSize, split)
	f.trees[key] = t
	return t
}

// cell returns the single-point aggregate of point i.
func (f *Field) cell(i int) cellData {
	w := f.w[i]
	c := cellData{W: w, W2: w * w}
	if w > 0 {
		c.N = 1
	}
	if f.k != nil {
		c.WK = w * f.k[i]
	}
	if f.g != nil {
		c.WG = complex(w, 0) * f.g[i]
	}
	return c
}
