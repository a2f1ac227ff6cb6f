package paircorr

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type action int

const (
	actionPrune action = iota
	actionAggregate
	actionLeaves
	actionSplitA
	actionSplitB
)

// traverser walks pairs of nodes from two trees, or one tree against
// itself, and accumulates every pair of points into the bins. It is
// read-only once built and shared by all workers.
type traverser struct {
	kind   Kind
	coords Coords
	metric Metric
	bins   Binning

	// scale converts metric separations into the binning's units.
	scale            float64
	minSep, maxSep   float64
	minRpar, maxRpar float64
	slop             float64 // BinSlop * BinSize
	maxDepth         int

	a, b *BallTree
	auto bool
}

// decide chooses what to do with a pair of distinct nodes.
func (t *traverser) decide(na, nb *NodeData) action {
	bd := t.metric.Bounds(na.Center, na.Radius, nb.Center, nb.Radius)
	rmin, rmax := bd.RMin*t.scale, bd.RMax*t.scale

	if rmax < t.minSep || rmin >= t.maxSep || bd.RParMax < t.minRpar || bd.RParMin >= t.maxRpar {
		return actionPrune
	}
	inside := bd.RParMin >= t.minRpar && bd.RParMax < t.maxRpar
	if inside && (rmax-rmin)/2 <= t.slop*rmin {
		return actionAggregate
	}

	openA := !na.IsLeaf && (t.maxDepth == 0 || na.Depth < t.maxDepth)
	openB := !nb.IsLeaf && (t.maxDepth == 0 || nb.Depth < t.maxDepth)
	switch {
	case openA && openB:
		if splitFirst(na, nb) {
			return actionSplitA
		}
		return actionSplitB
	case openA:
		return actionSplitA
	case openB:
		return actionSplitB
	case na.IsLeaf && nb.IsLeaf:
		return actionLeaves
	}
	// A depth ceiling stopped the recursion above the leaves.
	return actionAggregate
}

// splitFirst reports whether a should be split before b: the larger node
// goes first, then the shallower one, then a.
func splitFirst(na, nb *NodeData) bool {
	if na.Radius != nb.Radius {
		return na.Radius > nb.Radius
	}
	return na.Depth <= nb.Depth
}

// process accumulates every point pair below nodes ia of tree a and ib of
// tree b into acc.
func (t *traverser) process(acc *Accumulator, ia, ib int, st *traversalStats) {
	na, nb := &t.a.nodes[ia], &t.b.nodes[ib]
	if na.N == 0 || nb.N == 0 {
		st.pruned++
		return
	}

	if t.auto && ia == ib {
		if na.IsLeaf {
			st.leaves++
			t.selfLeaf(acc, na, st)
			return
		}
		st.split++
		t.process(acc, na.Left, na.Left, st)
		t.process(acc, na.Left, na.Right, st)
		t.process(acc, na.Right, na.Right, st)
		return
	}

	switch act := t.decide(na, nb); act {
	case actionPrune:
		st.pruned++
	case actionAggregate:
		st.aggregated++
		r, rpar := t.metric.Separation(na.Center, nb.Center)
		t.contribute(acc, na.Center, &na.cellData, nb.Center, &nb.cellData, r, rpar)
	case actionLeaves:
		st.leaves++
		t.leafPairs(acc, na, nb, st)
	case actionSplitA:
		st.split++
		t.process(acc, na.Left, ib, st)
		t.process(acc, na.Right, ib, st)
	case actionSplitB:
		st.split++
		t.process(acc, ia, nb.Left, st)
		t.process(acc, ia, nb.Right, st)
	default:
		panic(fmt.Sprintf("paircorr: unexpected traversal action %d", act))
	}
}

// leafPairs pairs every point of na with every point of nb.
func (t *traverser) leafPairs(acc *Accumulator, na, nb *NodeData, st *traversalStats) {
	fa, fb := t.a.field, t.b.field
	for i := na.IdxStart; i < na.IdxEnd; i++ {
		pi := t.a.idxArray[i]
		if fa.w[pi] == 0 {
			continue
		}
		ci := fa.cell(pi)
		for j := nb.IdxStart; j < nb.IdxEnd; j++ {
			pj := t.b.idxArray[j]
			if fb.w[pj] == 0 {
				continue
			}
			cj := fb.cell(pj)
			t.pointPair(acc, fa.pos[pi], &ci, fb.pos[pj], &cj, st)
		}
	}
}

// selfLeaf pairs the points of a leaf with each other, each unordered pair
// once.
func (t *traverser) selfLeaf(acc *Accumulator, n *NodeData, st *traversalStats) {
	f := t.a.field
	for i := n.IdxStart; i < n.IdxEnd; i++ {
		pi := t.a.idxArray[i]
		if f.w[pi] == 0 {
			continue
		}
		ci := f.cell(pi)
		for j := i + 1; j < n.IdxEnd; j++ {
			pj := t.a.idxArray[j]
			if f.w[pj] == 0 {
				continue
			}
			cj := f.cell(pj)
			t.pointPair(acc, f.pos[pi], &ci, f.pos[pj], &cj, st)
		}
	}
}

func (t *traverser) pointPair(acc *Accumulator, pa r3.Vec, ca *cellData, pb r3.Vec, cb *cellData, st *traversalStats) {
	st.pointPairs++
	r, rpar := t.metric.Separation(pa, pb)
	t.contribute(acc, pa, ca, pb, cb, r, rpar)
}

// contribute adds one pair of aggregates at separation r if it falls inside
// the separation and rpar windows.
func (t *traverser) contribute(acc *Accumulator, pa r3.Vec, ca *cellData, pb r3.Vec, cb *cellData, r, rpar float64) {
	r *= t.scale
	if r < t.minSep || r >= t.maxSep || rpar < t.minRpar || rpar >= t.maxRpar {
		return
	}
	logr := math.Log(r)
	v := t.kind.combine(t.coords, t.auto, pa, ca, pb, cb)
	acc.addPair(t.bins.index(logr), ca.N*cb.N, ca.W*cb.W, ca.W2*cb.W2, r, logr, &v)
}
