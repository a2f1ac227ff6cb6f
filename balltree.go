package paircorr

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// BallTree is a ball tree over the points of a Field. Each node stores a
// centroid, a radius bounding every contained point, and the aggregate
// weights and values of its points.
//
// Nodes are stored in pre-order in a flat slice with explicit child
// indices; node 0 is the root. idxArray is the permutation mapping
// tree-order positions back to field indices.
type BallTree struct {
	field    *Field
	leafSize int
	split    SplitMethod
	idxArray []int
	nodes    []NodeData
}

// NewBallTree builds a ball tree over f. leafSize is the largest number of
// points a leaf may hold; nodes whose points all coincide are leaves
// regardless of size.
func NewBallTree(f *Field, leafSize int, split SplitMethod) *BallTree {
	if leafSize < 1 {
		leafSize = 1
	}
	if split == "" {
		split = SplitMean
	}

	n := f.Len()
	idxArray := make([]int, n)
	for i := range idxArray {
		idxArray[i] = i
	}

	t := &BallTree{field: f, leafSize: leafSize, split: split, idxArray: idxArray}
	if n > 0 {
		t.nodes = make([]NodeData, 0, 2*(n/leafSize)+1)
		t.buildNode(0, n, 0)
	}
	return t
}

// buildNode recursively builds the subtree for idxArray[start:end] and
// returns its node index.
func (t *BallTree) buildNode(start, end, depth int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, NodeData{IdxStart: start, IdxEnd: end, Depth: depth, Left: -1, Right: -1})

	center := t.computeCentroid(start, end)
	var radius float64
	for i := start; i < end; i++ {
		if d := r3.Norm(r3.Sub(t.field.pos[t.idxArray[i]], center)); d > radius {
			radius = d
		}
	}
	t.nodes[id].Center = center
	t.nodes[id].Radius = radius
	t.nodes[id].cellData = t.aggregate(start, end, center)

	if end-start <= t.leafSize || radius == 0 {
		t.nodes[id].IsLeaf = true
		return id
	}

	dim := t.findSpreadDim(start, end)
	mid := t.partition(start, end, dim)

	left := t.buildNode(start, mid, depth+1)
	right := t.buildNode(mid, end, depth+1)
	t.nodes[id].Left, t.nodes[id].Right = left, right
	return id
}

// computeCentroid returns the WPos-weighted mean position of
// idxArray[start:end], or the plain mean when every WPos is zero.
func (t *BallTree) computeCentroid(start, end int) r3.Vec {
	var sum r3.Vec
	var sumw float64
	for i := start; i < end; i++ {
		j := t.idxArray[i]
		w := t.field.wpos[j]
		sum = r3.Add(sum, r3.Scale(w, t.field.pos[j]))
		sumw += w
	}
	if sumw == 0 {
		sum = r3.Vec{}
		for i := start; i < end; i++ {
			sum = r3.Add(sum, t.field.pos[t.idxArray[i]])
		}
		sumw = float64(end - start)
	}
	c := r3.Scale(1/sumw, sum)
	if t.field.Coords == Spherical {
		if n := r3.Norm(c); n > 0 {
			c = r3.Scale(1/n, c)
		}
	}
	return c
}

// aggregate sums the weights and values of idxArray[start:end]. Spin-2
// values are moved into the frame at center before summing.
func (t *BallTree) aggregate(start, end int, center r3.Vec) cellData {
	var c cellData
	coords := t.field.Coords
	for i := start; i < end; i++ {
		j := t.idxArray[i]
		p := t.field.cell(j)
		c.N += p.N
		c.W += p.W
		c.W2 += p.W2
		c.WK += p.WK
		if p.WG != 0 {
			c.WG += transport(coords, p.WG, t.field.pos[j], center)
		}
	}
	return c
}

func (t *BallTree) dims() int {
	if t.field.Coords == Flat {
		return 2
	}
	return 3
}

func component(p r3.Vec, dim int) float64 {
	switch dim {
	case 0:
		return p.X
	case 1:
		return p.Y
	}
	return p.Z
}

// findSpreadDim returns the dimension with the greatest extent among
// points in idxArray[start:end]. Ties go to the larger WPos-weighted
// variance.
func (t *BallTree) findSpreadDim(start, end int) int {
	bestDim := 0
	bestSpread, bestVar := -1.0, -1.0
	for d := 0; d < t.dims(); d++ {
		minVal := math.Inf(1)
		maxVal := math.Inf(-1)
		var sw, swx, swx2 float64
		for i := start; i < end; i++ {
			j := t.idxArray[i]
			v := component(t.field.pos[j], d)
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
			w := t.field.wpos[j]
			sw += w
			swx += w * v
			swx2 += w * v * v
		}
		spread := maxVal - minVal
		var variance float64
		if sw > 0 {
			mean := swx / sw
			variance = swx2/sw - mean*mean
		}
		if spread > bestSpread || (spread == bestSpread && variance > bestVar) {
			bestDim, bestSpread, bestVar = d, spread, variance
		}
	}
	return bestDim
}

// partition sorts idxArray[start:end] along dim and returns the split
// position for the configured method. A split that would leave one side
// empty falls back to the median.
func (t *BallTree) partition(start, end, dim int) int {
	t.sortByDim(start, end, dim)
	sub := t.idxArray[start:end]
	at := func(i int) float64 { return component(t.field.pos[sub[i]], dim) }

	mid := len(sub) / 2
	var cut float64
	switch t.split {
	case SplitMedian:
		return start + mid
	case SplitMiddle:
		cut = (at(0) + at(len(sub)-1)) / 2
	default:
		var sw, swx float64
		for i := range sub {
			w := t.field.wpos[sub[i]]
			sw += w
			swx += w * at(i)
		}
		if sw == 0 {
			return start + mid
		}
		cut = swx / sw
	}
	if k := sort.Search(len(sub), func(i int) bool { return at(i) >= cut }); k > 0 && k < len(sub) {
		mid = k
	}
	return start + mid
}

// sortByDim sorts idxArray[start:end] by the given dimension.
func (t *BallTree) sortByDim(start, end, dim int) {
	sub := t.idxArray[start:end]
	pos := t.field.pos
	sort.Slice(sub, func(i, j int) bool {
		return component(pos[sub[i]], dim) < component(pos[sub[j]], dim)
	})
}

func (t *BallTree) Field() *Field             { return t.field }
func (t *BallTree) NumPoints() int            { return len(t.idxArray) }
func (t *BallTree) NumNodes() int             { return len(t.nodes) }
func (t *BallTree) IdxArray() []int           { return t.idxArray }
func (t *BallTree) NodeDataArray() []NodeData { return t.nodes }

// ChildNodes returns the left and right child node indices, or -1 for a
// leaf.
func (t *BallTree) ChildNodes(node int) (left, right int) {
	return t.nodes[node].Left, t.nodes[node].Right
}
