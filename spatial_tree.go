package paircorr

import "gonum.org/v1/gonum/spatial/r3"

// cellData is the aggregate a node contributes when it is treated as a
// single object. N counts points with non-zero weight. For curved
// coordinates WG is expressed in the local frame at the node centre.
type cellData struct {
	N  int64
	W  float64
	W2 float64
	WK float64
	WG complex128
}

// NodeData describes a single node in a ball tree. Leaves own the range
// IdxStart..IdxEnd of the tree's index permutation; interior nodes own
// Left and Right.
type NodeData struct {
	IdxStart, IdxEnd int
	IsLeaf           bool
	Left, Right      int
	Depth            int

	// Center is the position-weighted centroid. For spherical fields it is
	// projected back onto the unit sphere.
	Center r3.Vec
	// Radius is the largest distance from Center to a point in the node.
	Radius float64

	cellData
}

// Count returns the number of points under the node, including points with
// zero weight.
func (n *NodeData) Count() int { return n.IdxEnd - n.IdxStart }

// Weight returns the summed value weight of the node.
func (n *NodeData) Weight() float64 { return n.W }
