package paircorr

// Cell holds the raw sums of one separation bin.
type Cell struct {
	NPairs   int64
	Weight   float64
	WeightSq float64
	SumR     float64
	SumLogR  float64
	// Sum holds the value sums; how many slots are live depends on the kind.
	Sum [4]float64
}

// Accumulator is the raw per-bin state of a correlation. It is only written
// by the traversal and by Merge; deriving statistics never changes it.
type Accumulator struct {
	Cells []Cell
}

// NewAccumulator returns a zeroed accumulator with nbins cells.
func NewAccumulator(nbins int) *Accumulator {
	return &Accumulator{Cells: make([]Cell, nbins)}
}

func (a *Accumulator) addPair(k int, n int64, w, w2, r, logr float64, v *[4]float64) {
	c := &a.Cells[k]
	c.NPairs += n
	c.Weight += w
	c.WeightSq += w2
	c.SumR += w * r
	c.SumLogR += w * logr
	c.Sum[0] += v[0]
	c.Sum[1] += v[1]
	c.Sum[2] += v[2]
	c.Sum[3] += v[3]
}

// Merge adds other cell by cell. Both accumulators must have the same
// number of cells.
func (a *Accumulator) Merge(other *Accumulator) {
	if len(a.Cells) != len(other.Cells) {
		panic("paircorr: merging accumulators with different bin counts")
	}
	for k := range a.Cells {
		c, o := &a.Cells[k], &other.Cells[k]
		c.NPairs += o.NPairs
		c.Weight += o.Weight
		c.WeightSq += o.WeightSq
		c.SumR += o.SumR
		c.SumLogR += o.SumLogR
		for i := range c.Sum {
			c.Sum[i] += o.Sum[i]
		}
	}
}

// Clear zeroes every cell in place.
func (a *Accumulator) Clear() {
	clear(a.Cells)
}

// Copy returns an independent copy.
func (a *Accumulator) Copy() *Accumulator {
	return &Accumulator{Cells: append([]Cell(nil), a.Cells...)}
}
