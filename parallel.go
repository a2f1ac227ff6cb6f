package paircorr

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// workItem is a pair of nodes whose subtrees one worker traverses.
type workItem struct{ a, b int }

// topLevel unrolls the first maxTop levels of the traversal into work
// items. It applies the same prune, aggregate and split decisions as
// process, so the union of the items covers exactly the pairs a sequential
// traversal would visit.
func (t *traverser) topLevel(maxTop int, st *traversalStats) []workItem {
	if len(t.a.nodes) == 0 || len(t.b.nodes) == 0 {
		return nil
	}
	var items []workItem
	var expand func(ia, ib, level int)
	expand = func(ia, ib, level int) {
		na, nb := &t.a.nodes[ia], &t.b.nodes[ib]
		if na.N == 0 || nb.N == 0 {
			st.pruned++
			return
		}
		if level >= maxTop {
			items = append(items, workItem{ia, ib})
			return
		}
		if t.auto && ia == ib {
			if na.IsLeaf {
				items = append(items, workItem{ia, ib})
				return
			}
			st.split++
			expand(na.Left, na.Left, level+1)
			expand(na.Left, na.Right, level+1)
			expand(na.Right, na.Right, level+1)
			return
		}
		switch t.decide(na, nb) {
		case actionPrune:
			st.pruned++
		case actionSplitA:
			st.split++
			expand(na.Left, ib, level+1)
			expand(na.Right, ib, level+1)
		case actionSplitB:
			st.split++
			expand(ia, nb.Left, level+1)
			expand(ia, nb.Right, level+1)
		default:
			items = append(items, workItem{ia, ib})
		}
	}
	expand(0, 0, 0)
	return items
}

// run traverses the trees with numWorkers goroutines. Item i goes to worker
// i mod numWorkers, each worker fills its own accumulator, and the
// accumulators are merged in worker order once all workers are done. When
// ctx is cancelled the workers stop taking new items, finish the one in
// hand, and the partial result is discarded.
func (t *traverser) run(ctx context.Context, numWorkers, maxTop int) (*Accumulator, traversalStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, traversalStats{}, err
	}
	var total traversalStats
	items := t.topLevel(maxTop, &total)

	numWorkers = max(1, min(numWorkers, len(items)))
	accs := make([]*Accumulator, numWorkers)
	stats := make([]traversalStats, numWorkers)

	g, gctx := errgroup.WithContext(ctx)
	for w := range numWorkers {
		accs[w] = NewAccumulator(t.bins.NBins)
		g.Go(func() error {
			for i := w; i < len(items); i += numWorkers {
				if err := gctx.Err(); err != nil {
					return err
				}
				t.process(accs[w], items[i].a, items[i].b, &stats[w])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, traversalStats{}, err
	}

	acc := accs[0]
	for w := 1; w < numWorkers; w++ {
		acc.Merge(accs[w])
	}
	for _, s := range stats {
		total.add(s)
	}
	return acc, total, nil
}

// runPairwise adds the pairs (a[i], b[i]). Workers handle contiguous
// ranges of i, each into a private accumulator.
func (t *traverser) runPairwise(ctx context.Context, a, b *Field, numWorkers int) (*Accumulator, traversalStats, error) {
	n := a.Len()
	numWorkers = max(1, min(numWorkers, n))
	perWorker := (n + numWorkers - 1) / numWorkers
	accs := make([]*Accumulator, numWorkers)
	stats := make([]traversalStats, numWorkers)

	g, gctx := errgroup.WithContext(ctx)
	for w := range numWorkers {
		accs[w] = NewAccumulator(t.bins.NBins)
		start := w * perWorker
		end := min(start+perWorker, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if (i-start)%4096 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if a.w[i] == 0 || b.w[i] == 0 {
					continue
				}
				ca, cb := a.cell(i), b.cell(i)
				t.pointPair(accs[w], a.pos[i], &ca, b.pos[i], &cb, &stats[w])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, traversalStats{}, err
	}

	acc := accs[0]
	var total traversalStats
	for w := range numWorkers {
		if w > 0 {
			acc.Merge(accs[w])
		}
		total.add(stats[w])
	}
	return acc, total, nil
}
