package paircorr

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Correlation accumulates one two-point statistic over log-spaced
// separation bins. Process calls add pairs to the raw sums; Add merges
// results computed elsewhere; Finalize and CalculateXi derive the
// normalized columns without touching the raw sums.
//
// A Correlation is not safe for concurrent use. Fields and their trees
// may be shared between any number of correlations.
type Correlation struct {
	kind Kind
	cfg  Config
	bins Binning

	// coords and metric record what the sums were built from; empty until
	// the first process call or merge.
	coords Coords
	metric MetricName

	acc        *Accumulator
	tot        float64
	momA, momB Moments

	est *Estimate
	log *zap.Logger
}

// NewCorrelation validates cfg and returns an empty correlation of the
// given kind.
func NewCorrelation(kind Kind, cfg Config) (*Correlation, error) {
	if kind < 0 || int(kind) >= len(kinds) {
		return nil, fmt.Errorf("%w: invalid kind %d", ErrValue, int(kind))
	}
	applyDefaults(&cfg)
	if err := checkValues(&cfg); err != nil {
		return nil, err
	}
	bins, err := validateConfig(&cfg)
	if err != nil {
		return nil, err
	}
	return &Correlation{
		kind: kind,
		cfg:  cfg,
		bins: bins,
		acc:  NewAccumulator(bins.NBins),
		log:  cfg.Logger.With(zap.Stringer("kind", kind)),
	}, nil
}

func (c *Correlation) Kind() Kind          { return c.kind }
func (c *Correlation) Config() Config      { return c.cfg }
func (c *Correlation) Binning() Binning    { return c.bins }
func (c *Correlation) Coords() Coords      { return c.coords }
func (c *Correlation) Metric() MetricName  { return c.metric }
func (c *Correlation) Tot() float64        { return c.tot }
func (c *Correlation) MomentsA() Moments   { return c.momA }
func (c *Correlation) MomentsB() Moments   { return c.momB }
func (c *Correlation) Cells() []Cell       { return append([]Cell(nil), c.acc.Cells...) }
func (c *Correlation) NBins() int          { return c.bins.NBins }
func (c *Correlation) Logger() *zap.Logger { return c.log }

// VarA returns the pooled variance of the first fields' values.
func (c *Correlation) VarA() float64 { return c.momA.variance(c.kind.info().a) }

// VarB returns the pooled variance of the second fields' values.
func (c *Correlation) VarB() float64 { return c.momB.variance(c.kind.info().b) }

// Process clears the correlation, accumulates a against b (or a against
// itself when b is nil) and finalizes with the fields' variances.
func (c *Correlation) Process(ctx context.Context, a, b *Field) error {
	c.Clear()
	var err error
	if b == nil {
		err = c.ProcessAuto(ctx, a)
	} else {
		err = c.ProcessCross(ctx, a, b)
	}
	if err != nil {
		return err
	}
	c.Finalize(c.VarA(), c.VarB())
	return nil
}

// ProcessCross adds every pair of one point from a and one from b.
func (c *Correlation) ProcessCross(ctx context.Context, a, b *Field) error {
	start := time.Now()
	info := c.kind.info()
	if err := c.requireValues(a, info.a, b, info.b); err != nil {
		return err
	}
	t, err := c.newTraverser(a, b, false)
	if err != nil {
		return err
	}
	t.a = a.Tree(c.cfg.LeafSize, c.cfg.SplitMethod)
	t.b = b.Tree(c.cfg.LeafSize, c.cfg.SplitMethod)

	acc, st, err := t.run(ctx, c.cfg.NumThreads, c.cfg.MaxTop)
	if err != nil {
		return fmt.Errorf("paircorr: %s cross correlation: %w", c.kind, err)
	}
	c.acc.Merge(acc)
	c.tot += a.SumW * b.SumW
	c.momA.add(a.moments(info.a))
	c.momB.add(b.moments(info.b))
	c.est = nil

	elapsed := time.Since(start)
	c.cfg.Metrics.observe(c.kind, "cross", st, elapsed)
	c.log.Debug("processed cross correlation",
		zap.String("field1", a.Name), zap.String("field2", b.Name),
		zap.Int("n1", a.Len()), zap.Int("n2", b.Len()),
		zap.Int64("point_pairs", st.pointPairs), zap.Int64("aggregated", st.aggregated),
		zap.Duration("elapsed", elapsed))
	return c.noteSource(t.coords, t.metric.Name())
}

// ProcessAuto adds every unordered pair of distinct points of a. Only NN,
// KK and GG have an auto-correlation.
func (c *Correlation) ProcessAuto(ctx context.Context, a *Field) error {
	start := time.Now()
	info := c.kind.info()
	if !info.auto {
		return fmt.Errorf("%w: %s has no auto-correlation", ErrValue, c.kind)
	}
	if err := c.requireValues(a, info.a, a, info.b); err != nil {
		return err
	}
	t, err := c.newTraverser(a, a, true)
	if err != nil {
		return err
	}
	t.a = a.Tree(c.cfg.LeafSize, c.cfg.SplitMethod)
	t.b = t.a

	acc, st, err := t.run(ctx, c.cfg.NumThreads, c.cfg.MaxTop)
	if err != nil {
		return fmt.Errorf("paircorr: %s auto correlation: %w", c.kind, err)
	}
	c.acc.Merge(acc)
	c.tot += 0.5 * (a.SumW*a.SumW - a.SumW2)
	c.momA.add(a.moments(info.a))
	c.momB.add(a.moments(info.b))
	c.est = nil

	elapsed := time.Since(start)
	c.cfg.Metrics.observe(c.kind, "auto", st, elapsed)
	c.log.Debug("processed auto correlation",
		zap.String("field", a.Name), zap.Int("n", a.Len()),
		zap.Int64("point_pairs", st.pointPairs), zap.Int64("aggregated", st.aggregated),
		zap.Duration("elapsed", elapsed))
	return c.noteSource(t.coords, t.metric.Name())
}

// ProcessPairwise adds only the pairs (a[i], b[i]). The fields must have
// the same length.
func (c *Correlation) ProcessPairwise(ctx context.Context, a, b *Field) error {
	start := time.Now()
	info := c.kind.info()
	if a.Len() != b.Len() {
		return fmt.Errorf("%w: pairwise fields have %d and %d points", ErrValue, a.Len(), b.Len())
	}
	if err := c.requireValues(a, info.a, b, info.b); err != nil {
		return err
	}
	t, err := c.newTraverser(a, b, false)
	if err != nil {
		return err
	}

	acc, st, err := t.runPairwise(ctx, a, b, c.cfg.NumThreads)
	if err != nil {
		return fmt.Errorf("paircorr: %s pairwise correlation: %w", c.kind, err)
	}
	c.acc.Merge(acc)
	c.tot += floats.Dot(a.w, b.w)
	c.momA.add(a.moments(info.a))
	c.momB.add(b.moments(info.b))
	c.est = nil

	elapsed := time.Since(start)
	c.cfg.Metrics.observe(c.kind, "pairwise", st, elapsed)
	c.log.Debug("processed pairwise correlation",
		zap.String("field1", a.Name), zap.String("field2", b.Name),
		zap.Int("n", a.Len()), zap.Duration("elapsed", elapsed))
	return c.noteSource(t.coords, t.metric.Name())
}

func (c *Correlation) requireValues(a *Field, va valueType, b *Field, vb valueType) error {
	if !a.has(va) {
		return fmt.Errorf("%w: %s needs %s values in field %q", ErrValue, c.kind, va, a.Name)
	}
	if !b.has(vb) {
		return fmt.Errorf("%w: %s needs %s values in field %q", ErrValue, c.kind, vb, b.Name)
	}
	fields := []*Field{a}
	if b != a {
		fields = append(fields, b)
	}
	for _, f := range fields {
		if f.SumW == 0 {
			c.log.Warn("field has zero total weight", zap.String("field", f.Name), zap.Int("n", f.Len()))
		}
	}
	return nil
}

// newTraverser checks the fields against the configuration and returns a
// traverser without trees.
func (c *Correlation) newTraverser(a, b *Field, auto bool) (*traverser, error) {
	if a.Coords != b.Coords {
		return nil, fmt.Errorf("%w: fields use %s and %s coordinates", ErrValue, a.Coords, b.Coords)
	}
	coords := a.Coords
	metric, err := NewMetric(c.cfg.Metric, coords)
	if err != nil {
		return nil, err
	}
	if auto && metric.Name() == MetricRlens {
		return nil, fmt.Errorf("%w: Rlens is not symmetric and cannot be used for an auto-correlation", ErrValue)
	}
	if c.cfg.SepUnits != "" && coords != Spherical && metric.Name() != MetricArc {
		return nil, fmt.Errorf("%w: SepUnits requires spherical coordinates or the Arc metric", ErrConfiguration)
	}
	if (c.cfg.MinRpar != nil || c.cfg.MaxRpar != nil) && coords != ThreeD {
		return nil, fmt.Errorf("%w: MinRpar and MaxRpar require 3-D coordinates", ErrConfiguration)
	}

	unit, err := c.cfg.SepUnits.Radians()
	if err != nil {
		return nil, err
	}
	minRpar, maxRpar := c.cfg.rparWindow()
	return &traverser{
		kind:     c.kind,
		coords:   coords,
		metric:   metric,
		bins:     c.bins,
		scale:    1 / unit,
		minSep:   c.bins.MinSep,
		maxSep:   c.bins.MaxSep,
		minRpar:  minRpar,
		maxRpar:  maxRpar,
		slop:     c.cfg.binSlop(c.bins.BinSize) * c.bins.BinSize,
		maxDepth: c.cfg.MaxDepth,
		auto:     auto,
	}, nil
}

// Finalize derives the normalized columns using the given per-object
// variances of the two sides' values. It may be called any number of times.
func (c *Correlation) Finalize(varA, varB float64) *Estimate {
	c.est = finalize(c.kind, c.bins, c.acc, varA, varB)
	return c.est
}

// Estimate returns the last finalized columns, finalizing with the pooled
// field variances if needed.
func (c *Correlation) Estimate() *Estimate {
	if c.est == nil {
		c.Finalize(c.VarA(), c.VarB())
	}
	return c.est
}

// Add merges the raw sums of other into c. Results with different kinds or
// binning are not merged. Results built from different coordinate systems
// or metrics are merged, and a *MismatchError is returned and logged.
func (c *Correlation) Add(other *Correlation) error {
	if other.kind != c.kind {
		return fmt.Errorf("%w: cannot add %s to %s", ErrConfiguration, other.kind, c.kind)
	}
	if !c.bins.Equal(other.bins) {
		return fmt.Errorf("%w: cannot add results with different binning", ErrConfiguration)
	}
	c.acc.Merge(other.acc)
	c.tot += other.tot
	c.momA.add(other.momA)
	c.momB.add(other.momB)
	c.est = nil
	return c.noteSource(other.coords, other.metric)
}

// noteSource records the coordinate system and metric of newly added sums
// and reports a change.
func (c *Correlation) noteSource(coords Coords, metric MetricName) error {
	if coords == "" {
		return nil
	}
	if c.coords == "" {
		c.coords, c.metric = coords, metric
		return nil
	}
	if c.coords == coords && c.metric == metric {
		return nil
	}
	if c.coords != coords {
		c.log.Warn("Detected a change in catalog coordinate systems",
			zap.String("was", string(c.coords)), zap.String("now", string(coords)))
	}
	if c.metric != metric {
		c.log.Warn("Detected a change in metric",
			zap.String("was", string(c.metric)), zap.String("now", string(metric)))
	}
	return &MismatchError{
		Coords: [2]Coords{c.coords, coords},
		Metric: [2]MetricName{c.metric, metric},
	}
}

// Copy returns an independent copy.
func (c *Correlation) Copy() *Correlation {
	cp := *c
	cp.acc = c.acc.Copy()
	if c.est != nil {
		cp.est = c.est.copy()
	}
	return &cp
}

// Clear zeroes the raw sums and forgets what they were built from. The
// binning is kept.
func (c *Correlation) Clear() {
	c.acc.Clear()
	c.tot = 0
	c.momA, c.momB = Moments{}, Moments{}
	c.coords, c.metric = "", ""
	c.est = nil
}
