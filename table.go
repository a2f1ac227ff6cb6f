package paircorr

import (
	"fmt"
	"math"
)

// TableMeta describes the configuration a Table was produced with. It is
// enough to rebuild the correlation's binning and to keep merging.
type TableMeta struct {
	Kind      string     `yaml:"kind"`
	Coords    Coords     `yaml:"coords,omitempty"`
	Metric    MetricName `yaml:"metric,omitempty"`
	SepUnits  SepUnits   `yaml:"sep_units,omitempty"`
	MinSep    float64    `yaml:"min_sep"`
	MaxSep    float64    `yaml:"max_sep"`
	NBins     int        `yaml:"nbins"`
	BinSize   float64    `yaml:"bin_size"`
	BinSlop   float64    `yaml:"bin_slop"`
	Estimator Estimator  `yaml:"estimator,omitempty"`
	Tot       float64    `yaml:"tot"`
	MomentsA  Moments    `yaml:"moments_a"`
	MomentsB  Moments    `yaml:"moments_b"`
}

// Table is a correlation as rows of named columns, one row per bin. The
// column order is stable per kind: R_nom, meanR, meanlogR, the statistic
// columns, the uncertainty, weight and npairs, then the raw sums needed to
// rebuild the accumulator exactly.
type Table struct {
	Meta    TableMeta
	Columns []string
	Float   map[string][]float64
	NPairs  []int64
}

const npairsColumn = "npairs"

// TableColumns returns the column names of a kind's table.
func TableColumns(kind Kind) []string {
	info := kind.info()
	cols := []string{"R_nom", "meanR", "meanlogR"}
	cols = append(cols, info.stats...)
	cols = append(cols, info.sigma, "weight", npairsColumn, "weight_sq", "sumR", "sumlogR")
	for _, s := range info.stats[:len(info.sumIndex)] {
		cols = append(cols, "sum_"+s)
	}
	return cols
}

// NumRows returns the number of bins in the table.
func (t *Table) NumRows() int { return len(t.NPairs) }

// Table converts the correlation to a Table. Randoms are passed to
// CalculateXi for the statistic columns.
func (c *Correlation) Table(randoms ...*Correlation) (*Table, error) {
	est, err := c.tableEstimate(randoms)
	if err != nil {
		return nil, err
	}
	info := c.kind.info()
	n := c.bins.NBins

	t := &Table{
		Meta:    c.tableMeta(),
		Columns: TableColumns(c.kind),
		Float:   make(map[string][]float64),
		NPairs:  append([]int64(nil), est.NPairs...),
	}
	t.Float["R_nom"] = est.RNom
	t.Float["meanR"] = est.MeanR
	t.Float["meanlogR"] = est.MeanLogR
	for i, s := range info.stats {
		t.Float[s] = est.Xi[i]
	}
	t.Float[info.sigma] = est.Sigma()
	t.Float["weight"] = est.Weight

	raw := map[string][]float64{"weight_sq": nil, "sumR": nil, "sumlogR": nil}
	for name := range raw {
		raw[name] = make([]float64, n)
	}
	sums := make([][]float64, len(info.sumIndex))
	for i := range sums {
		sums[i] = make([]float64, n)
	}
	for k, cell := range c.acc.Cells {
		raw["weight_sq"][k] = cell.WeightSq
		raw["sumR"][k] = cell.SumR
		raw["sumlogR"][k] = cell.SumLogR
		for i, s := range info.sumIndex {
			sums[i][k] = cell.Sum[s]
		}
	}
	for name, col := range raw {
		t.Float[name] = col
	}
	for i := range sums {
		t.Float["sum_"+info.stats[i]] = sums[i]
	}
	return t, nil
}

func (c *Correlation) tableEstimate(randoms []*Correlation) (*Estimate, error) {
	if c.kind == NN && len(randoms) == 0 {
		return c.Estimate(), nil
	}
	return c.CalculateXi(randoms...)
}

func (c *Correlation) tableMeta() TableMeta {
	return TableMeta{
		Kind:      c.kind.String(),
		Coords:    c.coords,
		Metric:    c.metric,
		SepUnits:  c.cfg.SepUnits,
		MinSep:    c.bins.MinSep,
		MaxSep:    c.bins.MaxSep,
		NBins:     c.bins.NBins,
		BinSize:   c.bins.BinSize,
		BinSlop:   c.cfg.binSlop(c.bins.BinSize),
		Estimator: c.cfg.Estimator,
		Tot:       c.tot,
		MomentsA:  c.momA,
		MomentsB:  c.momB,
	}
}

// loadTable replaces the raw state of c with the table's. The table must
// have the same kind and binning.
func (c *Correlation) loadTable(t *Table) error {
	kind, err := ParseKind(t.Meta.Kind)
	if err != nil {
		return err
	}
	if kind != c.kind {
		return fmt.Errorf("%w: table holds %s, not %s", ErrConfiguration, kind, c.kind)
	}
	bins := t.binning()
	if !bins.Equal(c.bins) {
		return fmt.Errorf("%w: table binning [%g, %g) x %d does not match [%g, %g) x %d",
			ErrConfiguration, bins.MinSep, bins.MaxSep, bins.NBins, c.bins.MinSep, c.bins.MaxSep, c.bins.NBins)
	}

	info := c.kind.info()
	n := c.bins.NBins
	need := []string{"weight", "weight_sq", "sumR", "sumlogR"}
	for _, s := range info.stats[:len(info.sumIndex)] {
		need = append(need, "sum_"+s)
	}
	for _, name := range need {
		if len(t.Float[name]) != n {
			return fmt.Errorf("%w: table column %q has %d rows, want %d", ErrValue, name, len(t.Float[name]), n)
		}
	}
	if len(t.NPairs) != n {
		return fmt.Errorf("%w: table column %q has %d rows, want %d", ErrValue, npairsColumn, len(t.NPairs), n)
	}

	acc := NewAccumulator(n)
	for k := range acc.Cells {
		cell := &acc.Cells[k]
		cell.NPairs = t.NPairs[k]
		cell.Weight = t.Float["weight"][k]
		cell.WeightSq = t.Float["weight_sq"][k]
		cell.SumR = t.Float["sumR"][k]
		cell.SumLogR = t.Float["sumlogR"][k]
		for i, s := range info.sumIndex {
			cell.Sum[s] = t.Float["sum_"+info.stats[i]][k]
		}
	}
	c.acc = acc
	c.tot = t.Meta.Tot
	c.momA, c.momB = t.Meta.MomentsA, t.Meta.MomentsB
	c.coords, c.metric = t.Meta.Coords, t.Meta.Metric
	c.est = nil
	return nil
}

func (t *Table) binning() Binning {
	return Binning{
		MinSep:  t.Meta.MinSep,
		MaxSep:  t.Meta.MaxSep,
		NBins:   t.Meta.NBins,
		BinSize: t.Meta.BinSize,
		logMin:  math.Log(t.Meta.MinSep),
	}
}

// FromTable builds a correlation from a table. cfg supplies the settings
// the table does not carry (threads, logger, metrics); its binning, units
// and estimator are taken from the table.
func FromTable(t *Table, cfg Config) (*Correlation, error) {
	kind, err := ParseKind(t.Meta.Kind)
	if err != nil {
		return nil, err
	}
	cfg.MinSep, cfg.MaxSep, cfg.NBins, cfg.BinSize = t.Meta.MinSep, t.Meta.MaxSep, t.Meta.NBins, t.Meta.BinSize
	cfg.SepUnits = t.Meta.SepUnits
	if t.Meta.Estimator != "" {
		cfg.Estimator = t.Meta.Estimator
	}
	if t.Meta.Metric != "" {
		cfg.Metric = t.Meta.Metric
	}
	if cfg.BinSlop == nil {
		cfg.BinSlop = Float64(t.Meta.BinSlop)
	}
	c, err := NewCorrelation(kind, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.loadTable(t); err != nil {
		return nil, err
	}
	return c, nil
}
