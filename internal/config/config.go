// Package config loads the settings of the paircorr command.
package config

import (
	"github.com/TrevorS/paircorr"
	"github.com/TrevorS/paircorr/internal/catalog"
)

// RunConfig is everything one "paircorr run" needs.
type RunConfig struct {
	Kind     string `mapstructure:"kind" yaml:"kind" validate:"required"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// Cat1 is always required. Cat2, when it has a file, makes the run a
	// cross-correlation.
	Cat1 CatalogConfig `mapstructure:"cat1" yaml:"cat1"`
	Cat2 CatalogConfig `mapstructure:"cat2" yaml:"cat2"`
	// Rand1 and Rand2 are optional random catalogs standing in for Cat1
	// and Cat2.
	Rand1 CatalogConfig `mapstructure:"rand1" yaml:"rand1"`
	Rand2 CatalogConfig `mapstructure:"rand2" yaml:"rand2"`

	Output    string `mapstructure:"output" yaml:"output" validate:"required"`
	Precision int    `mapstructure:"precision" yaml:"precision" validate:"gte=0"`

	// MetricsAddr, when set, serves Prometheus metrics at /metrics while
	// the run lasts.
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`

	Correlation CorrelationConfig `mapstructure:"correlation" yaml:"correlation"`
}

// CatalogConfig locates a catalog file and its columns.
type CatalogConfig struct {
	File      string `mapstructure:"file" yaml:"file"`
	Name      string `mapstructure:"name" yaml:"name"`
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	Comment   string `mapstructure:"comment" yaml:"comment"`

	XCol    int `mapstructure:"x_col" yaml:"x_col" validate:"gte=0"`
	YCol    int `mapstructure:"y_col" yaml:"y_col" validate:"gte=0"`
	ZCol    int `mapstructure:"z_col" yaml:"z_col" validate:"gte=0"`
	RACol   int `mapstructure:"ra_col" yaml:"ra_col" validate:"gte=0"`
	DecCol  int `mapstructure:"dec_col" yaml:"dec_col" validate:"gte=0"`
	RCol    int `mapstructure:"r_col" yaml:"r_col" validate:"gte=0"`
	WCol    int `mapstructure:"w_col" yaml:"w_col" validate:"gte=0"`
	WPosCol int `mapstructure:"wpos_col" yaml:"wpos_col" validate:"gte=0"`
	KCol    int `mapstructure:"k_col" yaml:"k_col" validate:"gte=0"`
	G1Col   int `mapstructure:"g1_col" yaml:"g1_col" validate:"gte=0"`
	G2Col   int `mapstructure:"g2_col" yaml:"g2_col" validate:"gte=0"`

	RAUnits  string `mapstructure:"ra_units" yaml:"ra_units"`
	DecUnits string `mapstructure:"dec_units" yaml:"dec_units"`
	FlipG1   bool   `mapstructure:"flip_g1" yaml:"flip_g1"`
	FlipG2   bool   `mapstructure:"flip_g2" yaml:"flip_g2"`
}

// CorrelationConfig mirrors paircorr.Config in file form.
type CorrelationConfig struct {
	MinSep      float64  `mapstructure:"min_sep" yaml:"min_sep"`
	MaxSep      float64  `mapstructure:"max_sep" yaml:"max_sep"`
	NBins       int      `mapstructure:"nbins" yaml:"nbins"`
	BinSize     float64  `mapstructure:"bin_size" yaml:"bin_size"`
	SepUnits    string   `mapstructure:"sep_units" yaml:"sep_units"`
	Metric      string   `mapstructure:"metric" yaml:"metric"`
	BinSlop     *float64 `mapstructure:"bin_slop" yaml:"bin_slop"`
	MaxDepth    int      `mapstructure:"max_depth" yaml:"max_depth"`
	MaxTop      int      `mapstructure:"max_top" yaml:"max_top"`
	MinRpar     *float64 `mapstructure:"min_rpar" yaml:"min_rpar"`
	MaxRpar     *float64 `mapstructure:"max_rpar" yaml:"max_rpar"`
	NumThreads  int      `mapstructure:"num_threads" yaml:"num_threads"`
	Estimator   string   `mapstructure:"estimator" yaml:"estimator"`
	LeafSize    int      `mapstructure:"leaf_size" yaml:"leaf_size"`
	SplitMethod string   `mapstructure:"split_method" yaml:"split_method"`
}

// Library converts the file settings to a paircorr.Config. Logger and
// Metrics are left for the caller.
func (c CorrelationConfig) Library() paircorr.Config {
	cfg := paircorr.DefaultConfig()
	cfg.MinSep = c.MinSep
	cfg.MaxSep = c.MaxSep
	cfg.NBins = c.NBins
	cfg.BinSize = c.BinSize
	cfg.SepUnits = paircorr.SepUnits(c.SepUnits)
	if c.Metric != "" {
		cfg.Metric = paircorr.MetricName(c.Metric)
	}
	cfg.BinSlop = c.BinSlop
	cfg.MaxDepth = c.MaxDepth
	cfg.MaxTop = c.MaxTop
	cfg.MinRpar = c.MinRpar
	cfg.MaxRpar = c.MaxRpar
	cfg.NumThreads = c.NumThreads
	if c.Estimator != "" {
		cfg.Estimator = paircorr.Estimator(c.Estimator)
	}
	if c.LeafSize != 0 {
		cfg.LeafSize = c.LeafSize
	}
	if c.SplitMethod != "" {
		cfg.SplitMethod = paircorr.SplitMethod(c.SplitMethod)
	}
	return cfg
}

// Present reports whether the catalog has a file.
func (c CatalogConfig) Present() bool { return c.File != "" }

// Spec converts the column settings for the catalog reader.
func (c CatalogConfig) Spec() catalog.Spec {
	return catalog.Spec{
		Name:      c.Name,
		Delimiter: c.Delimiter,
		Comment:   c.Comment,
		X:         c.XCol,
		Y:         c.YCol,
		Z:         c.ZCol,
		RA:        c.RACol,
		Dec:       c.DecCol,
		R:         c.RCol,
		W:         c.WCol,
		WPos:      c.WPosCol,
		K:         c.KCol,
		G1:        c.G1Col,
		G2:        c.G2Col,
		RAUnits:   paircorr.SepUnits(c.RAUnits),
		DecUnits:  paircorr.SepUnits(c.DecUnits),
		FlipG1:    c.FlipG1,
		FlipG2:    c.FlipG2,
	}
}
