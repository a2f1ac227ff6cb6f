package paircorr

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Estimator selects how CalculateXi uses random-catalog results.
type Estimator string

const (
	// EstimatorCompensated subtracts a random-catalog baseline, or uses
	// Landy-Szalay for NN when DR is supplied.
	EstimatorCompensated Estimator = "compensated"
	// EstimatorSimple ignores randoms except RR for NN.
	EstimatorSimple Estimator = "simple"
)

// SplitMethod chooses where a tree node is cut along its widest dimension.
type SplitMethod string

const (
	SplitMean   SplitMethod = "mean"
	SplitMedian SplitMethod = "median"
	SplitMiddle SplitMethod = "middle"
)

// Config controls a correlation.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// MinSep, MaxSep, NBins and BinSize describe the logarithmic bins.
	// Give three of them (zero means unset), or all four if they agree.
	// Separations are in SepUnits for angular metrics and in the catalog's
	// distance units otherwise.
	MinSep  float64 `validate:"gte=0"`
	MaxSep  float64 `validate:"gte=0"`
	NBins   int     `validate:"gte=0"`
	BinSize float64 `validate:"gte=0"`

	// SepUnits is the angular unit of MinSep, MaxSep and the output
	// separations. Only valid for spherical fields or the Arc metric.
	// Default: radians.
	SepUnits SepUnits

	// Metric selects the separation measure. Default: Euclidean.
	Metric MetricName

	// BinSlop is the allowed fractional slop in log(r), in units of
	// BinSize, when a pair of nodes is treated as one pair. 0 gives the
	// exact all-pairs result. nil means 1 for BinSize <= 0.1 and
	// 0.1/BinSize above.
	BinSlop *float64

	// MaxDepth stops the traversal from opening nodes deeper than this
	// level; pairs that reach it are aggregated. 0 means unlimited.
	MaxDepth int `validate:"gte=0"`

	// MaxTop is how many traversal levels are unrolled into independent
	// work items for the worker pool. 0 processes the whole traversal as a
	// single item. Default: 10.
	MaxTop int `validate:"gte=0"`

	// MinRpar and MaxRpar restrict pairs to MinRpar <= rpar < MaxRpar.
	// Only valid for 3-D fields. nil means unbounded.
	MinRpar, MaxRpar *float64

	// NumThreads is the number of workers. 0 means runtime.NumCPU().
	NumThreads int `validate:"gte=0"`

	// Estimator is "compensated" or "simple". Default: "compensated".
	Estimator Estimator

	// LeafSize is the most points a tree leaf may hold. Default: 4.
	LeafSize int `validate:"gte=1"`

	// SplitMethod is "mean", "median" or "middle". Default: "mean".
	SplitMethod SplitMethod `validate:"oneof=mean median middle"`

	// Logger receives progress and warnings. Default: zap.NewNop().
	Logger *zap.Logger `validate:"-"`

	// Metrics, when set, records traversal counters.
	Metrics *Metrics `validate:"-"`
}

var configValidate = validator.New()

// Float64 returns a pointer to v, for the optional Config fields.
func Float64(v float64) *float64 { return &v }

// DefaultConfig returns a Config with reasonable defaults. The binning
// fields are left unset.
func DefaultConfig() Config {
	return Config{
		Metric:      MetricEuclidean,
		MaxTop:      10,
		Estimator:   EstimatorCompensated,
		LeafSize:    4,
		SplitMethod: SplitMean,
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Metric == "" {
		cfg.Metric = MetricEuclidean
	}
	if cfg.Estimator == "" {
		cfg.Estimator = EstimatorCompensated
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = 4
	}
	if cfg.SplitMethod == "" {
		cfg.SplitMethod = SplitMean
	}
	if cfg.NumThreads == 0 {
		cfg.NumThreads = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

// checkValues rejects settings that name something the library does not
// know about.
func checkValues(cfg *Config) error {
	switch cfg.Estimator {
	case EstimatorCompensated, EstimatorSimple:
	default:
		return fmt.Errorf("%w: unknown estimator %q", ErrValue, string(cfg.Estimator))
	}
	switch cfg.Metric {
	case MetricEuclidean, MetricArc, MetricRperp, MetricRlens:
	default:
		return fmt.Errorf("%w: unknown metric %q", ErrValue, string(cfg.Metric))
	}
	if _, err := cfg.SepUnits.Radians(); err != nil {
		return err
	}
	return nil
}

// validateConfig checks cfg and resolves its binning. Every invalid field
// is reported in one *ConfigError.
func validateConfig(cfg *Config) (Binning, error) {
	errs := &ConfigError{}

	if err := configValidate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Binning{}, err
		}
		for _, fe := range verrs {
			switch fe.Tag() {
			case "oneof":
				errs.add(fe.Field(), "must be one of %s, got %v", fe.Param(), fe.Value())
			default:
				errs.add(fe.Field(), "must be %s %s, got %v", fe.Tag(), fe.Param(), fe.Value())
			}
		}
	}

	for _, v := range []struct {
		name string
		val  float64
	}{{"MinSep", cfg.MinSep}, {"MaxSep", cfg.MaxSep}, {"BinSize", cfg.BinSize}} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			errs.add(v.name, "must be finite, got %g", v.val)
		}
	}
	if cfg.BinSlop != nil && !(*cfg.BinSlop >= 0) {
		errs.add("BinSlop", "must be >= 0, got %g", *cfg.BinSlop)
	}
	if cfg.MinRpar != nil && cfg.MaxRpar != nil && !(*cfg.MinRpar < *cfg.MaxRpar) {
		errs.add("MaxRpar", "must be greater than MinRpar (%g), got %g", *cfg.MinRpar, *cfg.MaxRpar)
	}

	var b Binning
	if len(errs.Fields) == 0 {
		b = resolveBinning(cfg, errs)
	}
	if err := errs.orNil(); err != nil {
		return Binning{}, err
	}
	return b, nil
}

// binSlop returns the configured slop or its default for binSize.
func (cfg *Config) binSlop(binSize float64) float64 {
	if cfg.BinSlop != nil {
		return *cfg.BinSlop
	}
	if binSize <= 0.1 {
		return 1
	}
	return 0.1 / binSize
}

func (cfg *Config) rparWindow() (lo, hi float64) {
	lo, hi = math.Inf(-1), math.Inf(1)
	if cfg.MinRpar != nil {
		lo = *cfg.MinRpar
	}
	if cfg.MaxRpar != nil {
		hi = *cfg.MaxRpar
	}
	return lo, hi
}
