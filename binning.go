package paircorr

import "math"

// Binning is a set of NBins equal-width bins in log(r) covering
// [MinSep, MaxSep), in the configured separation units.
type Binning struct {
	MinSep  float64
	MaxSep  float64
	NBins   int
	BinSize float64
	logMin  float64
}

// resolveBinning completes a binning from three of MinSep, MaxSep, NBins and
// BinSize, or checks that all four agree. A zero value means unset. When
// NBins is derived it is rounded up and MaxSep widened to the last bin edge.
func resolveBinning(cfg *Config, errs *ConfigError) Binning {
	b := Binning{MinSep: cfg.MinSep, MaxSep: cfg.MaxSep, NBins: cfg.NBins, BinSize: cfg.BinSize}

	var missing []string
	if b.MinSep == 0 {
		missing = append(missing, "MinSep")
	}
	if b.MaxSep == 0 {
		missing = append(missing, "MaxSep")
	}
	if b.NBins == 0 {
		missing = append(missing, "NBins")
	}
	if b.BinSize == 0 {
		missing = append(missing, "BinSize")
	}
	if len(missing) > 1 {
		for _, f := range missing {
			errs.add(f, "three of MinSep, MaxSep, NBins and BinSize are required")
		}
		return b
	}

	switch {
	case len(missing) == 0:
		want := math.Log(b.MaxSep/b.MinSep) / float64(b.NBins)
		if math.Abs(want-b.BinSize) > 1e-8*want {
			errs.add("BinSize", "%g is inconsistent with MinSep, MaxSep and NBins (want %g)", b.BinSize, want)
		}
	case missing[0] == "MinSep":
		b.MinSep = b.MaxSep * math.Exp(-float64(b.NBins)*b.BinSize)
	case missing[0] == "MaxSep":
		b.MaxSep = b.MinSep * math.Exp(float64(b.NBins)*b.BinSize)
	case missing[0] == "NBins":
		if b.MaxSep <= b.MinSep {
			break
		}
		b.NBins = int(math.Ceil(math.Log(b.MaxSep/b.MinSep) / b.BinSize))
		b.MaxSep = b.MinSep * math.Exp(float64(b.NBins)*b.BinSize)
	case missing[0] == "BinSize":
		if b.MaxSep <= b.MinSep {
			break
		}
		b.BinSize = math.Log(b.MaxSep/b.MinSep) / float64(b.NBins)
	}
	if b.MaxSep <= b.MinSep {
		errs.add("MaxSep", "must be greater than MinSep (%g), got %g", b.MinSep, b.MaxSep)
	}
	b.logMin = math.Log(b.MinSep)
	return b
}

// index returns the bin holding r, which must already lie in
// [MinSep, MaxSep).
func (b Binning) index(logr float64) int {
	k := int(math.Floor((logr - b.logMin) / b.BinSize))
	if k < 0 {
		return 0
	}
	if k >= b.NBins {
		return b.NBins - 1
	}
	return k
}

// RNom returns the nominal separation of bin k, its lower edge.
func (b Binning) RNom(k int) float64 {
	return math.Exp(b.logMin + float64(k)*b.BinSize)
}

// Equal reports whether two binnings describe the same bins.
func (b Binning) Equal(o Binning) bool {
	return b.NBins == o.NBins && closeTo(b.MinSep, o.MinSep) &&
		closeTo(b.MaxSep, o.MaxSep) && closeTo(b.BinSize, o.BinSize)
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) <= 1e-12*math.Max(math.Abs(a), math.Abs(b))
}
