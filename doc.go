// Package paircorr measures two-point correlation functions of counts,
// scalars and spin-2 shears in logarithmic separation bins.
//
// Points are loaded into a Field, which builds ball trees on demand. A
// Correlation walks two trees together and accumulates whole node pairs at
// once when their separation is known to within the bin_slop tolerance,
// so large catalogs are processed without visiting every pair of points.
//
// Basic usage:
//
//	f, err := paircorr.NewField(paircorr.Catalog{RA: ra, Dec: dec, G1: g1, G2: g2})
//	cfg := paircorr.DefaultConfig()
//	cfg.MinSep, cfg.MaxSep, cfg.NBins = 1, 100, 10
//	cfg.SepUnits = paircorr.Arcmin
//	gg, err := paircorr.NewCorrelation(paircorr.GG, cfg)
//	err = gg.Process(ctx, f, nil)
//	est := gg.Estimate()
//	// est.Xi[0][k] is xi+ in bin k, est.Xi[1][k] is xi-
//
// Count correlations (NN) need random catalogs to become a correlation
// function:
//
//	xi, err := dd.CalculateXi(rr, dr)
//
// # Kinds
//
// NN counts pairs, NK and KK correlate scalars against positions or
// scalars, and NG, KG and GG correlate shears. Shear pairs are projected to
// the frame along the line joining the two points, so NG measures the
// tangential shear around the first catalog.
//
// # Metrics
//
// Separations are measured with MetricEuclidean (chord distance),
// MetricArc (great-circle angle), MetricRperp or MetricRlens. The last two
// need distances and can be limited to a window of line-of-sight
// separation with Config.MinRpar and Config.MaxRpar.
//
// # Results
//
// Correlations of the same kind and binning can be merged with Add, which
// is how runs over separate patches of sky are combined. Write saves a
// result as a text table, or as a SQLite database when the path ends in
// .db, .sqlite or .sqlite3; ReadCorrelation loads it back.
package paircorr
