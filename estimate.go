package paircorr

import (
	"fmt"
	"math"
)

// Estimate holds the normalized per-bin columns derived from a
// correlation's raw sums.
type Estimate struct {
	Kind     Kind
	RNom     []float64
	MeanR    []float64
	MeanLogR []float64
	// Xi holds one slice per statistic column, in Kind.StatColumns order.
	Xi     [][]float64
	VarXi  []float64
	Weight []float64
	NPairs []int64
}

// Stat returns the named statistic column, or nil.
func (e *Estimate) Stat(name string) []float64 {
	for i, s := range e.Kind.info().stats {
		if s == name {
			return e.Xi[i]
		}
	}
	return nil
}

// Sigma returns the square root of VarXi.
func (e *Estimate) Sigma() []float64 {
	out := make([]float64, len(e.VarXi))
	for k, v := range e.VarXi {
		out[k] = math.Sqrt(v)
	}
	return out
}

func (e *Estimate) copy() *Estimate {
	c := *e
	c.RNom = append([]float64(nil), e.RNom...)
	c.MeanR = append([]float64(nil), e.MeanR...)
	c.MeanLogR = append([]float64(nil), e.MeanLogR...)
	c.Xi = make([][]float64, len(e.Xi))
	for i := range e.Xi {
		c.Xi[i] = append([]float64(nil), e.Xi[i]...)
	}
	c.VarXi = append([]float64(nil), e.VarXi...)
	c.Weight = append([]float64(nil), e.Weight...)
	c.NPairs = append([]int64(nil), e.NPairs...)
	return &c
}

// finalize derives the normalized columns. Empty bins report the nominal
// separation as their mean and NaN for the statistics.
func finalize(kind Kind, bins Binning, acc *Accumulator, varA, varB float64) *Estimate {
	info := kind.info()
	n := len(acc.Cells)
	e := &Estimate{
		Kind:     kind,
		RNom:     make([]float64, n),
		MeanR:    make([]float64, n),
		MeanLogR: make([]float64, n),
		Xi:       make([][]float64, len(info.stats)),
		VarXi:    make([]float64, n),
		Weight:   make([]float64, n),
		NPairs:   make([]int64, n),
	}
	for i := range e.Xi {
		e.Xi[i] = make([]float64, n)
	}

	v := kind.finalVariance(varA, varB)
	for k := range acc.Cells {
		c := &acc.Cells[k]
		e.RNom[k] = bins.RNom(k)
		e.Weight[k] = c.Weight
		e.NPairs[k] = c.NPairs

		if c.Weight == 0 {
			e.MeanR[k] = e.RNom[k]
			e.MeanLogR[k] = math.Log(e.RNom[k])
			for i := range e.Xi {
				e.Xi[i][k] = math.NaN()
			}
			e.VarXi[k] = math.NaN()
			continue
		}

		e.MeanR[k] = c.SumR / c.Weight
		e.MeanLogR[k] = c.SumLogR / c.Weight
		if kind == NN {
			// Needs randoms; see CalculateXi.
			e.Xi[0][k] = math.NaN()
			e.VarXi[k] = math.NaN()
			continue
		}
		for i, s := range info.sumIndex {
			e.Xi[i][k] = c.Sum[s] / c.Weight
		}
		e.VarXi[k] = v * c.WeightSq / (c.Weight * c.Weight)
	}
	return e
}

// CalculateXi returns the estimate of the statistic using random-catalog
// results. For NN, randoms are RR and optionally DR and RD: with DR the
// Landy-Szalay estimator (DD-DR-RD+RR)/RR is used (RD defaults to DR),
// without it DD/RR-1. For NK, NG and KG an optional result computed with
// random points in place of the first field is subtracted bin by bin and
// its variance added. KK and GG take no randoms. With the simple estimator
// only RR is used and only for NN.
//
// The correlation's raw sums are not changed.
func (c *Correlation) CalculateXi(randoms ...*Correlation) (*Estimate, error) {
	for _, r := range randoms {
		if r == nil {
			continue
		}
		if r.kind != c.kind {
			return nil, fmt.Errorf("%w: random result is %s, want %s", ErrConfiguration, r.kind, c.kind)
		}
		if !r.bins.Equal(c.bins) {
			return nil, fmt.Errorf("%w: random result has different binning", ErrConfiguration)
		}
	}

	est := c.Estimate().copy()
	simple := c.cfg.Estimator == EstimatorSimple

	switch c.kind {
	case NN:
		if len(randoms) == 0 || randoms[0] == nil {
			return nil, fmt.Errorf("%w: NN requires an RR result", ErrValue)
		}
		rr := randoms[0]
		var dr, rd *Correlation
		if !simple && len(randoms) > 1 {
			dr = randoms[1]
			rd = dr
			if len(randoms) > 2 && randoms[2] != nil {
				rd = randoms[2]
			}
		}
		c.calculateNN(est, rr, dr, rd)
	case NK, NG, KG:
		if simple || len(randoms) == 0 || randoms[0] == nil {
			break
		}
		rg := randoms[0].Estimate()
		for k := range est.VarXi {
			if rg.Weight[k] == 0 {
				continue
			}
			for i := range est.Xi {
				est.Xi[i][k] -= rg.Xi[i][k]
			}
			est.VarXi[k] += rg.VarXi[k]
		}
	default:
		if len(randoms) > 0 && !simple {
			return nil, fmt.Errorf("%w: %s does not take random results", ErrValue, c.kind)
		}
	}
	return est, nil
}

func (c *Correlation) calculateNN(est *Estimate, rr, dr, rd *Correlation) {
	if c.tot == 0 || rr.tot == 0 {
		for k := range est.VarXi {
			est.Xi[0][k], est.VarXi[k] = math.NaN(), math.NaN()
		}
		return
	}
	for k := range est.VarXi {
		rrw := rr.acc.Cells[k].Weight
		if rrw == 0 {
			est.Xi[0][k], est.VarXi[k] = math.NaN(), math.NaN()
			continue
		}
		ddn := c.acc.Cells[k].Weight / c.tot
		rrn := rrw / rr.tot
		var xi float64
		if dr == nil || dr.tot == 0 || rd.tot == 0 {
			xi = ddn/rrn - 1
		} else {
			drn := dr.acc.Cells[k].Weight / dr.tot
			rdn := rd.acc.Cells[k].Weight / rd.tot
			xi = (ddn - drn - rdn + rrn) / rrn
		}
		est.Xi[0][k] = xi
		est.VarXi[k] = (1 + xi) / (rrw * c.tot / rr.tot)
	}
}
