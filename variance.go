package paircorr

import "math"

// Moments are the weighted first and second moments of a field's values,
// one component for a scalar and two for a spin-2 value. Moments from
// several fields add exactly, so the pooled variance of a set of shards is
// the variance of their union.
type Moments struct {
	SumW   float64    `yaml:"sumw"`
	SumWX  [2]float64 `yaml:"sumwx,flow"`
	SumWX2 [2]float64 `yaml:"sumwx2,flow"`
}

func (m *Moments) add(o Moments) {
	m.SumW += o.SumW
	for i := range m.SumWX {
		m.SumWX[i] += o.SumWX[i]
		m.SumWX2[i] += o.SumWX2[i]
	}
}

func (m Moments) component(i int) float64 {
	if m.SumW == 0 {
		return 0
	}
	mean := m.SumWX[i] / m.SumW
	return math.Max(0, m.SumWX2[i]/m.SumW-mean*mean)
}

// VarK is the population variance of a scalar.
func (m Moments) VarK() float64 { return m.component(0) }

// VarG is the per-component population variance of a spin-2 value.
func (m Moments) VarG() float64 { return (m.component(0) + m.component(1)) / 2 }

func (m Moments) variance(v valueType) float64 {
	switch v {
	case valueK:
		return m.VarK()
	case valueG:
		return m.VarG()
	}
	return 0
}

// CalculateVarK returns the scalar variance of the union of the fields.
func CalculateVarK(fields ...*Field) float64 {
	var m Moments
	for _, f := range fields {
		m.add(f.KMoments())
	}
	return m.VarK()
}

// CalculateVarG returns the per-component spin-2 variance of the union of
// the fields.
func CalculateVarG(fields ...*Field) float64 {
	var m Moments
	for _, f := range fields {
		m.add(f.GMoments())
	}
	return m.VarG()
}
