package paircorr

import (
	"fmt"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind is the type of two-point statistic: which value each side carries and
// how a pair of values combines.
type Kind int

const (
	// NN counts pairs.
	NN Kind = iota
	// NK correlates counts with a scalar.
	NK
	// KK correlates a scalar with a scalar.
	KK
	// NG measures the tangential and cross spin-2 value around counts.
	NG
	// KG measures the tangential and cross spin-2 value weighted by a scalar.
	KG
	// GG correlates spin-2 values, giving xi+ and xi-.
	GG
)

type valueType int

const (
	valueNone valueType = iota
	valueK
	valueG
)

func (v valueType) String() string {
	switch v {
	case valueK:
		return "K"
	case valueG:
		return "G1/G2"
	}
	return "none"
}

// kindInfo is the per-kind table driving the traversal, finalize and the
// output columns. sumIndex maps each statistic column to its slot in
// Cell.Sum.
type kindInfo struct {
	name     string
	a, b     valueType
	auto     bool
	stats    []string
	sumIndex []int
	sigma    string
}

var kinds = [...]kindInfo{
	NN: {name: "NN", a: valueNone, b: valueNone, auto: true,
		stats: []string{"xi"}, sigma: "sigma_xi"},
	NK: {name: "NK", a: valueNone, b: valueK,
		stats: []string{"kappa"}, sumIndex: []int{0}, sigma: "sigma"},
	KK: {name: "KK", a: valueK, b: valueK, auto: true,
		stats: []string{"xi"}, sumIndex: []int{0}, sigma: "sigma_xi"},
	NG: {name: "NG", a: valueNone, b: valueG,
		stats: []string{"gamT", "gamX"}, sumIndex: []int{0, 1}, sigma: "sigma"},
	KG: {name: "KG", a: valueK, b: valueG,
		stats: []string{"kgamT", "kgamX"}, sumIndex: []int{0, 1}, sigma: "sigma"},
	GG: {name: "GG", a: valueG, b: valueG, auto: true,
		stats: []string{"xip", "xim", "xip_im", "xim_im"}, sumIndex: []int{0, 2, 1, 3}, sigma: "sigma_xi"},
}

func (k Kind) info() *kindInfo {
	if k < 0 || int(k) >= len(kinds) {
		panic(fmt.Sprintf("paircorr: invalid kind %d", int(k)))
	}
	return &kinds[k]
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kinds) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].name
}

// ParseKind parses a kind name such as "NG", case-insensitively.
func ParseKind(s string) (Kind, error) {
	for i := range kinds {
		if strings.EqualFold(kinds[i].name, s) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown correlation kind %q", ErrValue, s)
}

// StatColumns returns the names of the normalized statistic columns.
func (k Kind) StatColumns() []string { return append([]string(nil), k.info().stats...) }

// finalVariance is the per-pair variance of the combined value given the
// variances of the two sides.
func (k Kind) finalVariance(varA, varB float64) float64 {
	switch k {
	case NK, NG:
		return varB
	case KK, KG:
		return varA * varB
	case GG:
		return 2 * varA * varB
	}
	return 0
}

// combine returns the value sums for one pair contribution. pa and pb are
// the representative positions of the two sides. auto marks a pair from a
// field correlated with itself, where either end may come first.
func (k Kind) combine(coords Coords, auto bool, pa r3.Vec, ca *cellData, pb r3.Vec, cb *cellData) (v [4]float64) {
	switch k {
	case NK:
		v[0] = ca.W * cb.WK
	case KK:
		v[0] = ca.WK * cb.WK
	case NG:
		g := -complex(ca.W, 0) * cb.WG * expm2i(coords, pb, pa)
		v[0], v[1] = real(g), imag(g)
	case KG:
		g := -complex(ca.WK, 0) * cb.WG * expm2i(coords, pb, pa)
		v[0], v[1] = real(g), imag(g)
	case GG:
		ga := ca.WG * expm2i(coords, pa, pb)
		gb := cb.WG * expm2i(coords, pb, pa)
		p := ga * cmplx.Conj(gb)
		m := ga * gb
		v[0], v[1] = real(p), imag(p)
		v[2], v[3] = real(m), imag(m)
		// Im(ga conj(gb)) flips sign when the ends swap; keep the part
		// both orders agree on.
		if auto {
			v[1] = 0
		}
	}
	return v
}
