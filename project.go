package paircorr

import (
	"math/cmplx"

	"gonum.org/v1/gonum/spatial/r3"
)

// expm2i returns exp(-2i*phi), where phi is the position angle at here of the
// direction toward other. Flat fields measure phi from the x axis. Curved
// fields use the local tangent frame at here with x pointing west and y
// pointing north, so that a spin-2 value defined relative to north keeps the
// same handedness as on a flat field. Coincident points return 1.
func expm2i(coords Coords, here, other r3.Vec) complex128 {
	var a, b float64
	if coords == Flat {
		a, b = other.X-here.X, other.Y-here.Y
	} else {
		h := here
		if n := r3.Norm(h); n > 0 && n != 1 {
			h = r3.Scale(1/n, h)
		}
		a = other.X*h.Y - other.Y*h.X
		b = other.Z*(h.X*h.X+h.Y*h.Y) - h.Z*(other.X*h.X+other.Y*h.Y)
	}
	n := a*a + b*b
	if n == 0 {
		return 1
	}
	z := complex(a, -b)
	return z * z / complex(n, 0)
}

// transport moves a spin-2 value defined in the local frame at from into the
// local frame at to along the great circle joining them. The value keeps its
// orientation relative to the great circle; only the reference direction
// changes.
func transport(coords Coords, g complex128, from, to r3.Vec) complex128 {
	if coords == Flat || g == 0 {
		return g
	}
	// Below this the rotation is the identity to rounding, but the two
	// directions would be computed from noise.
	if r3.Norm(r3.Sub(to, from)) <= 1e-12*r3.Norm(to) {
		return g
	}
	return g * expm2i(coords, from, to) * cmplx.Conj(expm2i(coords, to, from))
}
