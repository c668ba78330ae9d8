// Package sample implements the kernel shared by every contouring variant:
// locating the zero crossing along a sign-changing edge and estimating the
// surface normal there by central finite differences.
package sample

import (
	"errors"
	"math"

	"github.com/wrenfield/isocarve/pkg/density"
	"github.com/wrenfield/isocarve/pkg/math3d"
)

// ErrNoSignChange is returned by Intersect when f(a) and f(b) do not straddle
// zero; the caller asked for a crossing that does not exist on this edge.
var ErrNoSignChange = errors.New("sample: no sign change on edge")

// Crossing is one zero-crossing of a field along a cell edge: its position,
// the normal estimated there, and whether the gradient was too small to
// trust (in which case Normal is a stand-in and the crossing should be
// excluded from any QEF plane set).
type Crossing struct {
	Position   math3d.Vec3
	Normal     math3d.Vec3
	Degenerate bool
}

// Intersect locates the zero crossing of f along the segment [a, b], given
// the field values fa = f(a) and fb = f(b) (already known to the caller from
// the corner-sampling pass, so they are not re-evaluated here). n is the
// number of uniform subdivisions used to bracket the root before bisection
// refines it; n <= 1 skips the bracketing scan and bisects the whole
// segment. Returns ErrNoSignChange if fa and fb do not have opposite signs.
func Intersect(f density.Field, a, b math3d.Vec3, fa, fb float64, n int) (math3d.Vec3, error) {
	if (fa < 0) == (fb < 0) {
		return math3d.Vec3{}, ErrNoSignChange
	}
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}

	lo, hi := a, b
	flo, fhi := fa, fb
	if n > 1 {
		// Uniform scan to bracket the crossing more tightly in case f is
		// non-monotone along the edge; keeps the first sign change found
		// walking from a to b.
		prevT, prevF := 0.0, fa
		for i := 1; i <= n; i++ {
			t := float64(i) / float64(n)
			p := a.Lerp(b, t)
			fp := f.Eval(p)
			if (fp < 0) != (prevF < 0) {
				lo, hi = a.Lerp(b, prevT), p
				flo, fhi = prevF, fp
				break
			}
			prevT, prevF = t, fp
		}
	}

	const bisectIters = 24
	for i := 0; i < bisectIters; i++ {
		mid := lo.Lerp(hi, 0.5)
		fm := f.Eval(mid)
		if fm == 0 {
			return mid, nil
		}
		if (fm < 0) == (flo < 0) {
			lo, flo = mid, fm
		} else {
			hi, fhi = mid, fm
		}
	}
	_ = fhi
	return lo.Lerp(hi, 0.5), nil
}

// DefaultNormalStepFraction is the divisor applied to the cell side length to
// get the finite-difference step ε, per the spec's suggested default.
const DefaultNormalStepFraction = 100.0

// minGradientNorm is the threshold below which a central-difference gradient
// is treated as numerically unreliable.
const minGradientNorm = 1e-6

// Normal estimates the gradient of f at p via central finite differences
// with step eps, returning the normalized result. If the gradient's norm is
// below a small threshold (a locally flat or degenerate field), it returns
// the stand-in normal (0, 1, 0) with degenerate=true so the caller can
// exclude this sample from QEF plane fitting.
func Normal(f density.Field, p math3d.Vec3, eps float64) (n math3d.Vec3, degenerate bool) {
	dx := f.Eval(p.Add(math3d.V3(eps, 0, 0))) - f.Eval(p.Sub(math3d.V3(eps, 0, 0)))
	dy := f.Eval(p.Add(math3d.V3(0, eps, 0))) - f.Eval(p.Sub(math3d.V3(0, eps, 0)))
	dz := f.Eval(p.Add(math3d.V3(0, 0, eps))) - f.Eval(p.Sub(math3d.V3(0, 0, eps)))
	g := math3d.V3(dx, dy, dz).Scale(1 / (2 * eps))
	norm := g.Len()
	if norm < minGradientNorm || math.IsNaN(norm) {
		return math3d.V3(0, 1, 0), true
	}
	return g.Scale(1 / norm), false
}

// CrossingAt is a convenience wrapper combining Intersect and Normal: it
// locates the zero crossing on [a, b] and estimates the normal there with
// step eps = side/normalStepFraction.
func CrossingAt(f density.Field, a, b math3d.Vec3, fa, fb float64, side float64, edgeAccuracy int, normalStepFraction float64) (Crossing, error) {
	pos, err := Intersect(f, a, b, fa, fb, edgeAccuracy)
	if err != nil {
		return Crossing{}, err
	}
	if normalStepFraction <= 0 {
		normalStepFraction = DefaultNormalStepFraction
	}
	eps := side / normalStepFraction
	n, degenerate := Normal(f, pos, eps)
	return Crossing{Position: pos, Normal: n, Degenerate: degenerate}, nil
}
