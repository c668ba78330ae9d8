// Package qef solves the quadratic error function that places one feature
// vertex per surface-crossing cell from a set of intersection planes.
package qef

import (
	"errors"

	"github.com/wrenfield/isocarve/pkg/math3d"
	"gonum.org/v1/gonum/mat"
)

// ErrNoPlanes is returned when Solve is called with no planes; the caller
// has nothing to fit a vertex to.
var ErrNoPlanes = errors.New("qef: no planes")

// Plane is one constraint on the solved vertex: the solver penalizes the
// squared distance from x to the plane through Point with normal Normal.
type Plane struct {
	Point, Normal math3d.Vec3
}

// Config controls the solver's regularization and numerical tolerances. The
// zero value is not usable; use DefaultConfig.
type Config struct {
	// Regularization is the coefficient λ of the weak pull toward the cell's
	// mass point: E'(x) = E(x) + λ·trace(AᵀA)·‖x-m‖².
	Regularization float64
	// SVDEpsilon is the singular-value truncation threshold below which a
	// direction is treated as rank-deficient.
	SVDEpsilon float64
	// ClampToCell, if true, projects a solution outside [BBMin, BBMax] to
	// the nearest point on the box boundary instead of rejecting it.
	ClampToCell bool
	// BruteForceGrid, if > 1, is the k in a k×k×k fallback search used when
	// the linear solve fails to converge; otherwise the mass point is used.
	BruteForceGrid int
}

// DefaultConfig returns the spec's default tolerances.
func DefaultConfig() Config {
	return Config{
		Regularization: 1e-3,
		SVDEpsilon:     1e-6,
		ClampToCell:    true,
		BruteForceGrid: 7,
	}
}

// Result is the outcome of one QEF solve.
type Result struct {
	Position math3d.Vec3
	Residual float64 // E(x*), unregularized
	Clamped  bool
	// Degenerate is true when the SVD failed to converge and the solver
	// fell back to brute-force search or the mass point.
	Degenerate bool
}

// Solve finds the point minimizing Σ(n̂ᵢ·(x-pᵢ))² over planes, regularized
// by a weak pull toward massPoint and clamped to [bbMin, bbMax] when
// cfg.ClampToCell is set. Returns ErrNoPlanes if planes is empty.
func Solve(planes []Plane, massPoint, bbMin, bbMax math3d.Vec3, cfg Config) (Result, error) {
	if len(planes) == 0 {
		return Result{}, ErrNoPlanes
	}

	ata := mat.NewDense(3, 3, nil)
	atb := make([]float64, 3)

	for _, p := range planes {
		n := p.Normal
		nv := [3]float64{n.X, n.Y, n.Z}
		d := n.Dot(p.Point)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				ata.Set(r, c, ata.At(r, c)+nv[r]*nv[c])
			}
			atb[r] += nv[r] * d
		}
	}

	trace := ata.At(0, 0) + ata.At(1, 1) + ata.At(2, 2)
	lambda := cfg.Regularization * trace
	if lambda <= 0 {
		lambda = cfg.Regularization // degenerate trace (e.g. a single plane): fall back to raw coefficient
	}
	for i := 0; i < 3; i++ {
		ata.Set(i, i, ata.At(i, i)+lambda)
	}
	mv := [3]float64{massPoint.X, massPoint.Y, massPoint.Z}
	for i := 0; i < 3; i++ {
		atb[i] += lambda * mv[i]
	}

	x, ok := pseudoSolve(ata, atb, cfg.SVDEpsilon)
	res := Result{}
	if !ok {
		// SVD failed to converge: brute-force search, else mass point.
		if cfg.BruteForceGrid > 1 {
			res.Position = bruteForce(planes, bbMin, bbMax, cfg.BruteForceGrid)
		} else {
			res.Position = massPoint
		}
		res.Degenerate = true
	} else {
		res.Position = math3d.V3(x[0], x[1], x[2])
	}

	res.Residual = evalE(planes, res.Position)

	if cfg.ClampToCell {
		clamped := res.Position.Clamp(bbMin, bbMax)
		if clamped != res.Position {
			res.Clamped = true
			res.Position = clamped
			res.Residual = evalE(planes, res.Position)
		}
	}
	return res, nil
}

// pseudoSolve solves ata·x = atb via SVD, truncating singular values below
// eps to the minimum-norm solution. Returns ok=false if the SVD fails to
// converge.
func pseudoSolve(ata *mat.Dense, atb []float64, eps float64) ([3]float64, bool) {
	var svd mat.SVD
	if !svd.Factorize(ata, mat.SVDThin) {
		return [3]float64{}, false
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// x = V · Σ⁺ · Uᵀ · b
	var utb [3]float64
	for c := 0; c < 3; c++ {
		var sum float64
		for r := 0; r < 3; r++ {
			sum += u.At(r, c) * atb[r]
		}
		utb[c] = sum
	}
	for i, s := range values {
		if s > eps {
			utb[i] /= s
		} else {
			utb[i] = 0
		}
	}
	var x [3]float64
	for r := 0; r < 3; r++ {
		var sum float64
		for c := 0; c < 3; c++ {
			sum += v.At(r, c) * utb[c]
		}
		x[r] = sum
	}
	return x, true
}

// bruteForce samples a k×k×k sub-grid of [bbMin, bbMax] and returns the
// point with the lowest unregularized QEF energy.
func bruteForce(planes []Plane, bbMin, bbMax math3d.Vec3, k int) math3d.Vec3 {
	size := bbMax.Sub(bbMin)
	best := bbMin.Lerp(bbMax, 0.5)
	bestE := evalE(planes, best)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			for l := 0; l < k; l++ {
				t := math3d.V3(
					(float64(i)+0.5)/float64(k),
					(float64(j)+0.5)/float64(k),
					(float64(l)+0.5)/float64(k),
				)
				candidate := bbMin.Add(math3d.V3(t.X*size.X, t.Y*size.Y, t.Z*size.Z))
				if e := evalE(planes, candidate); e < bestE {
					bestE = e
					best = candidate
				}
			}
		}
	}
	return best
}

// evalE computes the unregularized QEF energy Σ(n̂ᵢ·(x-pᵢ))².
func evalE(planes []Plane, x math3d.Vec3) float64 {
	var sum float64
	for _, p := range planes {
		d := p.Normal.Dot(x.Sub(p.Point))
		sum += d * d
	}
	return sum
}

// MassPoint returns the centroid of the given points (the cell's mass
// point), used both as the QEF regularization target and as the degenerate
// fallback vertex.
func MassPoint(points []math3d.Vec3) math3d.Vec3 {
	if len(points) == 0 {
		return math3d.Vec3{}
	}
	var sum math3d.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Scale(1 / float64(len(points)))
}
