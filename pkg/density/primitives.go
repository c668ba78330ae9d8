package density

import (
	"math"

	"github.com/wrenfield/isocarve/pkg/math3d"
)

// Sphere is the signed-distance field of a sphere: ||p-center|| - r.
type Sphere struct {
	Center math3d.Vec3
	Radius float64
}

// Eval implements Field.
func (s Sphere) Eval(p math3d.Vec3) float64 {
	return p.Sub(s.Center).Len() - s.Radius
}

// Box is the signed-distance-like field of an axis-aligned box:
// max over components of |p-center| - halfExtents. Not an exact SDF outside
// the box corners, which the spec explicitly permits (sign correctness and
// approximate magnitude near the surface are all that is required).
type Box struct {
	Center      math3d.Vec3
	HalfExtents math3d.Vec3
}

// Eval implements Field.
func (b Box) Eval(p math3d.Vec3) float64 {
	d := p.Sub(b.Center).Abs().Sub(b.HalfExtents)
	return math.Max(d.X, math.Max(d.Y, d.Z))
}

// OBB is an oriented box: the same field as Box, evaluated in the local
// orthonormal basis (u, v, w).
type OBB struct {
	Center      math3d.Vec3
	U, V, W     math3d.Vec3 // orthonormal local axes
	HalfExtents math3d.Vec3
}

// Eval implements Field.
func (o OBB) Eval(p math3d.Vec3) float64 {
	rel := p.Sub(o.Center)
	local := math3d.V3(rel.Dot(o.U), rel.Dot(o.V), rel.Dot(o.W))
	d := local.Abs().Sub(o.HalfExtents)
	return math.Max(d.X, math.Max(d.Y, d.Z))
}

// TorusAxis names the axis of revolution of a Torus primitive.
type TorusAxis int

const (
	// TorusZ revolves around the Z axis (ring lies in the XY plane).
	TorusZ TorusAxis = iota
	// TorusY revolves around the Y axis (ring lies in the XZ plane).
	TorusY
	// TorusX revolves around the X axis (ring lies in the YZ plane).
	TorusX
)

// Torus is the signed-distance field of a torus around Center, with the
// major ring radius MajorRadius and tube radius MinorRadius, revolved
// around Axis.
type Torus struct {
	Center                   math3d.Vec3
	MajorRadius, MinorRadius float64
	Axis                     TorusAxis
}

// Eval implements Field.
func (t Torus) Eval(p math3d.Vec3) float64 {
	r := p.Sub(t.Center)
	var planar, axial float64
	switch t.Axis {
	case TorusY:
		planar = math.Hypot(r.X, r.Z)
		axial = r.Y
	case TorusX:
		planar = math.Hypot(r.Y, r.Z)
		axial = r.X
	default: // TorusZ
		planar = math.Hypot(r.X, r.Y)
		axial = r.Z
	}
	q := math.Hypot(planar-t.MajorRadius, axial)
	return q - t.MinorRadius
}

// HalfSpace is the signed-distance field of an infinite plane through Point
// with outward unit normal Normal: (p-Point)·Normal.
type HalfSpace struct {
	Point, Normal math3d.Vec3
}

// Eval implements Field.
func (h HalfSpace) Eval(p math3d.Vec3) float64 {
	return p.Sub(h.Point).Dot(h.Normal.Normalize())
}
