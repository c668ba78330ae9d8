package density

import (
	"math"
	"testing"

	"github.com/wrenfield/isocarve/pkg/math3d"
)

func TestBoxInsideOutside(t *testing.T) {
	b := Box{Center: math3d.Vec3{}, HalfExtents: math3d.V3(1, 1, 1)}
	if b.Eval(math3d.V3(0, 0, 0)) >= 0 {
		t.Error("center should be inside")
	}
	if b.Eval(math3d.V3(2, 0, 0)) <= 0 {
		t.Error("point outside an extent should be outside")
	}
	if math.Abs(b.Eval(math3d.V3(1, 0, 0))) > 1e-9 {
		t.Error("face point should read ~0")
	}
}

func TestOBBMatchesBoxWhenAxisAligned(t *testing.T) {
	o := OBB{Center: math3d.Vec3{}, U: math3d.V3(1, 0, 0), V: math3d.V3(0, 1, 0), W: math3d.V3(0, 0, 1), HalfExtents: math3d.V3(1, 2, 3)}
	b := Box{Center: math3d.Vec3{}, HalfExtents: math3d.V3(1, 2, 3)}
	p := math3d.V3(0.5, 1.5, 2.5)
	if math.Abs(o.Eval(p)-b.Eval(p)) > 1e-9 {
		t.Errorf("got %v, want %v", o.Eval(p), b.Eval(p))
	}
}

func TestTorusRing(t *testing.T) {
	tor := Torus{Center: math3d.Vec3{}, MajorRadius: 2, MinorRadius: 0.5, Axis: TorusZ}
	onRing := math3d.V3(2, 0, 0) // on the tube's center circle on the ring, at tube surface distance MinorRadius away
	if math.Abs(tor.Eval(onRing)-(-0.5)) > 1e-9 {
		t.Errorf("got %v, want -0.5", tor.Eval(onRing))
	}
	center := math3d.Vec3{}
	if tor.Eval(center) <= 0 {
		t.Error("torus center hole should be outside the solid")
	}
}

func TestHalfSpace(t *testing.T) {
	h := HalfSpace{Point: math3d.Vec3{}, Normal: math3d.V3(0, 1, 0)}
	if h.Eval(math3d.V3(0, -1, 0)) >= 0 {
		t.Error("below the plane should be inside (negative)")
	}
	if h.Eval(math3d.V3(0, 1, 0)) <= 0 {
		t.Error("above the plane should be outside (positive)")
	}
}

func TestNoiseOutsideHalfExtentIsLargePositive(t *testing.T) {
	n := NewNoise(0, 1, 10)
	far := math3d.V3(100, 0, 0)
	if n.Eval(far) <= 0 {
		t.Error("far outside the terrain's footprint should read positive")
	}
}
