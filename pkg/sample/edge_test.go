package sample

import (
	"math"
	"testing"

	"github.com/wrenfield/isocarve/pkg/density"
	"github.com/wrenfield/isocarve/pkg/math3d"
)

func TestIntersectSphere(t *testing.T) {
	f := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	a := math3d.V3(0, 0, 0)
	b := math3d.V3(2, 0, 0)
	pos, err := Intersect(f, a, b, f.Eval(a), f.Eval(b), 8)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	want := math3d.V3(1, 0, 0)
	if pos.Sub(want).Len() > 1e-4 {
		t.Errorf("got %v, want ~%v", pos, want)
	}
}

func TestIntersectNoSignChange(t *testing.T) {
	f := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	a := math3d.V3(2, 0, 0)
	b := math3d.V3(3, 0, 0)
	_, err := Intersect(f, a, b, f.Eval(a), f.Eval(b), 8)
	if err != ErrNoSignChange {
		t.Errorf("got %v, want ErrNoSignChange", err)
	}
}

func TestNormalSphere(t *testing.T) {
	f := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	p := math3d.V3(1, 0, 0)
	n, degenerate := Normal(f, p, 1e-3)
	if degenerate {
		t.Fatalf("expected non-degenerate normal")
	}
	want := math3d.V3(1, 0, 0)
	if n.Sub(want).Len() > 1e-3 {
		t.Errorf("got %v, want ~%v", n, want)
	}
}

func TestNormalDegenerateOnConstantField(t *testing.T) {
	f := density.FieldFunc(func(math3d.Vec3) float64 { return -1 })
	_, degenerate := Normal(f, math3d.V3(0, 0, 0), 1e-3)
	if !degenerate {
		t.Errorf("expected degenerate normal on a constant field")
	}
}

func TestCrossingAt(t *testing.T) {
	f := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	a := math3d.V3(0, 0, 0)
	b := math3d.V3(2, 0, 0)
	c, err := CrossingAt(f, a, b, f.Eval(a), f.Eval(b), 2.0, 8, DefaultNormalStepFraction)
	if err != nil {
		t.Fatalf("CrossingAt: %v", err)
	}
	if c.Degenerate {
		t.Errorf("unexpected degenerate crossing")
	}
	if math.Abs(c.Position.X-1) > 1e-3 {
		t.Errorf("got position %v", c.Position)
	}
}
