package qef

import (
	"math"
	"testing"

	"github.com/wrenfield/isocarve/pkg/math3d"
)

func TestSolveAxisAlignedCorner(t *testing.T) {
	// Three mutually orthogonal planes meeting at (1,1,1) should place the
	// vertex exactly there.
	planes := []Plane{
		{Point: math3d.V3(1, 0, 0), Normal: math3d.V3(1, 0, 0)},
		{Point: math3d.V3(0, 1, 0), Normal: math3d.V3(0, 1, 0)},
		{Point: math3d.V3(0, 0, 1), Normal: math3d.V3(0, 0, 1)},
	}
	cfg := DefaultConfig()
	cfg.Regularization = 1e-6 // keep the pull negligible for this exact case
	res, err := Solve(planes, math3d.V3(0.5, 0.5, 0.5), math3d.V3(-10, -10, -10), math3d.V3(10, 10, 10), cfg)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	want := math3d.V3(1, 1, 1)
	if res.Position.Sub(want).Len() > 1e-3 {
		t.Errorf("got %v, want %v", res.Position, want)
	}
}

func TestSolveNoPlanes(t *testing.T) {
	_, err := Solve(nil, math3d.Vec3{}, math3d.Vec3{}, math3d.Vec3{}, DefaultConfig())
	if err != ErrNoPlanes {
		t.Errorf("got err %v, want ErrNoPlanes", err)
	}
}

func TestSolveClampsToCell(t *testing.T) {
	// A single plane whose unconstrained minimum lies far outside the cell.
	planes := []Plane{
		{Point: math3d.V3(100, 0, 0), Normal: math3d.V3(1, 0, 0)},
	}
	cfg := DefaultConfig()
	res, err := Solve(planes, math3d.V3(0, 0, 0), math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1), cfg)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !res.Clamped {
		t.Errorf("expected clamp, got %v", res.Position)
	}
	if res.Position.X > 1.0+1e-9 {
		t.Errorf("position not clamped: %v", res.Position)
	}
}

func TestSolveRankDeficientUsesMassPoint(t *testing.T) {
	// Two parallel, coincident planes: AᵀA has rank 1. The regularized
	// solve should still land close to the mass point along the free axes.
	planes := []Plane{
		{Point: math3d.V3(0, 0, 0), Normal: math3d.V3(1, 0, 0)},
		{Point: math3d.V3(0, 0, 0), Normal: math3d.V3(1, 0, 0)},
	}
	mass := math3d.V3(0, 2, 3)
	res, err := Solve(planes, mass, math3d.V3(-5, -5, -5), math3d.V3(5, 5, 5), DefaultConfig())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if math.Abs(res.Position.X) > 0.1 {
		t.Errorf("constrained axis not near plane: %v", res.Position)
	}
	if res.Position.Sub(math3d.V3(res.Position.X, mass.Y, mass.Z)).Len() > 0.1 {
		t.Errorf("free axes did not pull toward mass point: %v", res.Position)
	}
}

func TestMassPoint(t *testing.T) {
	pts := []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(2, 0, 0), math3d.V3(0, 2, 0), math3d.V3(0, 0, 2)}
	got := MassPoint(pts)
	want := math3d.V3(0.5, 0.5, 0.5)
	if got.Sub(want).Len() > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}
