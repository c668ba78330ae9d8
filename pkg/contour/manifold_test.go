package contour

import (
	"context"
	"testing"

	"github.com/wrenfield/isocarve/pkg/density"
	"github.com/wrenfield/isocarve/pkg/math3d"
	"github.com/wrenfield/isocarve/pkg/meshsink"
)

func sphereManifoldConfig() ManifoldConfig {
	cfg := DefaultManifoldConfig()
	cfg.Origin = math3d.V3(-1.5, -1.5, -1.5)
	cfg.CellSize = 0.25
	cfg.Dims = [3]int{12, 12, 12}
	return cfg
}

func TestExtractUniformManifoldDCSphereEmitsTriangles(t *testing.T) {
	field := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	sink := meshsink.NewBufferSink()
	stats, err := ExtractUniformManifoldDC(context.Background(), field, sphereManifoldConfig(), sink)
	if err != nil {
		t.Fatalf("ExtractUniformManifoldDC: %v", err)
	}
	if len(sink.Triangles) == 0 {
		t.Fatal("expected triangles, got none")
	}
	if stats.CellsWithCrossing == 0 {
		t.Error("expected some cells to register a crossing")
	}
}

func TestExtractUniformManifoldDCTwoDisjointSpheresSplitsCellVertex(t *testing.T) {
	// Two small spheres, each enclosing one of two opposite corners of one
	// coarse cell, so they share that cell but do not touch: a
	// single-vertex-per-cell solver would weld them into one bad vertex;
	// the manifold solver must place two.
	a := density.Sphere{Center: math3d.V3(-2, -2, -2), Radius: 1}
	b := density.Sphere{Center: math3d.V3(2, 2, 2), Radius: 1}
	field := density.Union{A: a, B: b}

	cfg := DefaultManifoldConfig()
	cfg.Origin = math3d.V3(-2, -2, -2)
	cfg.CellSize = 4 // one giant cell spanning both spheres
	cfg.Dims = [3]int{1, 1, 1}

	mc := solveManifoldCell(field, newCornerGrid(field, GridConfig{Origin: cfg.Origin, CellSize: cfg.CellSize, Dims: cfg.Dims}), 0, 0, 0, cfg, &Stats{})
	if len(mc.vertices) != 2 {
		t.Fatalf("expected two vertices, got %d", len(mc.vertices))
	}
}

func TestExtractUniformManifoldDCCancellation(t *testing.T) {
	field := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := meshsink.NewBufferSink()
	_, err := ExtractUniformManifoldDC(ctx, field, sphereManifoldConfig(), sink)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
