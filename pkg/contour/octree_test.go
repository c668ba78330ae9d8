package contour

import (
	"context"
	"testing"

	"github.com/wrenfield/isocarve/pkg/density"
	"github.com/wrenfield/isocarve/pkg/math3d"
	"github.com/wrenfield/isocarve/pkg/meshsink"
)

func sphereOctreeConfig() OctreeConfig {
	cfg := DefaultOctreeConfig()
	cfg.Origin = math3d.V3(-2, -2, -2)
	cfg.Side = 4
	cfg.MaxDepth = 5
	return cfg
}

func TestExtractAdaptiveOctreeSphereEmitsTriangles(t *testing.T) {
	field := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	sink := meshsink.NewBufferSink()
	stats, err := ExtractAdaptiveOctree(context.Background(), field, sphereOctreeConfig(), sink)
	if err != nil {
		t.Fatalf("ExtractAdaptiveOctree: %v", err)
	}
	if len(sink.Triangles) == 0 {
		t.Fatal("expected triangles, got none")
	}
	if stats.CellsWithCrossing == 0 {
		t.Error("expected some cells to register a crossing")
	}
}

func TestExtractAdaptiveOctreeVerticesNearSurface(t *testing.T) {
	field := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	sink := meshsink.NewBufferSink()
	if _, err := ExtractAdaptiveOctree(context.Background(), field, sphereOctreeConfig(), sink); err != nil {
		t.Fatalf("ExtractAdaptiveOctree: %v", err)
	}
	const tol = 0.6
	for _, tri := range sink.Triangles {
		for _, p := range tri.Positions {
			d := p.Len() - 1
			if d < -tol || d > tol {
				t.Fatalf("vertex %v is %v from the surface, want within %v", p, d, tol)
			}
		}
	}
}

func TestExtractAdaptiveOctreeEmptyField(t *testing.T) {
	field := density.FieldFunc(func(math3d.Vec3) float64 { return 5 })
	sink := meshsink.NewBufferSink()
	stats, err := ExtractAdaptiveOctree(context.Background(), field, sphereOctreeConfig(), sink)
	if err != nil {
		t.Fatalf("ExtractAdaptiveOctree: %v", err)
	}
	if len(sink.Triangles) != 0 {
		t.Errorf("got %d triangles, want 0", len(sink.Triangles))
	}
	if stats.CellsSampled == 0 {
		t.Error("expected cells to be sampled")
	}
}

func TestExtractAdaptiveOctreeCancellation(t *testing.T) {
	field := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := meshsink.NewBufferSink()
	_, err := ExtractAdaptiveOctree(ctx, field, sphereOctreeConfig(), sink)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
}
