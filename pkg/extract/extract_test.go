package extract

import (
	"context"
	"testing"

	"github.com/wrenfield/isocarve/pkg/density"
	"github.com/wrenfield/isocarve/pkg/math3d"
	"github.com/wrenfield/isocarve/pkg/meshsink"
)

func sphereConfig(mode Mode) Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.Origin = math3d.V3(-1.5, -1.5, -1.5)
	cfg.Size = 3
	cfg.Resolution = 12
	cfg.MaxDepth = 5
	return cfg
}

func TestExtractAllModesProduceGeometry(t *testing.T) {
	field := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	for _, mode := range []Mode{UniformDC, ManifoldDC, AdaptiveDC} {
		t.Run(mode.String(), func(t *testing.T) {
			sink := meshsink.NewBufferSink()
			stats, err := Extract(context.Background(), field, sphereConfig(mode), sink)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(sink.Triangles) == 0 {
				t.Fatal("expected triangles, got none")
			}
			if stats.TrianglesEmitted == 0 {
				t.Error("expected non-zero TrianglesEmitted in stats")
			}
		})
	}
}

func TestExtractInvalidConfig(t *testing.T) {
	field := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	cfg := sphereConfig(UniformDC)
	cfg.Size = 0
	sink := meshsink.NewBufferSink()
	_, err := Extract(context.Background(), field, cfg, sink)
	if err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestExtractUnknownMode(t *testing.T) {
	field := density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	cfg := sphereConfig(Mode(99))
	sink := meshsink.NewBufferSink()
	_, err := Extract(context.Background(), field, cfg, sink)
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestModeString(t *testing.T) {
	cases := map[Mode]string{UniformDC: "uniform", AdaptiveDC: "adaptive", ManifoldDC: "manifold"}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", m, got, want)
		}
	}
}
