package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/wrenfield/isocarve/pkg/density"
	"github.com/wrenfield/isocarve/pkg/extract"
	"github.com/wrenfield/isocarve/pkg/math3d"
	"github.com/wrenfield/isocarve/pkg/meshsink"
	"github.com/wrenfield/isocarve/pkg/models"
)

// csgPresets names the scenes --csg can build, each exercising a different
// combinator/primitive mix from pkg/density.
var csgPresets = map[string]func() density.Field{
	"sphere": func() density.Field {
		return density.Sphere{Center: math3d.Vec3{}, Radius: 1}
	},
	"torus": func() density.Field {
		return density.Torus{Center: math3d.Vec3{}, MajorRadius: 1, MinorRadius: 0.35, Axis: TorusDefaultAxis}
	},
	"snowman": func() density.Field {
		return density.Union3(
			density.Sphere{Center: math3d.V3(0, -0.9, 0), Radius: 1.0},
			density.Sphere{Center: math3d.V3(0, 0.5, 0), Radius: 0.7},
			density.Sphere{Center: math3d.V3(0, 1.5, 0), Radius: 0.45},
		)
	},
	"drilled-box": func() density.Field {
		box := density.Box{Center: math3d.Vec3{}, HalfExtents: math3d.V3(1, 1, 1)}
		hole := density.Torus{Center: math3d.Vec3{}, MajorRadius: 0.5, MinorRadius: 0.3, Axis: density.TorusZ}
		return density.Difference{A: box, B: hole}
	},
	"terrain": func() density.Field {
		return density.NewNoise(0, 0.6, 4)
	},
	"lens": func() density.Field {
		a := density.Sphere{Center: math3d.V3(-0.6, 0, 0), Radius: 1}
		b := density.Sphere{Center: math3d.V3(0.6, 0, 0), Radius: 1}
		return density.Intersection{A: a, B: b}
	},
}

// TorusDefaultAxis keeps the torus preset readable above without importing
// density twice for the enum value alone.
const TorusDefaultAxis = density.TorusZ

func presetNames() []string {
	names := make([]string, 0, len(csgPresets))
	for name := range csgPresets {
		names = append(names, name)
	}
	return names
}

func parseExtractMode(s string) (extract.Mode, error) {
	switch strings.ToLower(s) {
	case "uniform", "":
		return extract.UniformDC, nil
	case "adaptive":
		return extract.AdaptiveDC, nil
	case "manifold":
		return extract.ManifoldDC, nil
	default:
		return 0, fmt.Errorf("unknown contour mode %q (want uniform, adaptive or manifold)", s)
	}
}

// generateMesh builds the named CSG preset and extracts it into a models.Mesh
// using the requested contouring mode and resolution. It returns the
// extraction stats alongside the mesh so the caller can report them.
func generateMesh(ctx context.Context, preset string, mode extract.Mode, resolution int) (*models.Mesh, extract.Stats, error) {
	build, ok := csgPresets[preset]
	if !ok {
		return nil, extract.Stats{}, fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(presetNames(), ", "))
	}
	field := build()

	cfg := extract.DefaultConfig()
	cfg.Mode = mode
	cfg.Origin = math3d.V3(-2, -2, -2)
	cfg.Size = 4
	cfg.Resolution = resolution
	cfg.MaxDepth = 7

	sink := meshsink.NewBufferSink()
	stats, err := extract.Extract(ctx, field, cfg, sink)
	if err != nil {
		return nil, stats, fmt.Errorf("extract %q: %w", preset, err)
	}

	mesh := sink.ToMesh(preset)
	mesh.CalculateSmoothNormals()
	return mesh, stats, nil
}
