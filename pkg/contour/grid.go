// Package contour implements the three Dual Contouring variants: a uniform
// grid extractor, an adaptive octree extractor, and a manifold-guaranteeing
// uniform variant. All three share the sampling kernel in pkg/sample and the
// vertex solver in pkg/qef, and all three write their output through a
// meshsink.Sink rather than building a mesh type of their own.
package contour

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/wrenfield/isocarve/pkg/density"
	"github.com/wrenfield/isocarve/pkg/math3d"
	"github.com/wrenfield/isocarve/pkg/meshsink"
	"github.com/wrenfield/isocarve/pkg/qef"
	"github.com/wrenfield/isocarve/pkg/sample"
)

// GridConfig controls a uniform-grid extraction.
type GridConfig struct {
	Origin   math3d.Vec3
	CellSize float64
	Dims     [3]int // number of cells along X, Y, Z

	QEF                qef.Config
	EdgeAccuracy       int
	NormalStepFraction float64
}

// DefaultGridConfig returns reasonable defaults for everything but Origin,
// CellSize and Dims, which are mandatory per-call parameters.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		QEF:                qef.DefaultConfig(),
		EdgeAccuracy:       8,
		NormalStepFraction: sample.DefaultNormalStepFraction,
	}
}

// Stats summarizes one extraction pass, for diagnostics and tests.
type Stats struct {
	CellsSampled      int
	CellsWithCrossing int
	TrianglesEmitted  int
	QEFSolves         int
	DegenerateQEFs    int
	Warnings          []string
}

func (s *Stats) warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// corner indices 0..7 as (dx,dy,dz) in {0,1}^3, matching the bit layout used
// throughout this package: bit0=x, bit1=y, bit2=z.
var cornerOffsets = [8]math3d.Vec3{
	math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), math3d.V3(1, 1, 0),
	math3d.V3(0, 0, 1), math3d.V3(1, 0, 1), math3d.V3(0, 1, 1), math3d.V3(1, 1, 1),
}

// edges lists the 12 cube edges as pairs of corner indices.
var edges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // x-direction
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // y-direction
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // z-direction
}

type cornerGrid struct {
	cfg        GridConfig
	field      density.Field
	values     []float64 // (Dims.X+1)*(Dims.Y+1)*(Dims.Z+1), x fastest
	nx, ny, nz int
}

// newCornerGrid samples field at every grid corner. The sampling pass is an
// embarrassingly parallel map over independent corners (no cell needs
// another cell's sample), so it is sharded by z-slice across a worker group
// sized to the host rather than walked single-threaded.
func newCornerGrid(field density.Field, cfg GridConfig) *cornerGrid {
	nx, ny, nz := cfg.Dims[0]+1, cfg.Dims[1]+1, cfg.Dims[2]+1
	g := &cornerGrid{cfg: cfg, field: field, nx: nx, ny: ny, nz: nz}
	g.values = make([]float64, nx*ny*nz)

	var eg errgroup.Group
	eg.SetLimit(max(1, runtime.GOMAXPROCS(0)))
	for k := 0; k < nz; k++ {
		k := k
		eg.Go(func() error {
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					p := cfg.Origin.Add(math3d.V3(float64(i), float64(j), float64(k)).Scale(cfg.CellSize))
					g.values[g.index(i, j, k)] = field.Eval(p)
				}
			}
			return nil
		})
	}
	_ = eg.Wait() // sampling goroutines never return an error
	return g
}

func (g *cornerGrid) index(i, j, k int) int { return (k*g.ny+j)*g.nx + i }

func (g *cornerGrid) value(i, j, k int) float64 { return g.values[g.index(i, j, k)] }

func (g *cornerGrid) corner(i, j, k int) math3d.Vec3 {
	return g.cfg.Origin.Add(math3d.V3(float64(i), float64(j), float64(k)).Scale(g.cfg.CellSize))
}

// cellVertex is the feature vertex solved for one cell, plus the data needed
// to stitch quads across it.
type cellVertex struct {
	pos      math3d.Vec3
	material int
	ok       bool
}

// ExtractUniformGrid samples field over a uniform grid of cfg.Dims cells
// starting at cfg.Origin with edge length cfg.CellSize, solves one QEF
// vertex per surface-crossing cell, and writes the resulting quads (as
// triangle pairs) to sink. It returns Stats describing the pass, or an error
// if ctx is cancelled.
func ExtractUniformGrid(ctx context.Context, field density.Field, cfg GridConfig, sink meshsink.Sink) (Stats, error) {
	var stats Stats
	grid := newCornerGrid(field, cfg)

	nx, ny, nz := cfg.Dims[0], cfg.Dims[1], cfg.Dims[2]
	verts := make([]cellVertex, nx*ny*nz)
	cellIndex := func(i, j, k int) int { return (k*ny+j)*nx + i }

	// Per-cell feature solving touches only that cell's corners and writes
	// only its own slot in verts, so slices of z layers can run concurrently;
	// the stitching pass below still needs every feature vertex resolved
	// first, so it stays sequential after this group completes.
	perCellStats := make([]Stats, nz)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(1, runtime.GOMAXPROCS(0)))
	for k := 0; k < nz; k++ {
		k := k
		eg.Go(func() error {
			local := &perCellStats[k]
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					if egCtx.Err() != nil {
						return egCtx.Err()
					}
					local.CellsSampled++
					v, solved := solveCellVertex(grid, field, i, j, k, local)
					if solved {
						local.CellsWithCrossing++
					}
					verts[cellIndex(i, j, k)] = v
				}
			}
			return nil
		})
	}
	err := eg.Wait()
	for k := range perCellStats {
		stats.CellsSampled += perCellStats[k].CellsSampled
		stats.CellsWithCrossing += perCellStats[k].CellsWithCrossing
		stats.QEFSolves += perCellStats[k].QEFSolves
		stats.DegenerateQEFs += perCellStats[k].DegenerateQEFs
		stats.Warnings = append(stats.Warnings, perCellStats[k].Warnings...)
	}
	if err != nil {
		return stats, err
	}

	emitQuads(grid, verts, cellIndex, sink, &stats)
	return stats, nil
}

func solveCellVertex(grid *cornerGrid, field density.Field, i, j, k int, stats *Stats) (cellVertex, bool) {
	var corners [8]math3d.Vec3
	var values [8]float64
	for c := 0; c < 8; c++ {
		off := cornerOffsets[c]
		ci, cj, ck := i+int(off.X), j+int(off.Y), k+int(off.Z)
		corners[c] = grid.corner(ci, cj, ck)
		values[c] = grid.value(ci, cj, ck)
	}
	v, ok, warning := solveFeatureVertex(field, corners, values, grid.cfg.CellSize, grid.cfg.EdgeAccuracy, grid.cfg.NormalStepFraction, grid.cfg.QEF, stats)
	if warning != "" {
		stats.warn("cell (%d,%d,%d): %s", i, j, k, warning)
	}
	return v, ok
}

// solveFeatureVertex is the cell-local core of every Dual Contouring
// variant: given a cube's 8 corner positions and sampled values (in the
// cornerOffsets bit order) it finds the sign-changing edges, estimates a
// plane at each crossing, and solves the resulting QEF for one feature
// vertex. Shared by the uniform grid, adaptive octree, and manifold
// extractors so the vertex-placement policy never drifts between them.
func solveFeatureVertex(field density.Field, corners [8]math3d.Vec3, values [8]float64, side float64, edgeAccuracy int, normalStepFraction float64, qefCfg qef.Config, stats *Stats) (cellVertex, bool, string) {
	var planes []qef.Plane
	var crossPoints []math3d.Vec3
	materialVotes := map[int]int{}

	for _, e := range edges {
		a, b := e[0], e[1]
		if (values[a] < 0) == (values[b] < 0) {
			continue
		}
		crossing, err := sample.CrossingAt(field, corners[a], corners[b], values[a], values[b], side, edgeAccuracy, normalStepFraction)
		if err != nil {
			continue
		}
		crossPoints = append(crossPoints, crossing.Position)
		if !crossing.Degenerate {
			planes = append(planes, qef.Plane{Point: crossing.Position, Normal: crossing.Normal})
		}
		insideCorner := corners[a]
		if values[a] >= 0 {
			insideCorner = corners[b]
		}
		materialVotes[density.MaterialOf(field, insideCorner)]++
	}

	if len(crossPoints) == 0 {
		return cellVertex{}, false, ""
	}

	mass := qef.MassPoint(crossPoints)
	bbMin, bbMax := cubeBounds(corners)
	if len(planes) == 0 {
		return cellVertex{pos: mass.Clamp(bbMin, bbMax), material: dominantMaterial(materialVotes), ok: true}, true,
			"all intersections degenerate, using mass point"
	}

	if stats != nil {
		stats.QEFSolves++
	}
	res, err := qef.Solve(planes, mass, bbMin, bbMax, qefCfg)
	if err != nil {
		return cellVertex{}, false, err.Error()
	}
	if res.Degenerate && stats != nil {
		stats.DegenerateQEFs++
	}
	return cellVertex{pos: res.Position, material: dominantMaterial(materialVotes), ok: true}, true, ""
}

// cubeBounds returns the axis-aligned min/max of an 8-corner cube given in
// cornerOffsets bit order.
func cubeBounds(corners [8]math3d.Vec3) (math3d.Vec3, math3d.Vec3) {
	min, max := corners[0], corners[0]
	for _, c := range corners[1:] {
		min = min.Min(c)
		max = max.Max(c)
	}
	return min, max
}

// dominantMaterial picks the mode of the vote counts, breaking ties by the
// lowest material id for determinism.
func dominantMaterial(votes map[int]int) int {
	best, bestCount := 0, -1
	for m, c := range votes {
		if c > bestCount || (c == bestCount && m < best) {
			best, bestCount = m, c
		}
	}
	return best
}

// perpAxes lists, for each of the three edge directions, the two
// perpendicular axes, and quadOffsets the four (du, dv) cell offsets (in
// winding order for an x or z edge whose low corner is inside) around a grid
// edge in that direction. (x, z) around a y edge is a left-handed pair, so
// y edges wind the other way.
type axisPair struct{ u, v int }

var perpAxes = [3]axisPair{{1, 2}, {0, 2}, {0, 1}} // for x,y,z edges resp.

var quadOffsets = [4][2]int{{0, 0}, {-1, 0}, {-1, -1}, {0, -1}}

func emitQuads(grid *cornerGrid, verts []cellVertex, cellIndex func(i, j, k int) int, sink meshsink.Sink, stats *Stats) {
	dims := grid.cfg.Dims
	cellAt := func(c [3]int) (cellVertex, bool) {
		for a := 0; a < 3; a++ {
			if c[a] < 0 || c[a] >= dims[a] {
				return cellVertex{}, false
			}
		}
		return verts[cellIndex(c[0], c[1], c[2])], true
	}

	// Iterate grid-corner edges along each of the three axes. An edge at
	// corner (i,j,k) in direction d connects corner (i,j,k) to the next
	// corner along d; it is interior (has four adjacent cells) whenever its
	// two perpendicular coordinates are strictly inside (1..dim-1).
	for axis := 0; axis < 3; axis++ {
		p := perpAxes[axis]
		var corner [3]int
		dimsCorner := [3]int{grid.nx, grid.ny, grid.nz}
		for corner[0] = 0; corner[0] < dimsCorner[0]; corner[0]++ {
			for corner[1] = 0; corner[1] < dimsCorner[1]; corner[1]++ {
				for corner[2] = 0; corner[2] < dimsCorner[2]; corner[2]++ {
					if corner[axis] >= dimsCorner[axis]-1 {
						continue // no "next" corner along axis
					}
					next := corner
					next[axis]++
					fa := grid.value(corner[0], corner[1], corner[2])
					fb := grid.value(next[0], next[1], next[2])
					if (fa < 0) == (fb < 0) {
						continue
					}

					var quad [4]cellVertex
					ok := true
					for q, off := range quadOffsets {
						cellCoord := corner
						cellCoord[p.u] += off[0]
						cellCoord[p.v] += off[1]
						cellCoord[axis] = corner[axis] // the cell layer containing this edge
						var cc [3]int
						cc[p.u], cc[p.v], cc[axis] = cellCoord[p.u], cellCoord[p.v], cellCoord[axis]
						v, exists := cellAt(cc)
						if !exists || !v.ok {
							ok = false
							break
						}
						quad[q] = v
					}
					if !ok {
						continue
					}

					flip := (fa >= 0) != (axis == 1) // inside->outside along +axis determines winding
					emitQuad(sink, quad, flip, stats)
				}
			}
		}
	}
}

func emitQuad(sink meshsink.Sink, quad [4]cellVertex, flip bool, stats *Stats) {
	order := [4]int{0, 1, 2, 3}
	if flip {
		order = [4]int{3, 2, 1, 0}
	}
	a, b, c, d := quad[order[0]], quad[order[1]], quad[order[2]], quad[order[3]]
	mat := a.material
	sink.AppendTriangle(meshsink.Triangle{
		Positions: [3]math3d.Vec3{a.pos, b.pos, c.pos},
		Material:  mat,
	})
	sink.AppendTriangle(meshsink.Triangle{
		Positions: [3]math3d.Vec3{a.pos, c.pos, d.pos},
		Material:  mat,
	})
	stats.TrianglesEmitted += 2
}
