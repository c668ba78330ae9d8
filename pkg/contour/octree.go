package contour

import (
	"context"

	"github.com/wrenfield/isocarve/pkg/density"
	"github.com/wrenfield/isocarve/pkg/math3d"
	"github.com/wrenfield/isocarve/pkg/meshsink"
	"github.com/wrenfield/isocarve/pkg/qef"
	"github.com/wrenfield/isocarve/pkg/sample"
)

// OctreeConfig controls an adaptive-octree extraction.
type OctreeConfig struct {
	Origin   math3d.Vec3
	Side     float64 // edge length of the root cell
	MaxDepth int

	// CollapseTolerance scales the node-relative residual threshold below
	// which a node's children are merged into a single feature vertex: a
	// node collapses when the combined QEF residual is at most
	// CollapseTolerance * side^2 for that node's own side length.
	CollapseTolerance float64

	QEF                qef.Config
	EdgeAccuracy       int
	NormalStepFraction float64
}

// DefaultOctreeConfig returns reasonable defaults for everything but Origin,
// Side and MaxDepth.
func DefaultOctreeConfig() OctreeConfig {
	return OctreeConfig{
		CollapseTolerance:  0.01,
		QEF:                qef.DefaultConfig(),
		EdgeAccuracy:       8,
		NormalStepFraction: sample.DefaultNormalStepFraction,
	}
}

// octNode is one node of the adaptive octree: either a leaf (with at most
// one feature vertex, solved from its own corners or merged from its former
// children) or an internal node with exactly 8 children.
type octNode struct {
	min, max math3d.Vec3
	children [8]*octNode
	leaf     bool

	hasCrossing bool
	vertex      cellVertex

	// planes and crossPoints are retained only for leaves so an ancestor
	// can attempt to merge this node into a collapsed vertex; they are kept
	// for the lifetime of the tree.
	planes      []qef.Plane
	crossPoints []math3d.Vec3
}

// ExtractAdaptiveOctree builds an octree over the cube [cfg.Origin,
// cfg.Origin+cfg.Side] down to cfg.MaxDepth, collapsing any subtree whose
// combined QEF residual stays under tolerance, then performs the dual
// contouring traversal over the resulting (non-uniform) leaves and writes
// triangles to sink.
func ExtractAdaptiveOctree(ctx context.Context, field density.Field, cfg OctreeConfig, sink meshsink.Sink) (Stats, error) {
	var stats Stats
	root, err := buildOctNode(ctx, field, cfg.Origin, cfg.Origin.Add(math3d.V3(cfg.Side, cfg.Side, cfg.Side)), 0, cfg, &stats)
	if err != nil {
		return stats, err
	}
	if root == nil {
		return stats, nil
	}
	processCell(root, field, sink, &stats)
	return stats, nil
}

func buildOctNode(ctx context.Context, field density.Field, min, max math3d.Vec3, depth int, cfg OctreeConfig, stats *Stats) (*octNode, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	stats.CellsSampled++

	corners, values := cubeCornerValues(field, min, max)
	if depth >= cfg.MaxDepth {
		v, ok, warning := solveFeatureVertex(field, corners, values, max.X-min.X, cfg.EdgeAccuracy, cfg.NormalStepFraction, cfg.QEF, stats)
		if warning != "" {
			stats.warn("leaf [%v,%v]: %s", min, max, warning)
		}
		node := &octNode{min: min, max: max, leaf: true, hasCrossing: ok, vertex: v}
		if ok {
			stats.CellsWithCrossing++
			node.planes, node.crossPoints = collectEdgePlanes(field, corners, values, max.X-min.X, cfg)
		}
		return node, nil
	}

	node := &octNode{min: min, max: max}
	mid := min.Add(max).Scale(0.5)
	for c := 0; c < 8; c++ {
		childMin := childCorner(min, mid, c)
		childMax := childCorner(mid, max, c)
		child, err := buildOctNode(ctx, field, childMin, childMax, depth+1, cfg, stats)
		if err != nil {
			return nil, err
		}
		node.children[c] = child
	}

	if collapsed, ok := tryCollapse(field, node, cfg, stats); ok {
		if collapsed.hasCrossing {
			stats.CellsWithCrossing++
		}
		return collapsed, nil
	}
	return node, nil
}

// childCorner picks the (lo or hi) value for each axis of child index c,
// using lo's component when c's bit for that axis is 0 and hi's otherwise.
// Called once with (min,mid) and once with (mid,max) to get a child's own
// min and max corners respectively.
func childCorner(lo, hi math3d.Vec3, c int) math3d.Vec3 {
	pick := func(bit int, l, h float64) float64 {
		if bit == 0 {
			return l
		}
		return h
	}
	return math3d.V3(
		pick(c&1, lo.X, hi.X),
		pick((c>>1)&1, lo.Y, hi.Y),
		pick((c>>2)&1, lo.Z, hi.Z),
	)
}

func cubeCornerValues(field density.Field, min, max math3d.Vec3) ([8]math3d.Vec3, [8]float64) {
	var corners [8]math3d.Vec3
	var values [8]float64
	for c := 0; c < 8; c++ {
		corners[c] = childCorner(min, max, c)
		values[c] = field.Eval(corners[c])
	}
	return corners, values
}

// collectEdgePlanes re-derives the plane set for a leaf (mirroring
// solveFeatureVertex's own edge scan) so it can be retained for a later
// merge attempt by an ancestor node.
func collectEdgePlanes(field density.Field, corners [8]math3d.Vec3, values [8]float64, side float64, cfg OctreeConfig) ([]qef.Plane, []math3d.Vec3) {
	var planes []qef.Plane
	var crossPoints []math3d.Vec3
	for _, e := range edges {
		a, b := e[0], e[1]
		if (values[a] < 0) == (values[b] < 0) {
			continue
		}
		crossing, err := sample.CrossingAt(field, corners[a], corners[b], values[a], values[b], side, cfg.EdgeAccuracy, cfg.NormalStepFraction)
		if err != nil {
			continue
		}
		crossPoints = append(crossPoints, crossing.Position)
		if !crossing.Degenerate {
			planes = append(planes, qef.Plane{Point: crossing.Position, Normal: crossing.Normal})
		}
	}
	return planes, crossPoints
}

// tryCollapse attempts to replace an internal node's 8 children with a
// single leaf whose vertex is solved from the union of their retained
// planes. It only considers nodes whose children are all leaves, crossing
// or not; when none of them has a crossing, the children merge into one
// empty leaf.
func tryCollapse(field density.Field, node *octNode, cfg OctreeConfig, stats *Stats) (*octNode, bool) {
	var planes []qef.Plane
	var crossPoints []math3d.Vec3
	materialVotes := map[int]int{}
	for _, c := range node.children {
		if c == nil {
			continue
		}
		if !c.leaf {
			return nil, false // an internal child never collapsed; nothing to merge
		}
		if !c.hasCrossing {
			continue
		}
		planes = append(planes, c.planes...)
		crossPoints = append(crossPoints, c.crossPoints...)
		materialVotes[c.vertex.material]++
	}
	if len(crossPoints) == 0 {
		return &octNode{min: node.min, max: node.max, leaf: true}, true
	}

	mass := qef.MassPoint(crossPoints)
	side := node.max.X - node.min.X
	res, err := qef.Solve(planes, mass, node.min, node.max, cfg.QEF)
	if err != nil {
		return nil, false
	}
	tau := cfg.CollapseTolerance * side * side
	if res.Residual > tau || res.Degenerate {
		return nil, false
	}

	stats.QEFSolves++
	return &octNode{
		min: node.min, max: node.max, leaf: true, hasCrossing: true,
		vertex:      cellVertex{pos: res.Position, material: dominantMaterial(materialVotes), ok: true},
		planes:      planes,
		crossPoints: crossPoints,
	}, true
}

// otherAxes returns the two axis indices other than axis, in increasing
// order; this fixes, for every edge and face direction, a consistent
// (u, v) coordinate convention used throughout the dual traversal.
func otherAxes(axis int) (int, int) {
	switch axis {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	default:
		return 0, 1
	}
}

func axisGet(v math3d.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func axisSet(v math3d.Vec3, axis int, val float64) math3d.Vec3 {
	switch axis {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	default:
		v.Z = val
	}
	return v
}

// cellProcFaceMask lists the 12 face adjacencies between an octree node's 8
// children: two child indices that share a face, and the axis the face is
// perpendicular to (the axis whose bit differs between the two children).
var cellProcFaceMask = [12][3]int{
	{0, 1, 0}, {2, 3, 0}, {4, 5, 0}, {6, 7, 0},
	{0, 2, 1}, {1, 3, 1}, {4, 6, 1}, {5, 7, 1},
	{0, 4, 2}, {1, 5, 2}, {2, 6, 2}, {3, 7, 2},
}

// cellProcEdgeMask lists the 6 edge adjacencies between an octree node's 8
// children: the four child indices that meet along one of the node's
// interior center-edges, in (u,v) = (0,0),(1,0),(0,1),(1,1) order for that
// edge's axis, and the axis the edge runs along.
var cellProcEdgeMask = [6][5]int{
	{0, 2, 4, 6, 0},
	{1, 3, 5, 7, 0},
	{0, 1, 4, 5, 1},
	{2, 3, 6, 7, 1},
	{0, 1, 2, 3, 2},
	{4, 5, 6, 7, 2},
}

// resolveChild returns the child of node that contains p, or node itself if
// node is a leaf (nothing finer to descend into). Used to drive the
// cross-node recursion in processFace/processEdge without needing separate
// subdivision tables: p is always chosen to lie unambiguously inside the
// intended child, so a simple midpoint comparison suffices.
func resolveChild(node *octNode, p math3d.Vec3) *octNode {
	if node == nil || node.leaf {
		return node
	}
	mid := node.min.Add(node.max).Scale(0.5)
	bit := func(v, m float64) int {
		if v >= m {
			return 1
		}
		return 0
	}
	c := bit(p.X, mid.X) + 2*bit(p.Y, mid.Y) + 4*bit(p.Z, mid.Z)
	return node.children[c]
}

// processCell recurses into a node's 8 children and processes every
// internal face and edge adjacency between them, the entry point of the Ju
// et al. dual-contouring octree traversal.
func processCell(node *octNode, field density.Field, sink meshsink.Sink, stats *Stats) {
	if node == nil || node.leaf {
		return
	}
	for _, c := range node.children {
		processCell(c, field, sink, stats)
	}
	for _, m := range cellProcFaceMask {
		processFace(node.children[m[0]], node.children[m[1]], m[2], field, sink, stats)
	}
	for _, m := range cellProcEdgeMask {
		nodes := [4]*octNode{node.children[m[0]], node.children[m[1]], node.children[m[2]], node.children[m[3]]}
		axis := m[4]
		u, v := otherAxes(axis)
		midU, midV := (axisGet(node.min, u)+axisGet(node.max, u))/2, (axisGet(node.min, v)+axisGet(node.max, v))/2
		// The edge spans only the four children's own extent along axis.
		a := axisSet(axisSet(axisSet(math3d.Vec3{}, axis, axisGet(nodes[0].min, axis)), u, midU), v, midV)
		b := axisSet(axisSet(axisSet(math3d.Vec3{}, axis, axisGet(nodes[0].max, axis)), u, midU), v, midV)
		processEdge(nodes, axis, a, b, field, sink, stats)
	}
}

// processFace handles the shared face between two nodes that are siblings
// (or the result of a previous resolveChild step) of possibly different
// subdivision depth. If both are leaves there is nothing to subdivide
// further and the face's edges are handled by whichever call reached them
// first. Otherwise it descends into the four facing quadrants and the two
// edges interior to the shared face.
func processFace(n0, n1 *octNode, axis int, field density.Field, sink meshsink.Sink, stats *Stats) {
	if n0 == nil || n1 == nil || (n0.leaf && n1.leaf) {
		return
	}
	u, v := otherAxes(axis)
	boundary := axisGet(n0.max, axis) // == axisGet(n1.min, axis) for true neighbors

	uLo, uHi := axisGet(n0.min, u), axisGet(n0.max, u)
	vLo, vHi := axisGet(n0.min, v), axisGet(n0.max, v)
	uMid, vMid := (uLo+uHi)/2, (vLo+vHi)/2

	quadrants := [4][2]float64{{uLo + (uHi-uLo)/4, vLo + (vHi-vLo)/4}, {uHi - (uHi-uLo)/4, vLo + (vHi-vLo)/4},
		{uLo + (uHi-uLo)/4, vHi - (vHi-vLo)/4}, {uHi - (uHi-uLo)/4, vHi - (vHi-vLo)/4}}
	for _, q := range quadrants {
		p := axisSet(axisSet(axisSet(math3d.Vec3{}, axis, boundary), u, q[0]), v, q[1])
		processFace(resolveChild(n0, p), resolveChild(n1, p), axis, field, sink, stats)
	}

	// Interior edge along u at v=vMid.
	p0 := axisSet(axisSet(axisSet(math3d.Vec3{}, axis, boundary), u, uLo+(uHi-uLo)/4), v, vMid)
	p1 := axisSet(axisSet(axisSet(math3d.Vec3{}, axis, boundary), u, uHi-(uHi-uLo)/4), v, vMid)
	edgeNodesU := [4]*octNode{resolveChild(n0, p0), resolveChild(n1, p0), resolveChild(n0, p1), resolveChild(n1, p1)}
	a := axisSet(axisSet(axisSet(math3d.Vec3{}, axis, boundary), u, uLo), v, vMid)
	b := axisSet(axisSet(axisSet(math3d.Vec3{}, axis, boundary), u, uHi), v, vMid)
	processEdge(edgeNodesU, u, a, b, field, sink, stats)

	// Interior edge along v at u=uMid.
	q0 := axisSet(axisSet(axisSet(math3d.Vec3{}, axis, boundary), u, uMid), v, vLo+(vHi-vLo)/4)
	q1 := axisSet(axisSet(axisSet(math3d.Vec3{}, axis, boundary), u, uMid), v, vHi-(vHi-vLo)/4)
	edgeNodesV := [4]*octNode{resolveChild(n0, q0), resolveChild(n1, q0), resolveChild(n0, q1), resolveChild(n1, q1)}
	c := axisSet(axisSet(axisSet(math3d.Vec3{}, axis, boundary), u, uMid), v, vLo)
	d := axisSet(axisSet(axisSet(math3d.Vec3{}, axis, boundary), u, uMid), v, vHi)
	processEdge(edgeNodesV, v, c, d, field, sink, stats)
}

// processEdge resolves the up-to-four cells touching the physical edge
// [a, b] (running along axis), descending into whichever nodes are still
// internal until all four are leaves, then emits a quad if the field
// changes sign along [a, b].
func processEdge(nodes [4]*octNode, axis int, a, b math3d.Vec3, field density.Field, sink meshsink.Sink, stats *Stats) {
	allLeaf := true
	for _, n := range nodes {
		if n != nil && !n.leaf {
			allLeaf = false
			break
		}
	}
	if !allLeaf {
		mid := a.Lerp(b, 0.5)
		pLo := a.Lerp(mid, 0.5)
		pHi := mid.Lerp(b, 0.5)
		var lo, hi [4]*octNode
		for i, n := range nodes {
			if n == nil || n.leaf {
				lo[i], hi[i] = n, n
				continue
			}
			lo[i] = resolveChild(n, pLo)
			hi[i] = resolveChild(n, pHi)
		}
		processEdge(lo, axis, a, mid, field, sink, stats)
		processEdge(hi, axis, mid, b, field, sink, stats)
		return
	}

	for _, n := range nodes {
		if n == nil {
			return // boundary edge: fewer than four cells present
		}
	}
	fa, fb := field.Eval(a), field.Eval(b)
	if (fa < 0) == (fb < 0) {
		return
	}
	for _, n := range nodes {
		if !n.hasCrossing {
			stats.warn("octree edge at %v-%v: adjacent leaf recorded no crossing", a, b)
			return
		}
	}

	// nodes come in (u,v) = (0,0),(1,0),(0,1),(1,1) order; emitQuad needs
	// them cyclic, in the same winding as the uniform grid's quadOffsets.
	quad := [4]cellVertex{nodes[0].vertex, nodes[1].vertex, nodes[3].vertex, nodes[2].vertex}
	emitQuad(sink, quad, (fa >= 0) != (axis == 1), stats)
}
