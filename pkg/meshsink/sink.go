// Package meshsink is the output boundary of the extraction engine: the
// contouring variants in pkg/contour never build a mesh type themselves,
// they append triangles to a Sink. Consumers that want an indexed mesh (for
// rendering, export, or further processing) convert the resulting buffer
// with ToMesh.
package meshsink

import "github.com/wrenfield/isocarve/pkg/math3d"

// Triangle is one emitted face: three positions in winding order, the
// material id carried by the cell that produced it, and (once filled in by
// a sink) the flat face normal.
type Triangle struct {
	Positions [3]math3d.Vec3
	Normal    math3d.Vec3
	Material  int
}

// FaceNormal returns the triangle's geometric normal from its winding order.
func (t Triangle) FaceNormal() math3d.Vec3 {
	e1 := t.Positions[1].Sub(t.Positions[0])
	e2 := t.Positions[2].Sub(t.Positions[0])
	return e1.Cross(e2).Normalize()
}

// Line is a debug-only edge, e.g. an octree cell outline or a QEF plane
// visualization, emitted only by sinks that choose to render them.
type Line struct {
	A, B math3d.Vec3
}

// Sink receives the geometry produced by one extraction pass. Contouring
// code depends only on this interface, never on a concrete mesh type, so the
// same engine can feed a renderer, a glTF writer, or a test harness that
// just counts triangles.
type Sink interface {
	AppendTriangle(Triangle)
}

// LineSink is implemented by sinks that also accept debug line geometry.
// It is separate from Sink, so a plain BufferSink remains a valid Sink; the
// contouring variants in pkg/contour emit no lines.
type LineSink interface {
	AppendLine(Line)
}

// BufferSink is the simplest Sink: it appends triangles to a slice with no
// deduplication or shared-vertex welding. Most callers that just want a mesh
// use this and then call ToMesh.
type BufferSink struct {
	Triangles []Triangle
}

// NewBufferSink returns an empty BufferSink.
func NewBufferSink() *BufferSink { return &BufferSink{} }

// AppendTriangle implements Sink.
func (s *BufferSink) AppendTriangle(t Triangle) {
	if t.Normal == (math3d.Vec3{}) {
		t.Normal = t.FaceNormal()
	}
	s.Triangles = append(s.Triangles, t)
}

// Provenance records which extraction cell produced a given triangle, for
// debugging a specific contouring pass (e.g. "why is there a hole here").
type Provenance struct {
	CellIndex [3]int
	Note      string
}

// DebugSink wraps a BufferSink and keeps a provenance entry alongside each
// triangle. Entries are filled only by explicit Annotate calls; none of the
// contouring variants in pkg/contour call Annotate, so their triangles keep
// empty provenance entries.
type DebugSink struct {
	BufferSink
	Provenance []Provenance
}

// NewDebugSink returns an empty DebugSink.
func NewDebugSink() *DebugSink { return &DebugSink{} }

// AppendTriangle implements Sink. It records an empty Provenance entry so
// Provenance and Triangles stay index-aligned; callers that want real
// provenance call Annotate immediately after.
func (s *DebugSink) AppendTriangle(t Triangle) {
	s.BufferSink.AppendTriangle(t)
	s.Provenance = append(s.Provenance, Provenance{})
}

// Annotate fills in the provenance of the most recently appended triangle.
func (s *DebugSink) Annotate(cell [3]int, note string) {
	if len(s.Provenance) == 0 {
		return
	}
	s.Provenance[len(s.Provenance)-1] = Provenance{CellIndex: cell, Note: note}
}

// AppendLine implements LineSink.
func (s *DebugSink) AppendLine(Line) {
	// Debug line geometry is accepted but not retained by the generic
	// sink; a renderer-backed sink overrides this to draw it.
}
