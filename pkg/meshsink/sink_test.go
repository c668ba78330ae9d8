package meshsink

import (
	"testing"

	"github.com/wrenfield/isocarve/pkg/math3d"
)

func triangle() Triangle {
	return Triangle{
		Positions: [3]math3d.Vec3{
			math3d.V3(0, 0, 0),
			math3d.V3(1, 0, 0),
			math3d.V3(0, 1, 0),
		},
		Material: 1,
	}
}

func TestBufferSinkFillsNormal(t *testing.T) {
	s := NewBufferSink()
	s.AppendTriangle(triangle())
	if len(s.Triangles) != 1 {
		t.Fatalf("got %d triangles, want 1", len(s.Triangles))
	}
	want := math3d.V3(0, 0, 1)
	if s.Triangles[0].Normal.Sub(want).Len() > 1e-9 {
		t.Errorf("got normal %v, want %v", s.Triangles[0].Normal, want)
	}
}

func TestDebugSinkTracksProvenance(t *testing.T) {
	s := NewDebugSink()
	s.AppendTriangle(triangle())
	s.Annotate([3]int{1, 2, 3}, "test cell")
	if len(s.Provenance) != 1 {
		t.Fatalf("got %d provenance entries, want 1", len(s.Provenance))
	}
	if s.Provenance[0].CellIndex != [3]int{1, 2, 3} {
		t.Errorf("got cell %v", s.Provenance[0].CellIndex)
	}
}

func TestToMesh(t *testing.T) {
	s := NewBufferSink()
	s.AppendTriangle(triangle())
	s.AppendTriangle(triangle())
	m := s.ToMesh("test")
	if m.VertexCount() != 6 {
		t.Errorf("got %d vertices, want 6", m.VertexCount())
	}
	if m.TriangleCount() != 2 {
		t.Errorf("got %d triangles, want 2", m.TriangleCount())
	}
}
