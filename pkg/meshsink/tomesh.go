package meshsink

import (
	"github.com/wrenfield/isocarve/pkg/math3d"
	"github.com/wrenfield/isocarve/pkg/models"
)

// ToMesh converts a flat triangle-soup buffer into an indexed models.Mesh
// with no shared-vertex welding: every triangle gets three fresh vertices.
// This is the cheapest possible conversion and the one the mesh-sink
// component calls for. Each triangle's CSG material tag carries through to
// the resulting Face, so a caller can still tell which solid a triangle came
// from after the buffer has been flattened into a mesh.
func (s *BufferSink) ToMesh(name string) *models.Mesh {
	m := models.NewMesh(name)
	m.Vertices = make([]models.MeshVertex, 0, len(s.Triangles)*3)
	m.Faces = make([]models.Face, 0, len(s.Triangles))
	for _, t := range s.Triangles {
		n := t.Normal
		if n == (math3d.Vec3{}) {
			n = t.FaceNormal()
		}
		base := len(m.Vertices)
		for _, p := range t.Positions {
			m.Vertices = append(m.Vertices, models.MeshVertex{Position: p, Normal: n})
		}
		m.Faces = append(m.Faces, models.Face{V: [3]int{base, base + 1, base + 2}, Material: t.Material})
	}
	m.CalculateBounds()
	return m
}
