package models_test

import (
	"testing"

	"github.com/wrenfield/isocarve/pkg/math3d"
	"github.com/wrenfield/isocarve/pkg/meshsink"
)

// TestToMeshPropagatesMaterial confirms a triangle's CSG material tag
// survives being flattened into a mesh's faces, so a downstream consumer
// (the CLI's material histogram, WriteOBJ's usemtl groups) can still
// tell which solid a triangle came from.
func TestToMeshPropagatesMaterial(t *testing.T) {
	sink := meshsink.NewBufferSink()
	sink.AppendTriangle(meshsink.Triangle{
		Positions: [3]math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)},
		Material:  3,
	})
	sink.AppendTriangle(meshsink.Triangle{
		Positions: [3]math3d.Vec3{math3d.V3(0, 0, 1), math3d.V3(1, 0, 1), math3d.V3(0, 1, 1)},
		Material:  5,
	})

	mesh := sink.ToMesh("material-test")
	if len(mesh.Faces) != 2 {
		t.Fatalf("got %d faces, want 2", len(mesh.Faces))
	}
	if mesh.Faces[0].Material != 3 {
		t.Errorf("face 0 material = %d, want 3", mesh.Faces[0].Material)
	}
	if mesh.Faces[1].Material != 5 {
		t.Errorf("face 1 material = %d, want 5", mesh.Faces[1].Material)
	}
}

// TestToMeshDefaultMaterialIsZero confirms an untagged triangle keeps the
// zero-valued material rather than inheriting some prior triangle's tag.
func TestToMeshDefaultMaterialIsZero(t *testing.T) {
	sink := meshsink.NewBufferSink()
	sink.AppendTriangle(meshsink.Triangle{
		Positions: [3]math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)},
	})

	mesh := sink.ToMesh("untagged")
	if got := mesh.Faces[0].Material; got != 0 {
		t.Errorf("untagged face material = %d, want 0", got)
	}
}
