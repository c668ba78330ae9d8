package math3d

import (
	"testing"
)

// These mirror the vector operations that actually run hot in the
// contouring engine: Normalize and Cross for per-triangle face normals
// (pkg/meshsink), Dot for QEF plane accumulation (pkg/qef), and Lerp for
// root-finding along a grid edge (pkg/sample).

func BenchmarkVec3Normalize(b *testing.B) {
	v := V3(1, 2, 3)

	for b.Loop() {
		_ = v.Normalize()
	}
}

func BenchmarkVec3Cross(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	for b.Loop() {
		_ = v1.Cross(v2)
	}
}

func BenchmarkVec3Dot(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	for b.Loop() {
		_ = v1.Dot(v2)
	}
}

func BenchmarkVec3Lerp(b *testing.B) {
	v1 := V3(1, 2, 3)
	v2 := V3(4, 5, 6)

	for b.Loop() {
		_ = v1.Lerp(v2, 0.37)
	}
}
