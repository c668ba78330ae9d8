package density

import "github.com/wrenfield/isocarve/pkg/math3d"

// Union is the CSG union of two fields: min(A, B). Its material at a point
// is the material of whichever operand is lower there (the one that
// determines the combined value).
type Union struct {
	A, B Field
}

// Eval implements Field.
func (u Union) Eval(p math3d.Vec3) float64 {
	da, db := u.A.Eval(p), u.B.Eval(p)
	if da < db {
		return da
	}
	return db
}

// Material implements Materialed.
func (u Union) Material(p math3d.Vec3) int {
	if u.A.Eval(p) <= u.B.Eval(p) {
		return MaterialOf(u.A, p)
	}
	return MaterialOf(u.B, p)
}

// Intersection is the CSG intersection of two fields: max(A, B). Its
// material follows the winning (larger) operand.
type Intersection struct {
	A, B Field
}

// Eval implements Field.
func (i Intersection) Eval(p math3d.Vec3) float64 {
	da, db := i.A.Eval(p), i.B.Eval(p)
	if da > db {
		return da
	}
	return db
}

// Material implements Materialed.
func (i Intersection) Material(p math3d.Vec3) int {
	if i.A.Eval(p) >= i.B.Eval(p) {
		return MaterialOf(i.A, p)
	}
	return MaterialOf(i.B, p)
}

// Difference is the CSG subtraction A - B: max(A, -B). It always preserves
// A's material, regardless of which term wins the max.
type Difference struct {
	A, B Field
}

// Eval implements Field.
func (d Difference) Eval(p math3d.Vec3) float64 {
	da, ndb := d.A.Eval(p), -d.B.Eval(p)
	if da > ndb {
		return da
	}
	return ndb
}

// Material implements Materialed.
func (d Difference) Material(p math3d.Vec3) int {
	return MaterialOf(d.A, p)
}

// Union3 combines the given fields pairwise into a single union tree. Panics
// if fields is empty.
func Union3(fields ...Field) Field {
	if len(fields) == 0 {
		panic("density: Union3 requires at least one field")
	}
	out := fields[0]
	for _, f := range fields[1:] {
		out = Union{A: out, B: f}
	}
	return out
}
