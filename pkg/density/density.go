// Package density implements the CSG density algebra: pure scalar fields
// over 3-space whose zero-level set is the surface handed to the contouring
// engine. A field is "inside" where Eval < 0 and "outside" where Eval >= 0.
package density

import "github.com/wrenfield/isocarve/pkg/math3d"

// EmptyMaterial is the reserved tag for points outside every tagged solid.
const EmptyMaterial = 0

// Field is a pure scalar field f: R^3 -> R. Implementations must be total,
// finite everywhere they are sampled, and referentially transparent for the
// lifetime of one extraction pass.
type Field interface {
	Eval(p math3d.Vec3) float64
}

// FieldFunc adapts a plain function to the Field interface.
type FieldFunc func(p math3d.Vec3) float64

// Eval implements Field.
func (f FieldFunc) Eval(p math3d.Vec3) float64 { return f(p) }

// Materialed is implemented by fields that can report a material tag at a
// point in addition to their density. Every combinator in this package
// implements it; untagged primitives report MaterialSolid (1) wherever they
// are evaluated, so only EmptyMaterial (0) ever means "no material".
type Materialed interface {
	Field
	Material(p math3d.Vec3) int
}

// MaterialSolid is the default tag reported by an untagged primitive.
const MaterialSolid = 1

// MaterialOf reports the material of f at p, defaulting to MaterialSolid for
// fields that do not implement Materialed.
func MaterialOf(f Field, p math3d.Vec3) int {
	if m, ok := f.(Materialed); ok {
		return m.Material(p)
	}
	return MaterialSolid
}

// Sample is a single evaluation of a field: a position, its density, and
// (if the field is Materialed) the dominant material at that position.
type Sample struct {
	Position math3d.Vec3
	Density  float64
	Material int
}

// Evaluate samples f (and its material, if any) at p.
func Evaluate(f Field, p math3d.Vec3) Sample {
	return Sample{Position: p, Density: f.Eval(p), Material: MaterialOf(f, p)}
}

// Bounds is an axis-aligned bounding box passed by the caller to delimit the
// region of space the engine samples.
type Bounds struct {
	Min, Max math3d.Vec3
}

// Size returns the per-axis extent of the bounds.
func (b Bounds) Size() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// Tag wraps a field, overriding the material it reports to a fixed id.
// Combinators propagate the tag of whichever operand determines their value,
// so tagging the leaves of a CSG tree is enough to color the whole result.
type Tag struct {
	Field
	ID int
}

// Material implements Materialed, always returning the fixed tag.
func (t Tag) Material(math3d.Vec3) int { return t.ID }

// TagFunc wraps a field with a position-dependent material function, for
// solids whose tag varies over their volume (e.g. noise-driven terrain
// strata).
type TagFunc struct {
	Field
	Fn func(p math3d.Vec3) int
}

// Material implements Materialed.
func (t TagFunc) Material(p math3d.Vec3) int { return t.Fn(p) }
