// Package geom defines the axis-aligned bounds consumed by the spatial bins.
package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Bounds2 is a 2D axis-aligned rectangle.
type Bounds2 struct {
	Min mgl32.Vec2 `json:"min"`
	Max mgl32.Vec2 `json:"max"`
}

func NewBounds2(min, max mgl32.Vec2) Bounds2 {
	return Bounds2{Min: min, Max: max}
}

// Bounds2FromCenter returns the bounds centered on center with the given
// half-extents.
func Bounds2FromCenter(center, extents mgl32.Vec2) Bounds2 {
	return Bounds2{
		Min: center.Sub(extents),
		Max: center.Add(extents),
	}
}

func (b Bounds2) Center() mgl32.Vec2 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Bounds2) Size() mgl32.Vec2 {
	return b.Max.Sub(b.Min)
}

// Extents returns the half-size of the bounds.
func (b Bounds2) Extents() mgl32.Vec2 {
	return b.Size().Mul(0.5)
}

// Intersects reports whether b and o overlap. Touching edges count as an
// overlap.
func (b Bounds2) Intersects(o Bounds2) bool {
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[1] <= o.Max[1] && b.Max[1] >= o.Min[1]
}

func (b Bounds2) Contains(p mgl32.Vec2) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1]
}

func (b Bounds2) Translate(offset mgl32.Vec2) Bounds2 {
	return Bounds2{
		Min: b.Min.Add(offset),
		Max: b.Max.Add(offset),
	}
}

// Bounds3 is a 3D axis-aligned box.
type Bounds3 struct {
	Min mgl32.Vec3 `json:"min"`
	Max mgl32.Vec3 `json:"max"`
}

func NewBounds3(min, max mgl32.Vec3) Bounds3 {
	return Bounds3{Min: min, Max: max}
}

// Bounds3FromCenter returns the bounds centered on center with the given
// half-extents.
func Bounds3FromCenter(center, extents mgl32.Vec3) Bounds3 {
	return Bounds3{
		Min: center.Sub(extents),
		Max: center.Add(extents),
	}
}

func (b Bounds3) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Bounds3) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Extents returns the half-size of the bounds.
func (b Bounds3) Extents() mgl32.Vec3 {
	return b.Size().Mul(0.5)
}

// Intersects reports whether b and o overlap. Touching faces count as an
// overlap.
func (b Bounds3) Intersects(o Bounds3) bool {
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[1] <= o.Max[1] && b.Max[1] >= o.Min[1] &&
		b.Min[2] <= o.Max[2] && b.Max[2] >= o.Min[2]
}

func (b Bounds3) Contains(p mgl32.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

func (b Bounds3) Translate(offset mgl32.Vec3) Bounds3 {
	return Bounds3{
		Min: b.Min.Add(offset),
		Max: b.Max.Add(offset),
	}
}

// IsValid reports whether every Min component is lower or equal to the
// matching Max component. NaN components are invalid.
func (b Bounds3) IsValid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}
