// Package geom provides the 2D vector primitives used by the quad mapping engine.
package geom

import "math"

// Vec2 is a 2D point or displacement. It is used for destination ST
// positions, quad corners and texture UVs alike.
type Vec2 struct {
	X, Y float64
}

// V2 is a convenience function to create a Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns the sum of two vectors.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the difference of two vectors.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Scale returns the vector scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product of two vectors.
func (v Vec2) Dot(w Vec2) float64 {
	return v.X*w.X + v.Y*w.Y
}

// Perp returns v rotated a quarter turn counter-clockwise: (-y, x).
func (v Vec2) Perp() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Cross returns the scalar 2D cross product, computed as Perp(v)·w.
// A positive result means w points to the left of v in a y-up frame
// (to the right in image coordinates where y grows downward).
func (v Vec2) Cross(w Vec2) float64 {
	return v.Perp().Dot(w)
}

// LengthSq returns the squared length of the vector using the fastest
// implementation enabled for this process. See CurrentLevel.
func (v Vec2) LengthSq() float64 {
	return lengthSq(v)
}

// Lerp returns v + (w-v)*t.
func (v Vec2) Lerp(w Vec2, t float64) Vec2 {
	return Vec2{
		X: v.X + (w.X-v.X)*t,
		Y: v.Y + (w.Y-v.Y)*t,
	}
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}
