// Package geom holds the small amount of 2D math the editor needs on top of
// mathgl: vectors, axis-aligned bounds, pivot transforms and segment distance.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec is a 2D point or displacement in world units.
type Vec = mgl64.Vec2

// V is shorthand for constructing a Vec.
func V(x, y float64) Vec {
	return Vec{x, y}
}

// Rotate rotates v about the origin by radians.
func Rotate(v Vec, radians float64) Vec {
	return mgl64.Rotate2D(radians).Mul2x1(v)
}

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return mgl64.DegToRad(degrees)
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return mgl64.RadToDeg(radians)
}

// DistToSegment returns the distance from p to the segment v-w using a
// projection clamped to the segment.
func DistToSegment(p, v, w Vec) float64 {
	seg := w.Sub(v)
	l2 := seg.LenSqr()
	if l2 == 0 {
		return p.Sub(v).Len()
	}
	t := p.Sub(v).Dot(seg) / l2
	t = math.Max(0, math.Min(1, t))
	projected := v.Add(seg.Mul(t))
	return p.Sub(projected).Len()
}

// Near reports whether a and b are within tolerance of each other.
func Near(a, b Vec, tolerance float64) bool {
	return a.Sub(b).Len() < tolerance
}

// ApproxEqual reports whether a and b are within tolerance, absolutely.
func ApproxEqual(a, b Vec, tolerance float64) bool {
	return a.Sub(b).Len() <= tolerance
}
