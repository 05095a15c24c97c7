package geom

import "math"

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min Vec
	Max Vec
}

// EmptyBounds returns bounds that contain nothing; extending them with a
// point yields that point.
func EmptyBounds() Bounds {
	return Bounds{
		Min: Vec{math.Inf(1), math.Inf(1)},
		Max: Vec{math.Inf(-1), math.Inf(-1)},
	}
}

// BoundsOf returns the bounds of a point set.
func BoundsOf(points []Vec) Bounds {
	b := EmptyBounds()
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

// IsEmpty reports whether no point has been added.
func (b Bounds) IsEmpty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y()
}

// Extend returns the smallest bounds containing b and p.
func (b Bounds) Extend(p Vec) Bounds {
	return Bounds{
		Min: Vec{math.Min(b.Min.X(), p.X()), math.Min(b.Min.Y(), p.Y())},
		Max: Vec{math.Max(b.Max.X(), p.X()), math.Max(b.Max.Y(), p.Y())},
	}
}

// Union returns the smallest bounds containing both.
func (b Bounds) Union(other Bounds) Bounds {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}
	return b.Extend(other.Min).Extend(other.Max)
}

// Contains checks if a point is inside the bounds.
func (b Bounds) Contains(p Vec) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y()
}

// Center returns the center point of the bounds.
func (b Bounds) Center() Vec {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns width and height.
func (b Bounds) Size() (float64, float64) {
	if b.IsEmpty() {
		return 0, 0
	}
	return b.Max.X() - b.Min.X(), b.Max.Y() - b.Min.Y()
}
