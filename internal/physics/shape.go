package physics

import (
	"fmt"
	"math"

	"github.com/rigkit/rigkit/internal/geom"
)

type ShapeKind string

const (
	ShapeCircle    ShapeKind = "circle"
	ShapeRectangle ShapeKind = "rectangle"
	ShapePolygon   ShapeKind = "polygon"
	// ShapeCompound marks a compound shell; its geometry lives in its parts.
	ShapeCompound ShapeKind = "compound"
)

// circleSegments is the vertex count used when a circle is drawn or bounded.
const circleSegments = 24

// Shape describes body geometry in the body's local frame, centred on the
// body position.
type Shape struct {
	Kind   ShapeKind
	Radius float64 // circle, polygon
	Width  float64 // rectangle
	Height float64 // rectangle
	Sides  int     // polygon
}

func Circle(radius float64) Shape {
	return Shape{Kind: ShapeCircle, Radius: radius}
}

func Rectangle(width, height float64) Shape {
	return Shape{Kind: ShapeRectangle, Width: width, Height: height}
}

func Polygon(sides int, radius float64) Shape {
	return Shape{Kind: ShapePolygon, Sides: sides, Radius: radius}
}

// Validate checks that the shape can be built.
func (s Shape) Validate() error {
	switch s.Kind {
	case ShapeCircle:
		if s.Radius <= 0 {
			return fmt.Errorf("%w: circle radius %v", ErrInvalidShape, s.Radius)
		}
	case ShapeRectangle:
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("%w: rectangle %vx%v", ErrInvalidShape, s.Width, s.Height)
		}
	case ShapePolygon:
		if s.Sides < 3 || s.Radius <= 0 {
			return fmt.Errorf("%w: polygon sides=%d radius=%v", ErrInvalidShape, s.Sides, s.Radius)
		}
	case ShapeCompound:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidShape, s.Kind)
	}
	return nil
}

// Scaled returns the shape with every dimension multiplied by f.
func (s Shape) Scaled(f float64) Shape {
	s.Radius *= f
	s.Width *= f
	s.Height *= f
	return s
}

// Area returns the shape's area.
func (s Shape) Area() float64 {
	switch s.Kind {
	case ShapeCircle:
		return math.Pi * s.Radius * s.Radius
	case ShapeRectangle:
		return s.Width * s.Height
	case ShapePolygon:
		n := float64(s.Sides)
		return 0.5 * n * s.Radius * s.Radius * math.Sin(2*math.Pi/n)
	}
	return 0
}

// LocalVertices returns the outline in the local frame. Circles are
// approximated.
func (s Shape) LocalVertices() []geom.Vec {
	switch s.Kind {
	case ShapeCircle:
		return ring(circleSegments, s.Radius, 0)
	case ShapeRectangle:
		hw, hh := s.Width/2, s.Height/2
		return []geom.Vec{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	case ShapePolygon:
		theta := 2 * math.Pi / float64(s.Sides)
		return ring(s.Sides, s.Radius, theta/2)
	}
	return nil
}

func ring(n int, radius, offset float64) []geom.Vec {
	verts := make([]geom.Vec, n)
	theta := 2 * math.Pi / float64(n)
	for i := range verts {
		a := offset + float64(i)*theta
		verts[i] = geom.V(radius*math.Cos(a), radius*math.Sin(a))
	}
	return verts
}
