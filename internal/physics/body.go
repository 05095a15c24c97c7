// Package physics adapts the Chipmunk2D solver to the editor's primitives.
// Bodies and constraints are plain values owned by the scene graph; the
// engine builds solver objects for them while they are attached and copies
// the simulated transform back after every step.
package physics

import (
	"math"

	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/typeid"
)

// Item is anything a container can own directly: a *Body or a *Constraint.
type Item interface {
	ItemID() string
	item()
}

// Filter is the collision filter triple. Bodies sharing a negative group
// never collide; otherwise a pair collides when each category is in the
// other's mask.
type Filter struct {
	Group    int
	Category uint32
	Mask     uint32
}

func DefaultFilter() Filter {
	return Filter{Group: 0, Category: 1, Mask: math.MaxUint32}
}

const (
	DefaultDensity        = 0.001
	DefaultFriction       = 0.1
	DefaultFrictionStatic = 0.5
	DefaultFrictionAir    = 0.01
)

type Body struct {
	ID             string
	Label          string
	Shape          Shape
	Position       geom.Vec
	Angle          float64
	Static         bool
	Density        float64
	Friction       float64
	FrictionStatic float64
	FrictionAir    float64
	Restitution    float64
	Filter         Filter
	Fill           string

	// Parts[0] is the body itself. A compound carries its merged bodies in
	// Parts[1:].
	Parts []*Body

	velocity        geom.Vec
	angularVelocity float64

	// Placement of a part inside its compound, in the shell frame.
	offset      geom.Vec
	angleOffset float64

	handle *handle
}

// NewBody creates a simple body with default material properties.
func NewBody(shape Shape, position geom.Vec) *Body {
	b := &Body{
		ID:             typeid.NewBodyID(),
		Label:          labelFor(shape.Kind),
		Shape:          shape,
		Position:       position,
		Density:        DefaultDensity,
		Friction:       DefaultFriction,
		FrictionStatic: DefaultFrictionStatic,
		FrictionAir:    DefaultFrictionAir,
		Filter:         DefaultFilter(),
	}
	b.Parts = []*Body{b}
	return b
}

func NewCircle(position geom.Vec, radius float64) *Body {
	return NewBody(Circle(radius), position)
}

func NewRectangle(position geom.Vec, width, height float64) *Body {
	return NewBody(Rectangle(width, height), position)
}

func NewPolygon(position geom.Vec, sides int, radius float64) *Body {
	return NewBody(Polygon(sides, radius), position)
}

func labelFor(kind ShapeKind) string {
	switch kind {
	case ShapeCircle:
		return "Circle Body"
	case ShapeRectangle:
		return "Rectangle Body"
	case ShapePolygon:
		return "Polygon Body"
	case ShapeCompound:
		return "Compound Body"
	}
	return "Body"
}

func (b *Body) ItemID() string { return b.ID }
func (b *Body) item()          {}

// IsCompound reports whether the body was assembled from other bodies.
func (b *Body) IsCompound() bool {
	return len(b.Parts) > 1
}

// Velocity returns the last simulated linear velocity.
func (b *Body) Velocity() geom.Vec {
	return b.velocity
}

// Area sums part areas for compounds.
func (b *Body) Area() float64 {
	if b.IsCompound() {
		var area float64
		for _, p := range b.Parts[1:] {
			area += p.Area()
		}
		return area
	}
	return b.Shape.Area()
}

// Vertices returns the world-space outline. For a compound this is the
// concatenation of every part's outline.
func (b *Body) Vertices() []geom.Vec {
	if b.IsCompound() {
		var verts []geom.Vec
		for _, p := range b.Parts[1:] {
			verts = append(verts, p.Vertices()...)
		}
		return verts
	}
	m := geom.RotateAbout(b.Angle, geom.V(0, 0)).Then(geom.Translate(b.Position))
	return m.ApplyAll(b.Shape.LocalVertices())
}

// Bounds returns the axis-aligned bounds of the world outline.
func (b *Body) Bounds() geom.Bounds {
	return geom.BoundsOf(b.Vertices())
}

// WorldPoint converts a body-local anchor to world space.
func (b *Body) WorldPoint(local geom.Vec) geom.Vec {
	return b.Position.Add(geom.Rotate(local, b.Angle))
}

// Clone returns a detached copy with the same id and properties. Compound
// parts are cloned too.
func (b *Body) Clone() *Body {
	c := *b
	c.handle = nil
	c.Parts = []*Body{&c}
	for _, p := range b.Parts[1:] {
		c.Parts = append(c.Parts, p.Clone())
	}
	return &c
}

// material is the part of a body its solver shapes are built from.
type material struct {
	density, friction, frictionStatic, restitution float64
	filter                                         Filter
}

func (b *Body) material() material {
	return material{
		density:        b.Density,
		friction:       b.Friction,
		frictionStatic: b.FrictionStatic,
		restitution:    b.Restitution,
		filter:         b.Filter,
	}
}

// spreadMaterial copies onto every part each shell field that changed since
// before. Fields left alone keep the parts' own values.
func (b *Body) spreadMaterial(before material) {
	now := b.material()
	if now == before {
		return
	}
	for _, p := range b.Parts[1:] {
		if now.density != before.density {
			p.Density = now.density
		}
		if now.friction != before.friction {
			p.Friction = now.friction
		}
		if now.frictionStatic != before.frictionStatic {
			p.FrictionStatic = now.frictionStatic
		}
		if now.restitution != before.restitution {
			p.Restitution = now.restitution
		}
		if now.filter.Group != before.filter.Group {
			p.Filter.Group = now.filter.Group
		}
		if now.filter.Category != before.filter.Category {
			p.Filter.Category = now.filter.Category
		}
		if now.filter.Mask != before.filter.Mask {
			p.Filter.Mask = now.filter.Mask
		}
	}
}

// syncParts places every part at the shell's current transform.
func (b *Body) syncParts() {
	for _, p := range b.Parts[1:] {
		p.Position = b.Position.Add(geom.Rotate(p.offset, b.Angle))
		p.Angle = b.Angle + p.angleOffset
		p.velocity = b.velocity
		p.angularVelocity = b.angularVelocity
	}
}

// scale multiplies shape dimensions, and part placement for compounds.
func (b *Body) scale(f float64) {
	b.Shape = b.Shape.Scaled(f)
	for _, p := range b.Parts[1:] {
		p.Shape = p.Shape.Scaled(f)
		p.offset = p.offset.Mul(f)
	}
	b.syncParts()
}
