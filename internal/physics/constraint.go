package physics

import (
	"github.com/jakecoffman/cp"

	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/typeid"
)

const (
	DefaultStiffness = 0.01
	DefaultDamping   = 0.05
)

// Constraint is a damped spring between two body-local anchors.
type Constraint struct {
	ID        string
	Label     string
	BodyA     *Body
	BodyB     *Body
	PointA    geom.Vec
	PointB    geom.Vec
	Length    float64
	Stiffness float64
	Damping   float64

	spring *cp.Constraint
}

// NewConstraint joins a and b at the given local anchors. The rest length
// is the current distance between the two body centres.
func NewConstraint(a, b *Body, pointA, pointB geom.Vec) *Constraint {
	return &Constraint{
		ID:        typeid.NewConstraintID(),
		Label:     "Constraint",
		BodyA:     a,
		BodyB:     b,
		PointA:    pointA,
		PointB:    pointB,
		Length:    a.Position.Sub(b.Position).Len(),
		Stiffness: DefaultStiffness,
		Damping:   DefaultDamping,
	}
}

func (c *Constraint) ItemID() string { return c.ID }
func (c *Constraint) item()          {}

// Touches reports whether either endpoint is b.
func (c *Constraint) Touches(b *Body) bool {
	return c.BodyA == b || c.BodyB == b
}

// WorldA returns anchor A in world space.
func (c *Constraint) WorldA() geom.Vec {
	return c.BodyA.WorldPoint(c.PointA)
}

// WorldB returns anchor B in world space.
func (c *Constraint) WorldB() geom.Vec {
	return c.BodyB.WorldPoint(c.PointB)
}

// Clone returns a copy with the same id and endpoints, not simulated.
func (c *Constraint) Clone() *Constraint {
	n := *c
	n.spring = nil
	return &n
}
