package physics

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/rigkit/rigkit/internal/geom"
)

// minDensity keeps dynamic bodies from ending up massless.
const minDensity = 1e-9

type handle struct {
	body   *cp.Body
	shapes []*cp.Shape
}

func toCP(v geom.Vec) cp.Vector {
	return cp.Vector{X: v.X(), Y: v.Y()}
}

func fromCP(v cp.Vector) geom.Vec {
	return geom.V(v.X, v.Y)
}

func toShapeFilter(f Filter) cp.ShapeFilter {
	group := cp.NO_GROUP
	if f.Group < 0 {
		group = uint(-f.Group)
	}
	return cp.NewShapeFilter(group, uint(f.Category), uint(f.Mask))
}

// build creates the solver body and shapes for b. The transform is set
// before shapes are added so static shapes are indexed in place; shapes are
// added before their density is set so the body accumulates mass from them.
func (e *Engine) build(b *Body) {
	var body *cp.Body
	if b.Static {
		body = cp.NewStaticBody()
	} else {
		body = cp.NewBody(0, 0)
	}
	// SetAngle keeps the centre of gravity fixed, so position goes last.
	body.SetAngle(b.Angle)
	body.SetPosition(toCP(b.Position))
	e.space.AddBody(body)

	h := &handle{body: body}
	if b.IsCompound() {
		for _, p := range b.Parts[1:] {
			local := geom.RotateAbout(p.angleOffset, geom.V(0, 0)).Then(geom.Translate(p.offset))
			h.shapes = append(h.shapes, e.addShape(body, p, local))
		}
	} else {
		h.shapes = append(h.shapes, e.addShape(body, b, geom.Identity()))
	}

	if !b.Static {
		body.SetVelocityVector(toCP(b.velocity))
		body.SetAngularVelocity(b.angularVelocity)
		body.SetVelocityUpdateFunc(e.airDrag(b.FrictionAir))
	}
	b.handle = h
}

func (e *Engine) addShape(body *cp.Body, src *Body, local geom.Affine) *cp.Shape {
	var shape *cp.Shape
	if src.Shape.Kind == ShapeCircle {
		shape = cp.NewCircle(body, src.Shape.Radius, toCP(local.Apply(geom.V(0, 0))))
	} else {
		verts := local.ApplyAll(src.Shape.LocalVertices())
		cverts := make([]cp.Vector, len(verts))
		for i, v := range verts {
			cverts[i] = toCP(v)
		}
		shape = cp.NewPolyShape(body, len(cverts), cverts, cp.NewTransformIdentity(), 0)
	}
	e.space.AddShape(shape)
	shape.SetDensity(math.Max(src.Density, minDensity))
	shape.SetFriction(math.Max(src.Friction, 0))
	shape.SetElasticity(math.Max(src.Restitution, 0))
	shape.SetFilter(toShapeFilter(src.Filter))
	return shape
}

// airDrag converts a per-tick velocity loss into the solver's per-second
// damping.
func (e *Engine) airDrag(frictionAir float64) cp.BodyVelocityFunc {
	loss := math.Min(math.Max(frictionAir, 0), 1)
	rate := e.cfg.StepRate
	if rate <= 0 {
		rate = 60
	}
	retain := math.Pow(1-loss, rate)
	return func(body *cp.Body, gravity cp.Vector, damping, dt float64) {
		cp.BodyUpdateVelocity(body, gravity, damping*retain, dt)
	}
}

func (e *Engine) teardown(b *Body) {
	if b.handle == nil {
		return
	}
	e.pull(b)
	for _, s := range b.handle.shapes {
		e.space.RemoveShape(s)
	}
	e.space.RemoveBody(b.handle.body)
	b.handle = nil
}

// pull copies the simulated transform back onto b.
func (e *Engine) pull(b *Body) {
	if b.handle == nil {
		return
	}
	body := b.handle.body
	b.Position = fromCP(body.Position())
	b.Angle = body.Angle()
	b.velocity = fromCP(body.Velocity())
	b.angularVelocity = body.AngularVelocity()
	b.syncParts()
}

// activate creates c's spring when both endpoints are attached, distinct,
// and at least one of them can move.
func (e *Engine) activate(c *Constraint) {
	if c.spring != nil || !e.Tracks(c) {
		return
	}
	a, b := c.BodyA, c.BodyB
	if a == nil || b == nil || a == b || a.handle == nil || b.handle == nil {
		return
	}
	if a.Static && b.Static {
		return
	}
	c.spring = cp.NewDampedSpring(a.handle.body, b.handle.body,
		toCP(c.PointA), toCP(c.PointB), c.Length,
		c.Stiffness*e.cfg.SpringStiffnessScale,
		c.Damping*e.cfg.SpringDampingScale)
	e.space.AddConstraint(c.spring)
}

func (e *Engine) deactivate(c *Constraint) {
	if c.spring == nil {
		return
	}
	e.space.RemoveConstraint(c.spring)
	c.spring = nil
}
