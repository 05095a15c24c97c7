package physics

import (
	"fmt"
	"log/slog"

	"github.com/jakecoffman/cp"

	"github.com/rigkit/rigkit/internal/geom"
)

// Config holds solver settings.
type Config struct {
	Gravity    geom.Vec
	Iterations int
	// Spring coefficients are stored in editor units (stiffness 0.01,
	// damping 0.05) and multiplied by these scales for the solver.
	SpringStiffnessScale float64
	SpringDampingScale   float64
	// StepRate is the tick rate FrictionAir is expressed against.
	StepRate float64
}

func DefaultConfig() Config {
	return Config{
		Gravity:              geom.V(0, 1000),
		Iterations:           10,
		SpringStiffnessScale: 1000,
		SpringDampingScale:   100,
		StepRate:             60,
	}
}

// Engine owns the Chipmunk space and the solver objects for every attached
// body and tracked constraint. It is not safe for concurrent use.
type Engine struct {
	cfg         Config
	space       *cp.Space
	bodies      map[*Body]struct{}
	constraints map[*Constraint]struct{}
	suspended   int
	paused      bool
	steps       uint64
}

func NewEngine(cfg Config) *Engine {
	space := cp.NewSpace()
	space.SetGravity(toCP(cfg.Gravity))
	if cfg.Iterations > 0 {
		space.Iterations = uint(cfg.Iterations)
	}
	return &Engine{
		cfg:         cfg,
		space:       space,
		bodies:      make(map[*Body]struct{}),
		constraints: make(map[*Constraint]struct{}),
	}
}

// AddBody attaches b to the simulation and activates any tracked
// constraint whose endpoints are now both attached.
func (e *Engine) AddBody(b *Body) error {
	if _, ok := e.bodies[b]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyAttached, b.ID)
	}
	if err := b.Shape.Validate(); err != nil {
		return fmt.Errorf("add body %s: %w", b.ID, err)
	}
	for _, p := range b.Parts[1:] {
		if err := p.Shape.Validate(); err != nil {
			return fmt.Errorf("add body %s part %s: %w", b.ID, p.ID, err)
		}
	}
	e.build(b)
	e.bodies[b] = struct{}{}
	e.activateFor(b)
	return nil
}

// RemoveBody detaches b. Constraints that reference it stay tracked but
// stop being simulated.
func (e *Engine) RemoveBody(b *Body) error {
	if _, ok := e.bodies[b]; !ok {
		return fmt.Errorf("%w: %s", ErrNotAttached, b.ID)
	}
	e.deactivateFor(b)
	e.teardown(b)
	delete(e.bodies, b)
	return nil
}

// Attached reports whether b is part of the simulation.
func (e *Engine) Attached(b *Body) bool {
	_, ok := e.bodies[b]
	return ok
}

// AddConstraint tracks c. It is simulated while both endpoints are
// attached.
func (e *Engine) AddConstraint(c *Constraint) {
	e.constraints[c] = struct{}{}
	e.activate(c)
}

func (e *Engine) RemoveConstraint(c *Constraint) {
	e.deactivate(c)
	delete(e.constraints, c)
}

// Tracks reports whether c has been added and not removed.
func (e *Engine) Tracks(c *Constraint) bool {
	_, ok := e.constraints[c]
	return ok
}

// Active reports whether c is currently simulated.
func (e *Engine) Active(c *Constraint) bool {
	return c.spring != nil
}

// Update applies fn to b and rebuilds its solver objects. Material and
// filter edits on a compound reach every part, since the parts' shapes are
// what the solver collides.
func (e *Engine) Update(b *Body, fn func(*Body)) {
	e.pull(b)
	before := b.material()
	fn(b)
	b.spreadMaterial(before)
	b.syncParts()
	e.rebuild(b)
}

// UpdateConstraint applies fn to c and rebuilds its spring.
func (e *Engine) UpdateConstraint(c *Constraint, fn func(*Constraint)) {
	fn(c)
	e.RefreshConstraint(c)
}

// RefreshConstraint rebuilds c's spring from its current fields and
// endpoints.
func (e *Engine) RefreshConstraint(c *Constraint) {
	if !e.Tracks(c) {
		return
	}
	e.deactivate(c)
	e.activate(c)
}

// Suspend stops stepping until the returned func is called. Suspensions
// nest; the returned func is safe to call more than once.
func (e *Engine) Suspend() func() {
	e.suspended++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		e.suspended--
	}
}

// Suspended reports whether a multi-step mutation is in progress.
func (e *Engine) Suspended() bool {
	return e.suspended > 0
}

// Pause stops the clock until Resume.
func (e *Engine) Pause()  { e.paused = true }
func (e *Engine) Resume() { e.paused = false }

// Paused reports whether Step is currently a no-op.
func (e *Engine) Paused() bool {
	return e.paused || e.suspended > 0
}

// Gravity returns the current gravity vector.
func (e *Engine) Gravity() geom.Vec {
	return e.cfg.Gravity
}

// SetGravity changes gravity for every following step.
func (e *Engine) SetGravity(g geom.Vec) {
	e.cfg.Gravity = g
	e.space.SetGravity(toCP(g))
}

// Steps returns the number of steps taken.
func (e *Engine) Steps() uint64 {
	return e.steps
}

// Step advances the simulation by dt seconds and copies the results back
// onto the attached bodies. It reports whether a step was taken.
func (e *Engine) Step(dt float64) bool {
	if e.Paused() || dt <= 0 {
		return false
	}
	e.space.Step(dt)
	for b := range e.bodies {
		e.pull(b)
	}
	e.steps++
	return true
}

// Translate moves every body by delta.
func (e *Engine) Translate(bodies []*Body, delta geom.Vec) {
	for _, b := range bodies {
		e.Update(b, func(b *Body) {
			b.Position = b.Position.Add(delta)
		})
	}
}

// Rotate turns every body by radians about pivot.
func (e *Engine) Rotate(bodies []*Body, radians float64, pivot geom.Vec) {
	m := geom.RotateAbout(radians, pivot)
	for _, b := range bodies {
		e.Update(b, func(b *Body) {
			b.Position = m.Apply(b.Position)
			b.Angle += radians
		})
	}
}

// Scale resizes every body by factor about pivot. Constraint anchors are
// not touched.
func (e *Engine) Scale(bodies []*Body, factor float64, pivot geom.Vec) error {
	if factor <= 0 {
		return fmt.Errorf("%w: scale %v", ErrInvalidProperty, factor)
	}
	m := geom.ScaleAbout(factor, pivot)
	for _, b := range bodies {
		e.Update(b, func(b *Body) {
			b.Position = m.Apply(b.Position)
			b.scale(factor)
		})
	}
	return nil
}

// Contains reports whether p lies inside b.
func (e *Engine) Contains(b *Body, p geom.Vec) bool {
	if b.handle != nil {
		for _, s := range b.handle.shapes {
			s.CacheBB()
			if s.PointQuery(toCP(p)).Distance <= 0 {
				return true
			}
		}
		return false
	}
	return containsDetached(b, p)
}

// QueryPoint returns the bodies containing p, in the order given.
func (e *Engine) QueryPoint(bodies []*Body, p geom.Vec) []*Body {
	var hits []*Body
	for _, b := range bodies {
		if e.Contains(b, p) {
			hits = append(hits, b)
		}
	}
	return hits
}

func (e *Engine) rebuild(b *Body) {
	if !e.Attached(b) {
		return
	}
	e.deactivateFor(b)
	e.teardown(b)
	e.build(b)
	e.activateFor(b)
	slog.Debug("rebuilt body", "body", b.ID)
}

func (e *Engine) activateFor(b *Body) {
	for c := range e.constraints {
		if c.Touches(b) {
			e.activate(c)
		}
	}
}

func (e *Engine) deactivateFor(b *Body) {
	for c := range e.constraints {
		if c.Touches(b) {
			e.deactivate(c)
		}
	}
}

func containsDetached(b *Body, p geom.Vec) bool {
	if b.IsCompound() {
		for _, part := range b.Parts[1:] {
			if containsDetached(part, p) {
				return true
			}
		}
		return false
	}
	if b.Shape.Kind == ShapeCircle {
		return p.Sub(b.Position).Len() <= b.Shape.Radius
	}
	return convexContains(b.Vertices(), p)
}

func convexContains(verts []geom.Vec, p geom.Vec) bool {
	if len(verts) < 3 {
		return false
	}
	var sign float64
	for i, a := range verts {
		c := verts[(i+1)%len(verts)]
		edge := c.Sub(a)
		rel := p.Sub(a)
		cross := edge.X()*rel.Y() - edge.Y()*rel.X()
		if cross == 0 {
			continue
		}
		if sign == 0 {
			sign = cross
		} else if (cross > 0) != (sign > 0) {
			return false
		}
	}
	return true
}
