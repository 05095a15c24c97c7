// Package transform moves, turns and resizes whole containers. Rotation
// and scale are absolute: each container remembers the last angle and
// scale applied so a request only applies the difference.
package transform

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/scene"
)

var ErrInvalidScale = errors.New("scale must be positive")

type Transformer struct {
	engine *physics.Engine
}

func New(engine *physics.Engine) *Transformer {
	return &Transformer{engine: engine}
}

// Translate moves every body in c by (dx, dy). It reports false when c owns
// no bodies.
func (t *Transformer) Translate(c *scene.Container, dx, dy float64) bool {
	bodies := c.AllBodies()
	if len(bodies) == 0 {
		return false
	}
	if dx == 0 && dy == 0 {
		return true
	}

	resume := t.engine.Suspend()
	defer resume()
	t.engine.Translate(bodies, geom.V(dx, dy))
	return true
}

// Rotate turns c to an absolute angle in degrees about the centre of its
// bounds. It reports false when c owns no bodies.
func (t *Transformer) Rotate(c *scene.Container, degrees float64) bool {
	bodies := c.AllBodies()
	if len(bodies) == 0 {
		return false
	}
	target := geom.Radians(degrees)
	delta := target - c.Transform.Angle
	if delta != 0 {
		resume := t.engine.Suspend()
		defer resume()
		t.engine.Rotate(bodies, delta, Pivot(bodies))
	}
	c.Transform.Angle = target
	slog.Debug("container rotated", "container", c.ID, "degrees", degrees, "delta", delta)
	return true
}

// Scale resizes c to an absolute factor about the centre of its bounds.
// Constraint rest lengths and anchors are scaled with the bodies. It
// reports false when c owns no bodies.
func (t *Transformer) Scale(c *scene.Container, factor float64) (bool, error) {
	if factor <= 0 {
		return false, fmt.Errorf("%w: %v", ErrInvalidScale, factor)
	}
	bodies := c.AllBodies()
	if len(bodies) == 0 {
		return false, nil
	}
	current := c.Transform.Scale
	if current <= 0 {
		current = 1
	}
	f := factor / current
	if f != 1 {
		resume := t.engine.Suspend()
		defer resume()
		if err := t.engine.Scale(bodies, f, Pivot(bodies)); err != nil {
			return false, fmt.Errorf("scale container %s: %w", c.ID, err)
		}
		for _, k := range c.AllConstraints() {
			t.engine.UpdateConstraint(k, func(k *physics.Constraint) {
				k.Length *= f
				k.PointA = k.PointA.Mul(f)
				k.PointB = k.PointB.Mul(f)
			})
		}
	}
	c.Transform.Scale = factor
	slog.Debug("container scaled", "container", c.ID, "factor", factor, "relative", f)
	return true, nil
}

// Pivot returns the centre of the bounds of every vertex of bodies.
func Pivot(bodies []*physics.Body) geom.Vec {
	b := geom.EmptyBounds()
	for _, body := range bodies {
		b = b.Union(body.Bounds())
	}
	return b.Center()
}
