package scene

import (
	"slices"

	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/typeid"
)

// TransformState records the last absolute angle (radians) and scale
// applied to a container as a whole.
type TransformState struct {
	Angle float64
	Scale float64
}

func DefaultTransform() TransformState {
	return TransformState{Angle: 0, Scale: 1}
}

// Container owns bodies, constraints and nested containers.
type Container struct {
	ID          string
	Label       string
	Bodies      []*physics.Body
	Constraints []*physics.Constraint
	Composites  []*Container
	Transform   TransformState
}

// NewContainer creates an empty, unattached container.
func NewContainer(label string) *Container {
	return &Container{
		ID:        typeid.NewGroupID(),
		Label:     label,
		Transform: DefaultTransform(),
	}
}

// AllBodies returns every body owned by c and its nested containers, own
// bodies first.
func (c *Container) AllBodies() []*physics.Body {
	out := slices.Clone(c.Bodies)
	for _, sub := range c.Composites {
		out = append(out, sub.AllBodies()...)
	}
	return out
}

// AllConstraints returns every constraint owned by c and its nested
// containers, own constraints first.
func (c *Container) AllConstraints() []*physics.Constraint {
	out := slices.Clone(c.Constraints)
	for _, sub := range c.Composites {
		out = append(out, sub.AllConstraints()...)
	}
	return out
}

// AllContainers returns c followed by every nested container, depth first.
func (c *Container) AllContainers() []*Container {
	out := []*Container{c}
	for _, sub := range c.Composites {
		out = append(out, sub.AllContainers()...)
	}
	return out
}

// Has reports direct ownership of item.
func (c *Container) Has(item physics.Item) bool {
	switch v := item.(type) {
	case *physics.Body:
		return slices.Contains(c.Bodies, v)
	case *physics.Constraint:
		return slices.Contains(c.Constraints, v)
	}
	return false
}

// Owns reports ownership of item by c or any nested container.
func (c *Container) Owns(item physics.Item) bool {
	if c.Has(item) {
		return true
	}
	for _, sub := range c.Composites {
		if sub.Owns(item) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether c owns nothing at all.
func (c *Container) IsEmpty() bool {
	return len(c.Bodies) == 0 && len(c.Constraints) == 0 && len(c.Composites) == 0
}

// ResetTransform clears the recorded angle and scale for c and every nested
// container.
func (c *Container) ResetTransform() {
	for _, sub := range c.AllContainers() {
		sub.Transform = DefaultTransform()
	}
}

func (c *Container) add(item physics.Item) {
	switch v := item.(type) {
	case *physics.Body:
		c.Bodies = append(c.Bodies, v)
	case *physics.Constraint:
		c.Constraints = append(c.Constraints, v)
	}
}

// remove drops item from c or the nested container that owns it.
func (c *Container) remove(item physics.Item) bool {
	switch v := item.(type) {
	case *physics.Body:
		if i := slices.Index(c.Bodies, v); i >= 0 {
			c.Bodies = slices.Delete(c.Bodies, i, i+1)
			return true
		}
	case *physics.Constraint:
		if i := slices.Index(c.Constraints, v); i >= 0 {
			c.Constraints = slices.Delete(c.Constraints, i, i+1)
			return true
		}
	}
	for _, sub := range c.Composites {
		if sub.remove(item) {
			return true
		}
	}
	return false
}

func (c *Container) removeComposite(target *Container) bool {
	if i := slices.Index(c.Composites, target); i >= 0 {
		c.Composites = slices.Delete(c.Composites, i, i+1)
		return true
	}
	return false
}
