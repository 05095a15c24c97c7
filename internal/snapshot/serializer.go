// Package snapshot saves a container subtree to a portable description and
// restores it under fresh ids.
package snapshot

import (
	"fmt"
	"log/slog"

	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/scene"
	"github.com/rigkit/rigkit/internal/typeid"
)

// genericLabel is the label a container gets when nobody named it.
const genericLabel = "Composite"

type Serializer struct {
	graph *scene.Graph
}

func New(graph *scene.Graph) *Serializer {
	return &Serializer{graph: graph}
}

// Serialize describes c, its nested containers, and the bodies outside c
// that its constraints reference.
func (s *Serializer) Serialize(c *scene.Container) *Snapshot {
	snap := describeContainer(c)
	snap.Version = Version

	inside := make(map[*physics.Body]bool)
	for _, b := range c.AllBodies() {
		inside[b] = true
		for _, p := range b.Parts[1:] {
			inside[p] = true
		}
	}
	for _, k := range c.AllConstraints() {
		for _, b := range []*physics.Body{k.BodyA, k.BodyB} {
			if !inside[b] {
				inside[b] = true
				snap.Detached = append(snap.Detached, describeDetached(b))
			}
		}
	}
	return snap
}

// Save serializes c and encodes it.
func (s *Serializer) Save(c *scene.Container, format Format) ([]byte, error) {
	data, err := Marshal(s.Serialize(c), format)
	if err != nil {
		return nil, fmt.Errorf("save container %s: %w", c.ID, err)
	}
	return data, nil
}

// Load decodes data and restores it. Stepping is suspended for the whole
// call and resumed whatever the outcome.
func (s *Serializer) Load(data []byte, format Format) (*scene.Container, error) {
	resume := s.graph.Engine().Suspend()
	defer resume()

	snap, err := Unmarshal(data, format)
	if err != nil {
		return nil, err
	}
	return s.Restore(snap)
}

// Restore rebuilds snap under new ids and attaches it under the master
// container. Detached bodies are rebuilt but stay outside the scene, so
// constraints pointing at them are not simulated. On error the graph is
// left untouched.
func (s *Serializer) Restore(snap *Snapshot) (*scene.Container, error) {
	resume := s.graph.Engine().Suspend()
	defer resume()

	r := &rebuilder{bodies: make(map[string]*physics.Body)}
	for i := range snap.Detached {
		if _, err := r.body(&snap.Detached[i]); err != nil {
			return nil, err
		}
	}
	c, err := r.container(snap)
	if err != nil {
		return nil, err
	}
	if err := r.link(snap, c); err != nil {
		return nil, err
	}

	if c.Label == "" || c.Label == genericLabel {
		c.Label = fmt.Sprintf("Loaded Composite %d", len(s.graph.Containers())+1)
	}
	c.ResetTransform()

	if err := s.graph.AttachContainer(c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	// Rebuild every body's solver shapes from its restored filters. A
	// compound's shapes come from its parts, so each part gets its own.
	engine := s.graph.Engine()
	for _, b := range c.AllBodies() {
		engine.Update(b, func(b *physics.Body) {
			for _, p := range b.Parts {
				p.Filter = r.filters[p]
			}
		})
	}

	bodies, constraints := snap.Counts()
	slog.Info("container restored", "container", c.ID, "label", c.Label, "bodies", bodies, "constraints", constraints)
	return c, nil
}

func describeContainer(c *scene.Container) *Snapshot {
	snap := &Snapshot{
		ID:          c.ID,
		Label:       c.Label,
		Angle:       c.Transform.Angle,
		Scale:       c.Transform.Scale,
		Bodies:      make([]Body, 0, len(c.Bodies)),
		Constraints: make([]Constraint, 0, len(c.Constraints)),
	}
	for _, b := range c.Bodies {
		snap.Bodies = append(snap.Bodies, describeBody(b))
	}
	for _, k := range c.Constraints {
		snap.Constraints = append(snap.Constraints, Constraint{
			ID:        k.ID,
			Label:     k.Label,
			BodyA:     k.BodyA.ID,
			BodyB:     k.BodyB.ID,
			PointA:    k.PointA,
			PointB:    k.PointB,
			Length:    k.Length,
			Stiffness: k.Stiffness,
			Damping:   k.Damping,
		})
	}
	for _, sub := range c.Composites {
		snap.Composites = append(snap.Composites, *describeContainer(sub))
	}
	return snap
}

func describeBody(b *physics.Body) Body {
	out := Body{
		ID:    b.ID,
		Label: b.Label,
		Shape: Shape{
			Kind:   string(b.Shape.Kind),
			Radius: b.Shape.Radius,
			Width:  b.Shape.Width,
			Height: b.Shape.Height,
			Sides:  b.Shape.Sides,
		},
		Position:       b.Position,
		Angle:          b.Angle,
		Static:         b.Static,
		Density:        b.Density,
		Friction:       b.Friction,
		FrictionStatic: b.FrictionStatic,
		FrictionAir:    b.FrictionAir,
		Restitution:    b.Restitution,
		Filter: Filter{
			Group:    b.Filter.Group,
			Category: b.Filter.Category,
			Mask:     b.Filter.Mask,
		},
		Fill: b.Fill,
	}
	for _, p := range b.Parts[1:] {
		out.Parts = append(out.Parts, describeBody(p))
	}
	return out
}

// describeDetached describes a body outside the subtree. Compound parts lose
// their ids: a shell left behind by a break still lists bodies that now live
// in the subtree on their own.
func describeDetached(b *physics.Body) Body {
	out := describeBody(b)
	for i := range out.Parts {
		out.Parts[i].ID = ""
	}
	return out
}

// rebuilder builds fresh primitives from a snapshot, remembering which new
// body replaced each old id.
type rebuilder struct {
	bodies  map[string]*physics.Body
	filters map[*physics.Body]physics.Filter
}

func (r *rebuilder) container(snap *Snapshot) (*scene.Container, error) {
	c := scene.NewContainer(snap.Label)
	for i := range snap.Bodies {
		b, err := r.body(&snap.Bodies[i])
		if err != nil {
			return nil, err
		}
		c.Bodies = append(c.Bodies, b)
	}
	for i := range snap.Composites {
		sub, err := r.container(&snap.Composites[i])
		if err != nil {
			return nil, err
		}
		c.Composites = append(c.Composites, sub)
	}
	return c, nil
}

func (r *rebuilder) body(in *Body) (*physics.Body, error) {
	if in.ID != "" {
		if _, dup := r.bodies[in.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate body id %q", ErrMalformedSnapshot, in.ID)
		}
	}

	kind := physics.ShapeKind(in.Shape.Kind)
	var b *physics.Body
	if kind == physics.ShapeCompound {
		if len(in.Parts) < 2 {
			return nil, fmt.Errorf("%w: compound %q has %d parts", ErrMalformedSnapshot, in.ID, len(in.Parts))
		}
		parts := make([]*physics.Body, 0, len(in.Parts))
		for i := range in.Parts {
			if physics.ShapeKind(in.Parts[i].Shape.Kind) == physics.ShapeCompound {
				return nil, fmt.Errorf("%w: nested compound in %q", ErrMalformedSnapshot, in.ID)
			}
			p, err := r.body(&in.Parts[i])
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
		shell, err := physics.NewCompound(parts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}
		b = shell
	} else {
		if len(in.Parts) > 0 {
			return nil, fmt.Errorf("%w: %s body %q has parts", ErrMalformedSnapshot, kind, in.ID)
		}
		shape := physics.Shape{
			Kind:   kind,
			Radius: in.Shape.Radius,
			Width:  in.Shape.Width,
			Height: in.Shape.Height,
			Sides:  in.Shape.Sides,
		}
		if err := shape.Validate(); err != nil {
			return nil, fmt.Errorf("%w: body %q: %v", ErrMalformedSnapshot, in.ID, err)
		}
		b = physics.NewBody(shape, in.Position)
		b.Angle = in.Angle
	}

	b.ID = typeid.NewBodyID()
	b.Label = in.Label
	b.Static = in.Static
	b.Density = in.Density
	b.Friction = in.Friction
	b.FrictionStatic = in.FrictionStatic
	b.FrictionAir = in.FrictionAir
	b.Restitution = in.Restitution
	b.Fill = in.Fill
	b.Filter = physics.Filter{
		Group:    in.Filter.Group,
		Category: in.Filter.Category,
		Mask:     in.Filter.Mask,
	}

	if r.filters == nil {
		r.filters = make(map[*physics.Body]physics.Filter)
	}
	r.filters[b] = b.Filter
	if in.ID != "" {
		r.bodies[in.ID] = b
	}
	return b, nil
}

// link rebuilds constraints once every body is known.
func (r *rebuilder) link(snap *Snapshot, c *scene.Container) error {
	for _, in := range snap.Constraints {
		a, okA := r.bodies[in.BodyA]
		b, okB := r.bodies[in.BodyB]
		if !okA || !okB {
			return fmt.Errorf("%w: constraint %q references unknown body", ErrMalformedSnapshot, in.ID)
		}
		k := physics.NewConstraint(a, b, in.PointA, in.PointB)
		k.ID = typeid.NewConstraintID()
		k.Label = in.Label
		k.Length = in.Length
		k.Stiffness = in.Stiffness
		k.Damping = in.Damping
		c.Constraints = append(c.Constraints, k)
	}
	for i := range snap.Composites {
		if err := r.link(&snap.Composites[i], c.Composites[i]); err != nil {
			return err
		}
	}
	return nil
}
