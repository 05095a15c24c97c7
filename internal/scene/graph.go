// Package scene keeps the ownership hierarchy of the editor: the World
// root for freestanding primitives, and the master root that owns every
// user container.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/rigkit/rigkit/internal/physics"
)

var (
	ErrContainerNotEmpty = errors.New("container is not empty")
	ErrUnknownContainer  = errors.New("container not found")
	ErrNotOwned          = errors.New("item not owned by container")
	ErrRootContainer     = errors.New("root containers cannot be changed this way")
	ErrAlreadyOwned      = errors.New("item already has an owner")
)

// Graph is the container hierarchy plus the engine its primitives live in.
type Graph struct {
	engine *physics.Engine
	World  *Container
	Master *Container

	created int
}

// NewGraph creates an empty hierarchy over engine.
func NewGraph(engine *physics.Engine) *Graph {
	world := NewContainer("World")
	master := NewContainer("Master")
	return &Graph{
		engine: engine,
		World:  world,
		Master: master,
	}
}

// Engine returns the engine the graph's primitives are attached to.
func (g *Graph) Engine() *physics.Engine {
	return g.engine
}

// CreateContainer adds a new empty container under the master root. An
// empty label becomes "New Composite N".
func (g *Graph) CreateContainer(label string) *Container {
	g.created++
	if label == "" {
		label = fmt.Sprintf("New Composite %d", g.created)
	}
	c := NewContainer(label)
	g.Master.Composites = append(g.Master.Composites, c)
	slog.Debug("container created", "container", c.ID, "label", label)
	return c
}

// AttachContainer puts an already built subtree under the master root and
// attaches everything it owns to the engine.
func (g *Graph) AttachContainer(c *Container) error {
	if g.isRoot(c) {
		return ErrRootContainer
	}
	if slices.Contains(g.Master.Composites, c) {
		return fmt.Errorf("%w: %s", ErrAlreadyOwned, c.ID)
	}
	var attached []*physics.Body
	for _, b := range c.AllBodies() {
		if err := g.engine.AddBody(b); err != nil {
			for _, done := range attached {
				_ = g.engine.RemoveBody(done)
			}
			return fmt.Errorf("attach container %s: %w", c.ID, err)
		}
		attached = append(attached, b)
	}
	for _, k := range c.AllConstraints() {
		g.engine.AddConstraint(k)
	}
	g.Master.Composites = append(g.Master.Composites, c)
	return nil
}

// RemoveContainer detaches c from the master root. With cascade every
// body and constraint it owns leaves the engine; without cascade c must
// already be drained.
func (g *Graph) RemoveContainer(c *Container, cascade bool) error {
	if g.isRoot(c) {
		return ErrRootContainer
	}
	if !slices.Contains(g.Master.Composites, c) {
		return fmt.Errorf("%w: %s", ErrUnknownContainer, c.ID)
	}
	if !cascade && !c.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrContainerNotEmpty, c.ID)
	}
	if cascade {
		for _, k := range c.AllConstraints() {
			g.engine.RemoveConstraint(k)
		}
		for _, b := range c.AllBodies() {
			if g.engine.Attached(b) {
				if err := g.engine.RemoveBody(b); err != nil {
					return fmt.Errorf("remove container %s: %w", c.ID, err)
				}
			}
		}
	}
	g.Master.removeComposite(c)
	slog.Debug("container removed", "container", c.ID, "cascade", cascade)
	return nil
}

// FindOwner returns the container that owns item: World when it owns item
// directly, otherwise the top-level user container whose subtree holds it.
// It returns nil for untracked items.
func (g *Graph) FindOwner(item physics.Item) *Container {
	if g.World.Has(item) {
		return g.World
	}
	for _, c := range g.Master.Composites {
		if c.Owns(item) {
			return c
		}
	}
	return nil
}

// IsUserContainer reports whether c is neither root.
func (g *Graph) IsUserContainer(c *Container) bool {
	return c != nil && !g.isRoot(c)
}

// MoveItem transfers ownership of item from one container to another. It
// never touches the item's physical state. Moving to the same container
// reports false.
func (g *Graph) MoveItem(item physics.Item, from, to *Container) (bool, error) {
	if from == to {
		return false, nil
	}
	if to == g.Master {
		return false, ErrRootContainer
	}
	if !from.remove(item) {
		return false, fmt.Errorf("%w: %s in %s", ErrNotOwned, item.ItemID(), from.ID)
	}
	to.add(item)
	return true, nil
}

// AddBody gives c ownership of b and attaches it to the engine.
func (g *Graph) AddBody(c *Container, b *physics.Body) error {
	if c == g.Master {
		return ErrRootContainer
	}
	if owner := g.FindOwner(b); owner != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyOwned, b.ID)
	}
	if err := g.engine.AddBody(b); err != nil {
		return err
	}
	c.add(b)
	return nil
}

// AddConstraint gives c ownership of k and hands it to the engine.
func (g *Graph) AddConstraint(c *Container, k *physics.Constraint) error {
	if c == g.Master {
		return ErrRootContainer
	}
	if owner := g.FindOwner(k); owner != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyOwned, k.ID)
	}
	g.engine.AddConstraint(k)
	c.add(k)
	return nil
}

// RemoveItem drops item from its owner and from the engine.
func (g *Graph) RemoveItem(item physics.Item) error {
	owner := g.FindOwner(item)
	if owner == nil {
		return fmt.Errorf("%w: %s", ErrNotOwned, item.ItemID())
	}
	switch v := item.(type) {
	case *physics.Body:
		if g.engine.Attached(v) {
			if err := g.engine.RemoveBody(v); err != nil {
				return err
			}
		}
	case *physics.Constraint:
		g.engine.RemoveConstraint(v)
	}
	owner.remove(item)
	return nil
}

// Containers returns the live list of top-level user containers.
func (g *Graph) Containers() []*Container {
	return g.Master.Composites
}

// ContainerByID finds a user container anywhere under the master root.
func (g *Graph) ContainerByID(id string) *Container {
	for _, top := range g.Master.Composites {
		for _, c := range top.AllContainers() {
			if c.ID == id {
				return c
			}
		}
	}
	return nil
}

// AllBodies returns World's bodies followed by every user container's.
func (g *Graph) AllBodies() []*physics.Body {
	return append(g.World.AllBodies(), g.Master.AllBodies()...)
}

// AllConstraints returns World's constraints followed by every user
// container's.
func (g *Graph) AllConstraints() []*physics.Constraint {
	return append(g.World.AllConstraints(), g.Master.AllConstraints()...)
}

// BodyByID looks up a tracked body.
func (g *Graph) BodyByID(id string) *physics.Body {
	for _, b := range g.AllBodies() {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// ConstraintByID looks up a tracked constraint.
func (g *Graph) ConstraintByID(id string) *physics.Constraint {
	for _, k := range g.AllConstraints() {
		if k.ID == id {
			return k
		}
	}
	return nil
}

func (g *Graph) isRoot(c *Container) bool {
	return c == g.World || c == g.Master
}
