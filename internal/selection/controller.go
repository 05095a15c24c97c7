// Package selection turns pointer input into a selection: hit testing,
// cycling through stacked candidates, shift-click groups, and the
// secondary-click gesture that authors constraints.
package selection

import (
	"log/slog"
	"slices"

	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/scene"
)

type Options struct {
	// ClickTolerance is how close a click must be to the previous one to
	// cycle to the next candidate.
	ClickTolerance float64
	// ConstraintTolerance is the hit distance for constraint segments.
	ConstraintTolerance float64
	Stiffness           float64
	Damping             float64
}

func DefaultOptions() Options {
	return Options{
		ClickTolerance:      5,
		ConstraintTolerance: 10,
		Stiffness:           physics.DefaultStiffness,
		Damping:             physics.DefaultDamping,
	}
}

type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// PointerEvent is a pointer-down from the presentation layer. Ctrl on a
// secondary click anchors the constraint at the click point instead of the
// body centre.
type PointerEvent struct {
	Position geom.Vec
	Button   Button
	Shift    bool
	Ctrl     bool
}

type Controller struct {
	graph *scene.Graph
	opts  Options
	state State

	pendingBodies  []*physics.Body
	pendingAnchors []geom.Vec

	lastClick      geom.Vec
	hasLastClick   bool
	candidateIndex int
}

func New(graph *scene.Graph, opts Options) *Controller {
	return &Controller{
		graph: graph,
		opts:  opts,
		state: None{},
	}
}

// State returns the current selection.
func (c *Controller) State() State {
	return c.state
}

// Set replaces the current selection.
func (c *Controller) Set(s State) {
	if s == nil {
		s = None{}
	}
	c.state = s
}

// Deselect clears the selection and the constraint staging buffers. Click
// cycling state is kept.
func (c *Controller) Deselect() {
	c.state = None{}
	c.pendingBodies = nil
	c.pendingAnchors = nil
}

// Pending returns the bodies staged for a new constraint.
func (c *Controller) Pending() []*physics.Body {
	return c.pendingBodies
}

// CandidateIndex returns the position of the last resolved candidate.
func (c *Controller) CandidateIndex() int {
	return c.candidateIndex
}

// Candidates returns everything under p: bodies containing it, World
// bodies first, then constraints whose centre-to-centre segment passes
// within the constraint tolerance.
func (c *Controller) Candidates(p geom.Vec) []physics.Item {
	var out []physics.Item
	for _, b := range c.graph.Engine().QueryPoint(c.graph.AllBodies(), p) {
		out = append(out, b)
	}
	for _, k := range c.graph.AllConstraints() {
		if geom.DistToSegment(p, k.BodyA.Position, k.BodyB.Position) < c.opts.ConstraintTolerance {
			out = append(out, k)
		}
	}
	return out
}

// PointerDown handles a click. A secondary click that completes a pair
// returns the new constraint, already owned by World.
func (c *Controller) PointerDown(ev PointerEvent) (*physics.Constraint, error) {
	if ev.Button == ButtonSecondary {
		return c.stage(ev)
	}
	c.primary(ev)
	return nil, nil
}

func (c *Controller) primary(ev PointerEvent) {
	sameSpot := c.hasLastClick && geom.Near(ev.Position, c.lastClick, c.opts.ClickTolerance)
	c.lastClick = ev.Position
	c.hasLastClick = true

	candidates := c.Candidates(ev.Position)
	if len(candidates) == 0 {
		c.candidateIndex = 0
		if !ev.Shift {
			c.Deselect()
		}
		return
	}

	if sameSpot {
		c.candidateIndex = (c.candidateIndex + 1) % len(candidates)
	} else {
		c.candidateIndex = 0
	}
	item := candidates[c.candidateIndex]

	if ev.Shift {
		c.toggle(item)
		return
	}
	c.Deselect()
	c.state = c.resolve(item)
	slog.Debug("selected", "item", item.ItemID(), "mode", c.state.Mode(), "candidate", c.candidateIndex, "of", len(candidates))
}

func (c *Controller) resolve(item physics.Item) State {
	if owner := c.graph.FindOwner(item); c.graph.IsUserContainer(owner) {
		return CompositeChild{Item: item, Owner: owner}
	}
	switch v := item.(type) {
	case *physics.Body:
		return SingleBody{Body: v}
	case *physics.Constraint:
		return SingleConstraint{Constraint: v}
	}
	return None{}
}

// toggle flips item's membership in the group. A single selection seeds
// the group so click-then-shift-click stages both items.
func (c *Controller) toggle(item physics.Item) {
	var items []physics.Item
	switch v := c.state.(type) {
	case MultiGroup:
		items = slices.Clone(v.Items)
	default:
		if seed := SelectedItem(v); seed != nil {
			items = []physics.Item{seed}
		}
	}

	if i := slices.Index(items, item); i >= 0 {
		items = slices.Delete(items, i, i+1)
	} else {
		items = append(items, item)
	}

	if len(items) == 0 {
		c.state = None{}
		return
	}
	c.state = MultiGroup{Items: items}
}

func (c *Controller) stage(ev PointerEvent) (*physics.Constraint, error) {
	hits := c.graph.Engine().QueryPoint(c.graph.AllBodies(), ev.Position)
	if len(hits) == 0 {
		return nil, nil
	}
	body := hits[0]

	if i := slices.Index(c.pendingBodies, body); i >= 0 {
		c.pendingBodies = slices.Delete(c.pendingBodies, i, i+1)
		c.pendingAnchors = slices.Delete(c.pendingAnchors, i, i+1)
		return nil, nil
	}
	if len(c.pendingBodies) >= 2 {
		return nil, nil
	}

	anchor := geom.Vec{}
	if ev.Ctrl {
		anchor = geom.Rotate(ev.Position.Sub(body.Position), -body.Angle)
	}
	c.pendingBodies = append(c.pendingBodies, body)
	c.pendingAnchors = append(c.pendingAnchors, anchor)
	if len(c.pendingBodies) < 2 {
		return nil, nil
	}

	k := physics.NewConstraint(c.pendingBodies[0], c.pendingBodies[1], c.pendingAnchors[0], c.pendingAnchors[1])
	k.Stiffness = c.opts.Stiffness
	k.Damping = c.opts.Damping
	c.pendingBodies = nil
	c.pendingAnchors = nil
	if err := c.graph.AddConstraint(c.graph.World, k); err != nil {
		return nil, err
	}
	return k, nil
}

// CanMerge reports whether the group holds at least two bodies.
func (c *Controller) CanMerge() bool {
	g, ok := c.state.(MultiGroup)
	return ok && len(g.Bodies()) >= 2
}

// CanSplit reports whether the single selected body is a compound.
func (c *Controller) CanSplit() bool {
	b := SelectedBody(c.state)
	return b != nil && b.IsCompound()
}

// Forget drops every reference to item, for use after it is deleted or
// absorbed.
func (c *Controller) Forget(item physics.Item) {
	switch v := c.state.(type) {
	case MultiGroup:
		if i := slices.Index(v.Items, item); i >= 0 {
			items := slices.Delete(slices.Clone(v.Items), i, i+1)
			if len(items) == 0 {
				c.state = None{}
			} else {
				c.state = MultiGroup{Items: items}
			}
		}
	default:
		if SelectedItem(v) == item {
			c.state = None{}
		}
	}
	if b, ok := item.(*physics.Body); ok {
		if i := slices.Index(c.pendingBodies, b); i >= 0 {
			c.pendingBodies = slices.Delete(c.pendingBodies, i, i+1)
			c.pendingAnchors = slices.Delete(c.pendingAnchors, i, i+1)
		}
	}
}
