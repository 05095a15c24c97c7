package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rigkit/rigkit/internal/compound"
	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/scene"
	"github.com/rigkit/rigkit/internal/selection"
	"github.com/rigkit/rigkit/internal/snapshot"
	"github.com/rigkit/rigkit/internal/transform"
	"github.com/rigkit/rigkit/internal/typeid"
)

// Body kinds offered by AddBody.
const (
	KindCircle    = "circle"
	KindRectangle = "rectangle"
	KindTriangle  = "triangle"
)

// deletion is a delete waiting for the user to confirm it. Exactly one of
// item and container is set.
type deletion struct {
	id        string
	item      physics.Item
	container *scene.Container
}

func (d *deletion) request() ConfirmRequest {
	what := "composite"
	switch d.item.(type) {
	case *physics.Body:
		what = "object"
	case *physics.Constraint:
		what = "constraint"
	}
	return ConfirmRequest{ID: d.id, Prompt: fmt.Sprintf("You are about to delete this %s.", what)}
}

// AddBody drops a new body of the given kind near the top of the viewport
// with a random fill colour.
func (e *Editor) AddBody(kind string) {
	pos := geom.V(e.opts.Width*(0.4+e.rng.Float64()*0.2), 100)
	var b *physics.Body
	switch kind {
	case KindCircle:
		b = physics.NewCircle(pos, 30)
	case KindRectangle:
		b = physics.NewRectangle(pos, 50, 80)
	case KindTriangle:
		b = physics.NewPolygon(pos, 3, 40)
	default:
		e.fail("Unknown object type %q.", kind)
		return
	}
	b.Fill = fmt.Sprintf("#%06x", e.rng.IntN(0x1000000))
	if err := e.graph.AddBody(e.graph.World, b); err != nil {
		e.fail("Could not add object: %v", err)
		return
	}
	slog.Debug("body added", "body", b.ID, "kind", kind)
}

// AddContainer creates an empty container named "New Composite N".
func (e *Editor) AddContainer() {
	c := e.graph.CreateContainer("")
	e.notify(SeveritySuccess, "%s created.", c.Label)
}

// RequestDelete asks for confirmation to delete the selected item, or the
// picked container when no item is selected.
func (e *Editor) RequestDelete() {
	d := &deletion{id: typeid.New("del")}
	if item := selection.SelectedItem(e.selection.State()); item != nil {
		d.item = item
	} else if e.container != nil {
		d.container = e.container
	} else {
		e.fail("Nothing selected to delete.")
		return
	}
	e.pending = d
	e.sink.Confirm(d.request())
}

// ConfirmDelete answers the pending confirmation. Stale or unknown ids are
// ignored.
func (e *Editor) ConfirmDelete(id string, ok bool) {
	d := e.pending
	if d == nil || d.id != id {
		return
	}
	e.pending = nil
	if !ok {
		return
	}

	if d.container != nil {
		if err := e.graph.RemoveContainer(d.container, true); err != nil {
			e.fail("Could not delete composite: %v", err)
			return
		}
		e.compounds.Prune()
		e.Deselect()
		e.notify(SeveritySuccess, "Composite %s deleted.", d.container.Label)
		return
	}
	if err := e.graph.RemoveItem(d.item); err != nil {
		e.fail("Could not delete item: %v", err)
		return
	}
	e.compounds.Prune()
	e.selection.Forget(d.item)
	e.Deselect()
	e.notify(SeveritySuccess, "%s deleted.", itemKind(d.item))
}

// RemoveFromContainer moves the selected item out of its user container
// into World.
func (e *Editor) RemoveFromContainer() {
	item := selection.SelectedItem(e.selection.State())
	if item == nil {
		e.fail("No object or constraint selected to remove.")
		return
	}
	owner := e.graph.FindOwner(item)
	if !e.graph.IsUserContainer(owner) {
		e.fail("Item is not in a user-created composite.")
		return
	}
	if _, err := e.graph.MoveItem(item, owner, e.graph.World); err != nil {
		e.fail("Could not remove item: %v", err)
		return
	}
	e.Deselect()
	e.notify(SeveritySuccess, "%s removed from composite.", itemKind(item))
}

// AssignToContainer moves the selected item into the container with
// targetID.
func (e *Editor) AssignToContainer(targetID string) {
	item := selection.SelectedItem(e.selection.State())
	if item == nil {
		e.fail("No object or constraint selected.")
		return
	}
	if targetID == "" || targetID == "none" {
		e.notify(SeverityInfo, "Please select a composite to assign to.")
		return
	}
	target := e.graph.ContainerByID(targetID)
	owner := e.graph.FindOwner(item)
	if target == nil || owner == nil {
		e.fail("Could not determine parent or target composite.")
		return
	}
	from := directOwner(owner, item)
	moved, err := e.graph.MoveItem(item, from, target)
	if err != nil {
		e.fail("Could not assign item: %v", err)
		return
	}
	if !moved {
		e.notify(SeverityInfo, "Item is already in the selected composite.")
		return
	}
	e.Deselect()
	e.notify(SeveritySuccess, "%s assigned to composite.", itemKind(item))
}

// CreateCompound merges the bodies of the multi-selection.
func (e *Editor) CreateCompound() {
	var bodies []*physics.Body
	if g, ok := e.selection.State().(selection.MultiGroup); ok {
		bodies = g.Bodies()
	}
	if len(bodies) < 2 {
		e.fail("Select at least two bodies to create a compound body.")
		return
	}
	shell, err := e.compounds.Create(bodies)
	switch {
	case errors.Is(err, compound.ErrOwnerMismatch):
		e.fail("All selected bodies must be in the same container to be combined.")
		return
	case errors.Is(err, compound.ErrNotTracked):
		e.fail("Could not determine a common container for the selected bodies.")
		return
	case errors.Is(err, physics.ErrNestedCompound):
		e.fail("Compound bodies cannot be merged again. Break them apart first.")
		return
	case err != nil:
		e.fail("Could not create compound body: %v", err)
		return
	}
	for _, b := range bodies {
		e.selection.Forget(b)
	}
	e.Deselect()
	e.notify(SeveritySuccess, "Compound body created with ID %s.", shell.ID)
}

// BreakCompound splits the selected compound into its parts.
func (e *Editor) BreakCompound() {
	b := selection.SelectedBody(e.selection.State())
	if b == nil || !b.IsCompound() {
		e.fail("No compound body selected to break apart.")
		return
	}
	if _, err := e.compounds.Break(b); err != nil {
		e.fail("Could not break compound body: %v", err)
		return
	}
	e.selection.Forget(b)
	e.Deselect()
	e.notify(SeveritySuccess, "Compound body %s broken apart.", b.ID)
}

// TranslateContainer moves the active container by (dx, dy).
func (e *Editor) TranslateContainer(dx, dy float64) {
	c := e.requireContainer()
	if c == nil {
		return
	}
	if !e.transformer.Translate(c, dx, dy) {
		e.reportEmpty(c)
	}
}

// RotateContainer sets the active container's absolute angle in degrees.
func (e *Editor) RotateContainer(degrees float64) {
	c := e.requireContainer()
	if c == nil {
		return
	}
	if !e.transformer.Rotate(c, degrees) {
		e.reportEmpty(c)
	}
}

// ScaleContainer sets the active container's absolute scale.
func (e *Editor) ScaleContainer(factor float64) {
	c := e.requireContainer()
	if c == nil {
		return
	}
	scaled, err := e.transformer.Scale(c, factor)
	switch {
	case errors.Is(err, transform.ErrInvalidScale):
		e.fail("Scale must be greater than zero.")
	case err != nil:
		e.fail("Could not scale composite: %v", err)
	case !scaled:
		e.reportEmpty(c)
	}
}

// reportEmpty tells the user a transform had nothing to move. Transforms
// that were no-ops for other reasons stay silent.
func (e *Editor) reportEmpty(c *scene.Container) {
	if len(c.AllBodies()) == 0 {
		e.notify(SeverityInfo, "Composite %s has no bodies to transform.", c.Label)
	}
}

// RenameContainer relabels the active container.
func (e *Editor) RenameContainer(label string) {
	c := e.requireContainer()
	if c == nil {
		return
	}
	c.Label = label
}

// SaveContainer encodes the active container and returns the snapshot
// text, or "" on failure.
func (e *Editor) SaveContainer(format string) string {
	c := e.Container()
	if c == nil {
		e.fail("No composite selected to save.")
		return ""
	}
	f, err := snapshot.ParseFormat(format)
	if err != nil {
		e.fail("Unknown snapshot format %q.", format)
		return ""
	}
	data, err := e.serializer.Save(c, f)
	if err != nil {
		slog.Error("failed to serialize container", "container", c.ID, "error", err)
		e.fail("Failed to serialize composite.")
		return ""
	}
	e.notify(SeveritySuccess, "Composite %s saved.", c.Label)
	return string(data)
}

// LoadContainer restores a snapshot as a new container under fresh ids.
func (e *Editor) LoadContainer(text, format string) {
	if strings.TrimSpace(text) == "" {
		e.notify(SeverityInfo, "Text area is empty. Nothing to load.")
		return
	}
	f, err := snapshot.ParseFormat(format)
	if err != nil {
		e.fail("Unknown snapshot format %q.", format)
		return
	}
	c, err := e.serializer.Load([]byte(text), f)
	if err != nil {
		slog.Warn("failed to load container", "format", f, "error", err)
		if f == snapshot.FormatYAML {
			e.fail("Invalid YAML document. Please check the format.")
		} else {
			e.fail("Invalid JSON string. Please check the format.")
		}
		return
	}
	slog.Debug("container loaded", "container", c.ID, "label", c.Label)
	e.notify(SeveritySuccess, "Composite loaded successfully!")
}

func (e *Editor) requireContainer() *scene.Container {
	c := e.Container()
	if c == nil {
		e.fail("No composite selected.")
	}
	return c
}

// directOwner finds the container in top's subtree that holds item
// directly.
func directOwner(top *scene.Container, item physics.Item) *scene.Container {
	for _, c := range top.AllContainers() {
		if c.Has(item) {
			return c
		}
	}
	return top
}

func itemKind(item physics.Item) string {
	if _, ok := item.(*physics.Constraint); ok {
		return "Constraint"
	}
	return "Body"
}
