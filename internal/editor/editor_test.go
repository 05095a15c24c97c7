package editor

import (
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/selection"
)

func newTestEditor(t *testing.T) (*Editor, *Queue) {
	t.Helper()
	opts := DefaultOptions()
	opts.Starter = false
	opts.Seed = 7
	q := &Queue{}
	e, err := New(opts, q)
	require.NoError(t, err)
	return e, q
}

func addCircle(t *testing.T, e *Editor, x, y float64) *physics.Body {
	t.Helper()
	b := physics.NewCircle(geom.V(x, y), 20)
	require.NoError(t, e.Graph().AddBody(e.Graph().World, b))
	return b
}

func click(e *Editor, x, y float64) {
	e.PointerDown(selection.PointerEvent{Position: geom.V(x, y)})
}

func shiftClick(e *Editor, x, y float64) {
	e.PointerDown(selection.PointerEvent{Position: geom.V(x, y), Shift: true})
}

func rightClick(e *Editor, x, y float64) {
	e.PointerDown(selection.PointerEvent{Position: geom.V(x, y), Button: selection.ButtonSecondary})
}

func TestNewWithStarterScene(t *testing.T) {
	e, err := New(DefaultOptions(), &Queue{})
	require.NoError(t, err)
	assert.Len(t, e.Graph().World.Bodies, 7)
	assert.Empty(t, e.Graph().Containers())
}

func TestAddBodyKinds(t *testing.T) {
	e, q := newTestEditor(t)
	e.AddBody(KindCircle)
	e.AddBody(KindRectangle)
	e.AddBody(KindTriangle)

	bodies := e.Graph().World.Bodies
	require.Len(t, bodies, 3)
	assert.Equal(t, physics.Circle(30), bodies[0].Shape)
	assert.Equal(t, physics.Rectangle(50, 80), bodies[1].Shape)
	assert.Equal(t, physics.Polygon(3, 40), bodies[2].Shape)

	fill := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	w := e.opts.Width
	for _, b := range bodies {
		assert.Regexp(t, fill, b.Fill)
		assert.GreaterOrEqual(t, b.Position.X(), w*0.4)
		assert.LessOrEqual(t, b.Position.X(), w*0.6)
		assert.Equal(t, 100.0, b.Position.Y())
		assert.True(t, e.Engine().Attached(b))
	}

	e.AddBody("hexagon")
	assert.Len(t, e.Graph().World.Bodies, 3)
	assert.Equal(t, SeverityError, q.Last().Severity)
}

func TestClickSelectsBody(t *testing.T) {
	e, _ := newTestEditor(t)
	b := addCircle(t, e, 100, 100)

	click(e, 100, 100)
	ui := e.UIState()
	assert.Equal(t, PanelObject, ui.Panel)
	require.NotNil(t, ui.Body)
	assert.Equal(t, b.ID, ui.Body.ID)
	assert.False(t, ui.CanMerge)
	assert.False(t, ui.CanSplit)

	var markers int
	for _, cmd := range e.DrawCommands() {
		switch cmd.Op {
		case "path":
			assert.Equal(t, strokeSelected, cmd.Stroke)
			assert.Equal(t, 4.0, cmd.StrokeWidth)
		case "marker":
			markers++
		}
	}
	assert.Equal(t, 2, markers)

	click(e, 500, 500)
	assert.Equal(t, PanelNew, e.UIState().Panel)
	assert.Nil(t, e.UIState().Body)
}

func TestHitTest(t *testing.T) {
	e, _ := newTestEditor(t)
	b := addCircle(t, e, 100, 100)
	assert.Equal(t, []string{b.ID}, e.HitTest(105, 100))
	assert.Empty(t, e.HitTest(400, 400))
}

func TestSecondaryClicksCreateConstraint(t *testing.T) {
	e, q := newTestEditor(t)
	b1 := addCircle(t, e, 100, 100)
	b2 := addCircle(t, e, 300, 100)

	rightClick(e, 100, 100)
	assert.Equal(t, []string{b1.ID}, e.UIState().Pending)
	for _, cmd := range e.DrawCommands() {
		if cmd.ObjectID == b1.ID {
			assert.Equal(t, strokePending, cmd.Stroke)
			assert.Equal(t, 3.0, cmd.StrokeWidth)
		}
	}

	rightClick(e, 300, 100)
	require.Len(t, e.Graph().World.Constraints, 1)
	k := e.Graph().World.Constraints[0]
	assert.Same(t, b1, k.BodyA)
	assert.Same(t, b2, k.BodyB)
	assert.Equal(t, SeveritySuccess, q.Last().Severity)
	assert.Empty(t, e.UIState().Pending)
}

func TestCreateAndBreakCompound(t *testing.T) {
	e, q := newTestEditor(t)
	addCircle(t, e, 100, 100)
	addCircle(t, e, 200, 100)

	click(e, 100, 100)
	shiftClick(e, 200, 100)
	ui := e.UIState()
	assert.Equal(t, PanelGroup, ui.Panel)
	assert.Len(t, ui.Group, 2)
	assert.True(t, ui.CanMerge)
	for _, cmd := range e.DrawCommands() {
		assert.Equal(t, strokeGroup, cmd.Stroke)
	}

	e.CreateCompound()
	assert.True(t, strings.HasPrefix(q.Last().Text, "Compound body created with ID"))
	require.Len(t, e.Graph().World.Bodies, 1)
	shell := e.Graph().World.Bodies[0]
	assert.True(t, shell.IsCompound())
	assert.IsType(t, selection.None{}, e.Selection())

	click(e, 100, 100)
	assert.True(t, e.UIState().CanSplit)
	var parts int
	for _, cmd := range e.DrawCommands() {
		if cmd.Op == "path" {
			parts++
			assert.Equal(t, shell.ID, cmd.ObjectID)
			assert.Equal(t, strokeCompound, cmd.Stroke)
		}
	}
	assert.Equal(t, 2, parts)

	e.BreakCompound()
	assert.Equal(t, SeveritySuccess, q.Last().Severity)
	assert.Len(t, e.Graph().World.Bodies, 2)
	assert.False(t, e.Engine().Attached(shell))
}

func TestCompoundPropertiesReachParts(t *testing.T) {
	e, _ := newTestEditor(t)
	a := addCircle(t, e, 100, 100)
	b := addCircle(t, e, 200, 100)
	click(e, 100, 100)
	shiftClick(e, 200, 100)
	e.CreateCompound()
	require.Len(t, e.Graph().World.Bodies, 1)

	click(e, 110, 100)
	require.True(t, selection.SelectedBody(e.Selection()).IsCompound())
	e.SetProperty(PropFriction, 0.7)
	e.SetProperty(PropGroup, -3)

	for _, p := range []*physics.Body{a, b} {
		assert.Equal(t, 0.7, p.Friction)
		assert.Equal(t, -3, p.Filter.Group)
	}
}

func TestCreateCompoundRejects(t *testing.T) {
	e, q := newTestEditor(t)
	addCircle(t, e, 100, 100)
	b2 := addCircle(t, e, 200, 100)

	click(e, 100, 100)
	e.CreateCompound()
	assert.Equal(t, Message{Text: "Select at least two bodies to create a compound body.", Severity: SeverityError}, q.Last())

	e.AddContainer()
	c := e.Graph().Containers()[0]
	click(e, 200, 100)
	e.AssignToContainer(c.ID)
	require.Same(t, c, e.Graph().FindOwner(b2))

	click(e, 100, 100)
	shiftClick(e, 200, 100)
	e.CreateCompound()
	assert.Equal(t, "All selected bodies must be in the same container to be combined.", q.Last().Text)
	assert.Len(t, e.Graph().World.Bodies, 1)
	assert.Len(t, c.Bodies, 1)

	e.Deselect()
	e.BreakCompound()
	assert.Equal(t, "No compound body selected to break apart.", q.Last().Text)
}

func TestAssignAndRemoveFromContainer(t *testing.T) {
	e, q := newTestEditor(t)
	b := addCircle(t, e, 100, 100)

	e.AssignToContainer("whatever")
	assert.Equal(t, "No object or constraint selected.", q.Last().Text)

	e.AddContainer()
	c := e.Graph().Containers()[0]
	assert.Equal(t, "New Composite 1", c.Label)

	click(e, 100, 100)
	e.AssignToContainer("none")
	assert.Equal(t, SeverityInfo, q.Last().Severity)

	e.AssignToContainer(c.ID)
	assert.Equal(t, Message{Text: "Body assigned to composite.", Severity: SeveritySuccess}, q.Last())
	assert.Same(t, c, e.Graph().FindOwner(b))
	assert.IsType(t, selection.None{}, e.Selection())

	click(e, 100, 100)
	assert.Equal(t, PanelCompositeChild, e.UIState().Panel)
	assert.Same(t, c, e.Container())

	e.AssignToContainer(c.ID)
	assert.Equal(t, Message{Text: "Item is already in the selected composite.", Severity: SeverityInfo}, q.Last())

	e.RemoveFromContainer()
	assert.Equal(t, "Body removed from composite.", q.Last().Text)
	assert.Same(t, e.Graph().World, e.Graph().FindOwner(b))
	assert.True(t, e.Engine().Attached(b))

	click(e, 100, 100)
	e.RemoveFromContainer()
	assert.Equal(t, "Item is not in a user-created composite.", q.Last().Text)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	e, q := newTestEditor(t)
	b := addCircle(t, e, 100, 100)

	e.RequestDelete()
	assert.Equal(t, "Nothing selected to delete.", q.Last().Text)

	click(e, 100, 100)
	e.RequestDelete()
	_, confirms := q.Drain()
	require.Len(t, confirms, 1)
	req := confirms[0]
	assert.Equal(t, "You are about to delete this object.", req.Prompt)
	assert.Equal(t, &req, e.UIState().Confirm)

	e.ConfirmDelete("del_stale", true)
	assert.Len(t, e.Graph().World.Bodies, 1)

	e.ConfirmDelete(req.ID, false)
	assert.Len(t, e.Graph().World.Bodies, 1)
	assert.Nil(t, e.UIState().Confirm)

	e.RequestDelete()
	_, confirms = q.Drain()
	require.Len(t, confirms, 1)
	e.ConfirmDelete(confirms[0].ID, true)
	assert.Empty(t, e.Graph().World.Bodies)
	assert.False(t, e.Engine().Attached(b))
	assert.IsType(t, selection.None{}, e.Selection())
}

func TestDeleteContainerCascades(t *testing.T) {
	e, q := newTestEditor(t)
	b := addCircle(t, e, 100, 100)
	e.AddContainer()
	c := e.Graph().Containers()[0]
	click(e, 100, 100)
	e.AssignToContainer(c.ID)

	e.SelectContainer(c.ID)
	assert.Equal(t, PanelComposite, e.UIState().Panel)
	e.RequestDelete()
	_, confirms := q.Drain()
	require.Len(t, confirms, 1)
	assert.Equal(t, "You are about to delete this composite.", confirms[0].Prompt)

	e.ConfirmDelete(confirms[0].ID, true)
	assert.Empty(t, e.Graph().Containers())
	assert.False(t, e.Engine().Attached(b))
	assert.Nil(t, e.Container())
}

func TestContainerTransforms(t *testing.T) {
	e, q := newTestEditor(t)
	e.TranslateContainer(10, 0)
	assert.Equal(t, "No composite selected.", q.Last().Text)

	b1 := addCircle(t, e, 100, 100)
	b2 := addCircle(t, e, 200, 100)
	e.AddContainer()
	c := e.Graph().Containers()[0]
	for _, p := range []geom.Vec{b1.Position, b2.Position} {
		click(e, p.X(), p.Y())
		e.AssignToContainer(c.ID)
	}

	e.SelectContainer(c.ID)
	e.TranslateContainer(10, 5)
	assert.True(t, geom.ApproxEqual(geom.V(110, 105), b1.Position, 1e-9))
	assert.True(t, geom.ApproxEqual(geom.V(210, 105), b2.Position, 1e-9))

	e.RotateContainer(180)
	assert.True(t, geom.ApproxEqual(geom.V(210, 105), b1.Position, 1e-6))
	assert.InDelta(t, 180, e.UIState().Container.Angle, 1e-9)

	e.ScaleContainer(0)
	assert.Equal(t, "Scale must be greater than zero.", q.Last().Text)
	e.ScaleContainer(2)
	assert.InDelta(t, 200, b1.Position.Sub(b2.Position).Len(), 1e-6)
	assert.Equal(t, 2.0, c.Transform.Scale)

	e.RenameContainer("Rig")
	assert.Equal(t, "Rig", c.Label)
	assert.Equal(t, []ContainerOption{{ID: c.ID, Label: "Rig"}}, e.UIState().Containers)

	e.SelectContainer("grp_missing")
	assert.Nil(t, e.Container())
	assert.Equal(t, SeverityError, q.Last().Severity)
}

func TestEmptyContainerTransformsNotify(t *testing.T) {
	e, q := newTestEditor(t)
	e.AddContainer()
	c := e.Graph().Containers()[0]
	e.SelectContainer(c.ID)
	want := Message{Text: "Composite " + c.Label + " has no bodies to transform.", Severity: SeverityInfo}

	e.TranslateContainer(10, 5)
	assert.Equal(t, want, q.Last())
	q.Drain()
	e.RotateContainer(90)
	assert.Equal(t, want, q.Last())
	q.Drain()
	e.ScaleContainer(2)
	assert.Equal(t, want, q.Last())
	assert.Equal(t, 1.0, c.Transform.Scale)
}

func TestDeletingCompoundDropsRewireLog(t *testing.T) {
	e, q := newTestEditor(t)
	b1 := addCircle(t, e, 100, 100)
	addCircle(t, e, 200, 100)
	anchor := addCircle(t, e, 100, 400)
	tether := physics.NewConstraint(b1, anchor, geom.Vec{}, geom.Vec{})
	require.NoError(t, e.Graph().AddConstraint(e.Graph().World, tether))

	click(e, 115, 100)
	shiftClick(e, 200, 100)
	e.CreateCompound()
	require.Equal(t, 1, e.compounds.Rewired())
	shell := tether.BodyA
	require.True(t, shell.IsCompound())

	click(e, 210, 100)
	require.Same(t, shell, selection.SelectedBody(e.Selection()))
	e.RequestDelete()
	_, confirms := q.Drain()
	require.Len(t, confirms, 1)
	e.ConfirmDelete(confirms[0].ID, true)

	assert.Nil(t, e.Graph().FindOwner(shell))
	assert.Equal(t, 0, e.compounds.Rewired())
}

func TestSaveAndLoadContainer(t *testing.T) {
	e, q := newTestEditor(t)
	assert.Empty(t, e.SaveContainer(""))
	assert.Equal(t, "No composite selected to save.", q.Last().Text)

	addCircle(t, e, 100, 100)
	e.AddContainer()
	c := e.Graph().Containers()[0]
	click(e, 100, 100)
	e.AssignToContainer(c.ID)
	e.SelectContainer(c.ID)

	for _, format := range []string{"json", "yaml"} {
		text := e.SaveContainer(format)
		require.NotEmpty(t, text, format)
		before := len(e.Graph().Containers())
		e.LoadContainer(text, format)
		assert.Equal(t, Message{Text: "Composite loaded successfully!", Severity: SeveritySuccess}, q.Last())
		require.Len(t, e.Graph().Containers(), before+1)
		loaded := e.Graph().Containers()[before]
		assert.Equal(t, c.Label, loaded.Label)
		require.Len(t, loaded.Bodies, 1)
		assert.NotEqual(t, c.Bodies[0].ID, loaded.Bodies[0].ID)
	}

	e.LoadContainer("   ", "json")
	assert.Equal(t, Message{Text: "Text area is empty. Nothing to load.", Severity: SeverityInfo}, q.Last())

	e.LoadContainer("{", "json")
	assert.Equal(t, "Invalid JSON string. Please check the format.", q.Last().Text)
	e.LoadContainer("bodies: [", "yaml")
	assert.Equal(t, "Invalid YAML document. Please check the format.", q.Last().Text)
	e.LoadContainer("{}", "toml")
	assert.Equal(t, SeverityError, q.Last().Severity)

	assert.Len(t, e.Graph().Containers(), 3)
	assert.False(t, e.Engine().Paused())
}

func TestSetBodyProperties(t *testing.T) {
	e, q := newTestEditor(t)
	b := addCircle(t, e, 100, 100)

	e.SetProperty(PropAngle, 90)
	assert.Zero(t, b.Angle, "no selection, no edit")

	click(e, 100, 100)
	e.SetProperty(PropAngle, 90)
	assert.InDelta(t, math.Pi/2, b.Angle, 1e-9)

	e.SetProperty(PropPositionX, 150)
	e.SetProperty(PropPositionY, 120)
	assert.Equal(t, geom.V(150, 120), b.Position)

	e.SetProperty(PropStatic, 1)
	assert.True(t, b.Static)
	e.SetProperty(PropFriction, 0.3)
	e.SetProperty(PropFrictionStatic, 0.7)
	e.SetProperty(PropFrictionAir, 0.02)
	e.SetProperty(PropRestitution, 0.8)
	assert.Equal(t, 0.3, b.Friction)
	assert.Equal(t, 0.7, b.FrictionStatic)
	assert.Equal(t, 0.02, b.FrictionAir)
	assert.Equal(t, 0.8, b.Restitution)

	e.SetProperty(PropGroup, -2)
	e.SetProperty(PropCategory, 2)
	e.SetProperty(PropMask, 5)
	assert.Equal(t, physics.Filter{Group: -2, Category: 2, Mask: 5}, b.Filter)

	e.SetProperty(PropDensity, 0)
	assert.Equal(t, "Density must be greater than zero.", q.Last().Text)
	assert.Equal(t, physics.DefaultDensity, b.Density)

	e.SetProperty(PropRadius, 35)
	assert.Equal(t, 35.0, b.Shape.Radius)
	e.SetProperty(PropWidth, 10)
	assert.Equal(t, SeverityError, q.Last().Severity)

	e.SetProperty("colour", 1)
	assert.Equal(t, `Unknown object property "colour".`, q.Last().Text)
}

func TestSetConstraintProperties(t *testing.T) {
	e, q := newTestEditor(t)
	addCircle(t, e, 100, 100)
	addCircle(t, e, 300, 100)
	rightClick(e, 100, 100)
	rightClick(e, 300, 100)
	k := e.Graph().World.Constraints[0]

	click(e, 200, 100)
	require.Equal(t, PanelConstraint, e.UIState().Panel)
	assert.True(t, e.UIState().Constraint.Active)

	e.SetProperty(PropStiffness, 0.2)
	e.SetProperty(PropDamping, 0.1)
	e.SetProperty(PropLength, 150)
	e.SetProperty(PropPointAX, 5)
	e.SetProperty(PropPointBY, -5)
	assert.Equal(t, 0.2, k.Stiffness)
	assert.Equal(t, 0.1, k.Damping)
	assert.Equal(t, 150.0, k.Length)
	assert.Equal(t, geom.V(5, 0), k.PointA)
	assert.Equal(t, geom.V(0, -5), k.PointB)
	assert.True(t, e.Engine().Active(k))

	e.SetProperty(PropLength, -1)
	assert.Equal(t, "Length cannot be negative.", q.Last().Text)
	assert.Equal(t, 150.0, k.Length)
}

func TestTickAndGravity(t *testing.T) {
	e, _ := newTestEditor(t)
	b := addCircle(t, e, 100, 100)

	e.Pause()
	assert.False(t, e.Tick(1.0/60))
	assert.True(t, e.UIState().Paused)
	e.Resume()

	e.SetGravity(0)
	require.True(t, e.Tick(1.0/60))
	assert.InDelta(t, 100, b.Position.Y(), 1e-9)

	e.SetGravity(1)
	require.True(t, e.Tick(1.0/60))
	assert.Greater(t, b.Position.Y(), 100.0)
}

func TestRenderJSON(t *testing.T) {
	e, _ := newTestEditor(t)
	assert.Equal(t, "[]", e.Render())

	addCircle(t, e, 100, 100)
	assert.True(t, strings.HasPrefix(e.Render(), `[{"op":"path"`))
	assert.Contains(t, e.GetUIState(), `"panel":"new"`)
}

func TestDrawHighlightsPickedContainer(t *testing.T) {
	e, _ := newTestEditor(t)
	b1 := addCircle(t, e, 100, 100)
	b2 := addCircle(t, e, 300, 100)
	c := e.Graph().CreateContainer("Rig")
	click(e, 300, 100)
	e.AssignToContainer(c.ID)
	e.SelectContainer(c.ID)

	strokes := map[string]string{}
	for _, cmd := range CompileDrawCommands(e.Graph(), e.Selection(), nil, e.Container()) {
		strokes[cmd.ObjectID] = cmd.Stroke
	}
	assert.Equal(t, strokeDefault, strokes[b1.ID])
	assert.Equal(t, strokeContainer, strokes[b2.ID])
}
