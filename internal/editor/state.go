package editor

import (
	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/scene"
	"github.com/rigkit/rigkit/internal/selection"
)

// Panel names the editor panel the presentation layer should show.
type Panel string

const (
	PanelNew            Panel = "new"
	PanelObject         Panel = "object"
	PanelConstraint     Panel = "constraint"
	PanelComposite      Panel = "composite"
	PanelCompositeChild Panel = "composite-child"
	PanelGroup          Panel = "group"
)

// UIState is everything the side panel needs to render.
type UIState struct {
	Panel      Panel             `json:"panel"`
	Body       *BodyView         `json:"body,omitempty"`
	Constraint *ConstraintView   `json:"constraint,omitempty"`
	Container  *ContainerView    `json:"container,omitempty"`
	Group      []string          `json:"group,omitempty"`
	Pending    []string          `json:"pending,omitempty"`
	Containers []ContainerOption `json:"containers"`
	CanMerge   bool              `json:"canMerge"`
	CanSplit   bool              `json:"canSplit"`
	Paused     bool              `json:"paused"`
	Confirm    *ConfirmRequest   `json:"confirm,omitempty"`
}

type BodyView struct {
	ID             string  `json:"id"`
	Label          string  `json:"label"`
	Kind           string  `json:"kind"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Angle          float64 `json:"angle"` // degrees
	Static         bool    `json:"isStatic"`
	Density        float64 `json:"density"`
	Friction       float64 `json:"friction"`
	FrictionStatic float64 `json:"frictionStatic"`
	FrictionAir    float64 `json:"frictionAir"`
	Restitution    float64 `json:"restitution"`
	Group          int     `json:"group"`
	Category       uint32  `json:"category"`
	Mask           uint32  `json:"mask"`
	Radius         float64 `json:"radius,omitempty"`
	Width          float64 `json:"width,omitempty"`
	Height         float64 `json:"height,omitempty"`
	Sides          int     `json:"sides,omitempty"`
	Parts          int     `json:"parts"`
	Fill           string  `json:"fill"`
}

type ConstraintView struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	BodyA     string   `json:"bodyA"`
	BodyB     string   `json:"bodyB"`
	PointA    geom.Vec `json:"pointA"`
	PointB    geom.Vec `json:"pointB"`
	Length    float64  `json:"length"`
	Stiffness float64  `json:"stiffness"`
	Damping   float64  `json:"damping"`
	Active    bool     `json:"active"`
}

type ContainerView struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Angle       float64 `json:"angle"` // degrees
	Scale       float64 `json:"scale"`
	Bodies      int     `json:"bodies"`
	Constraints int     `json:"constraints"`
}

// ContainerOption is one entry of the container picker.
type ContainerOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// UIState describes the current selection and the derived action flags.
func (e *Editor) UIState() UIState {
	st := e.selection.State()
	ui := UIState{
		Panel:      PanelNew,
		Containers: e.containerOptions(),
		CanMerge:   e.selection.CanMerge(),
		CanSplit:   e.selection.CanSplit(),
		Paused:     e.engine.Paused(),
	}
	for _, b := range e.selection.Pending() {
		ui.Pending = append(ui.Pending, b.ID)
	}
	if e.pending != nil {
		req := e.pending.request()
		ui.Confirm = &req
	}

	switch v := st.(type) {
	case selection.SingleBody:
		ui.Panel = PanelObject
	case selection.SingleConstraint:
		ui.Panel = PanelConstraint
	case selection.CompositeChild:
		ui.Panel = PanelCompositeChild
	case selection.MultiGroup:
		ui.Panel = PanelGroup
		for _, it := range v.Items {
			ui.Group = append(ui.Group, it.ItemID())
		}
	default:
		if e.container != nil {
			ui.Panel = PanelComposite
		}
	}

	if b := selection.SelectedBody(st); b != nil {
		ui.Body = describeBody(b)
	}
	if k := selection.SelectedConstraint(st); k != nil {
		ui.Constraint = e.describeConstraint(k)
	}
	if c := e.Container(); c != nil {
		ui.Container = describeContainer(c)
	}
	return ui
}

func (e *Editor) containerOptions() []ContainerOption {
	opts := []ContainerOption{}
	for _, top := range e.graph.Containers() {
		for _, c := range top.AllContainers() {
			opts = append(opts, ContainerOption{ID: c.ID, Label: c.Label})
		}
	}
	return opts
}

func describeBody(b *physics.Body) *BodyView {
	return &BodyView{
		ID:             b.ID,
		Label:          b.Label,
		Kind:           string(b.Shape.Kind),
		X:              b.Position.X(),
		Y:              b.Position.Y(),
		Angle:          geom.Degrees(b.Angle),
		Static:         b.Static,
		Density:        b.Density,
		Friction:       b.Friction,
		FrictionStatic: b.FrictionStatic,
		FrictionAir:    b.FrictionAir,
		Restitution:    b.Restitution,
		Group:          b.Filter.Group,
		Category:       b.Filter.Category,
		Mask:           b.Filter.Mask,
		Radius:         b.Shape.Radius,
		Width:          b.Shape.Width,
		Height:         b.Shape.Height,
		Sides:          b.Shape.Sides,
		Parts:          len(b.Parts),
		Fill:           b.Fill,
	}
}

func (e *Editor) describeConstraint(k *physics.Constraint) *ConstraintView {
	return &ConstraintView{
		ID:        k.ID,
		Label:     k.Label,
		BodyA:     k.BodyA.ID,
		BodyB:     k.BodyB.ID,
		PointA:    k.PointA,
		PointB:    k.PointB,
		Length:    k.Length,
		Stiffness: k.Stiffness,
		Damping:   k.Damping,
		Active:    e.engine.Active(k),
	}
}

func describeContainer(c *scene.Container) *ContainerView {
	return &ContainerView{
		ID:          c.ID,
		Label:       c.Label,
		Angle:       geom.Degrees(c.Transform.Angle),
		Scale:       c.Transform.Scale,
		Bodies:      len(c.AllBodies()),
		Constraints: len(c.AllConstraints()),
	}
}
