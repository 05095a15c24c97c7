package selection

import (
	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/scene"
)

// State is the current selection. It is exactly one of None, SingleBody,
// SingleConstraint, CompositeChild or MultiGroup.
type State interface {
	Mode() Mode
	isState()
}

type Mode string

const (
	ModeNone             Mode = "none"
	ModeSingleBody       Mode = "body"
	ModeSingleConstraint Mode = "constraint"
	ModeCompositeChild   Mode = "composite-child"
	ModeMultiGroup       Mode = "group"
)

type None struct{}

type SingleBody struct {
	Body *physics.Body
}

type SingleConstraint struct {
	Constraint *physics.Constraint
}

// CompositeChild is an item selected through the user container that owns
// it.
type CompositeChild struct {
	Item  physics.Item
	Owner *scene.Container
}

// MultiGroup is an ordered set of items toggled with shift-click.
type MultiGroup struct {
	Items []physics.Item
}

func (None) Mode() Mode             { return ModeNone }
func (SingleBody) Mode() Mode       { return ModeSingleBody }
func (SingleConstraint) Mode() Mode { return ModeSingleConstraint }
func (CompositeChild) Mode() Mode   { return ModeCompositeChild }
func (MultiGroup) Mode() Mode       { return ModeMultiGroup }

func (None) isState()             {}
func (SingleBody) isState()       {}
func (SingleConstraint) isState() {}
func (CompositeChild) isState()   {}
func (MultiGroup) isState()       {}

// Bodies returns the bodies in the group, in selection order.
func (m MultiGroup) Bodies() []*physics.Body {
	var out []*physics.Body
	for _, it := range m.Items {
		if b, ok := it.(*physics.Body); ok {
			out = append(out, b)
		}
	}
	return out
}

// SelectedItem returns the single selected item, if any.
func SelectedItem(s State) physics.Item {
	switch v := s.(type) {
	case SingleBody:
		return v.Body
	case SingleConstraint:
		return v.Constraint
	case CompositeChild:
		return v.Item
	}
	return nil
}

// SelectedBody returns the single selected body, if any.
func SelectedBody(s State) *physics.Body {
	b, _ := SelectedItem(s).(*physics.Body)
	return b
}

// SelectedConstraint returns the single selected constraint, if any.
func SelectedConstraint(s State) *physics.Constraint {
	k, _ := SelectedItem(s).(*physics.Constraint)
	return k
}
