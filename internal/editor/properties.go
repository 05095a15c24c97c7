package editor

import (
	"math"

	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/selection"
)

// Body property names accepted by SetProperty.
const (
	PropStatic         = "isStatic"
	PropAngle          = "angle"
	PropRestitution    = "restitution"
	PropFriction       = "friction"
	PropFrictionStatic = "frictionStatic"
	PropFrictionAir    = "frictionAir"
	PropDensity        = "density"
	PropPositionX      = "positionX"
	PropPositionY      = "positionY"
	PropGroup          = "group"
	PropCategory       = "category"
	PropMask           = "mask"
	PropRadius         = "radius"
	PropWidth          = "width"
	PropHeight         = "height"
)

// Constraint property names accepted by SetProperty.
const (
	PropStiffness = "stiffness"
	PropDamping   = "damping"
	PropLength    = "length"
	PropPointAX   = "pointAX"
	PropPointAY   = "pointAY"
	PropPointBX   = "pointBX"
	PropPointBY   = "pointBY"
)

// SetProperty edits one property of the selected body or constraint.
// Angles are in degrees and booleans are non-zero for true. Edits with no
// matching selection are ignored.
func (e *Editor) SetProperty(name string, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	st := e.selection.State()
	if b := selection.SelectedBody(st); b != nil {
		e.setBodyProperty(b, name, value)
		return
	}
	if k := selection.SelectedConstraint(st); k != nil {
		e.setConstraintProperty(k, name, value)
	}
}

func (e *Editor) setBodyProperty(b *physics.Body, name string, value float64) {
	var edit func(*physics.Body)
	switch name {
	case PropStatic:
		edit = func(b *physics.Body) { b.Static = value != 0 }
	case PropAngle:
		edit = func(b *physics.Body) { b.Angle = geom.Radians(value) }
	case PropRestitution:
		edit = func(b *physics.Body) { b.Restitution = value }
	case PropFriction:
		edit = func(b *physics.Body) { b.Friction = value }
	case PropFrictionStatic:
		edit = func(b *physics.Body) { b.FrictionStatic = value }
	case PropFrictionAir:
		edit = func(b *physics.Body) { b.FrictionAir = value }
	case PropDensity:
		if value <= 0 {
			e.fail("Density must be greater than zero.")
			return
		}
		edit = func(b *physics.Body) { b.Density = value }
	case PropPositionX:
		edit = func(b *physics.Body) { b.Position[0] = value }
	case PropPositionY:
		edit = func(b *physics.Body) { b.Position[1] = value }
	case PropGroup:
		edit = func(b *physics.Body) { b.Filter.Group = int(value) }
	case PropCategory, PropMask:
		if value < 0 || value > math.MaxUint32 {
			e.fail("Collision %s must be between 0 and %d.", name, uint32(math.MaxUint32))
			return
		}
		if name == PropCategory {
			edit = func(b *physics.Body) { b.Filter.Category = uint32(value) }
		} else {
			edit = func(b *physics.Body) { b.Filter.Mask = uint32(value) }
		}
	case PropRadius, PropWidth, PropHeight:
		edit = e.sizeEdit(b, name, value)
		if edit == nil {
			return
		}
	default:
		e.fail("Unknown object property %q.", name)
		return
	}
	e.engine.Update(b, edit)
}

// sizeEdit returns the shape change for a size property, or nil after
// reporting why the body cannot take it.
func (e *Editor) sizeEdit(b *physics.Body, name string, value float64) func(*physics.Body) {
	if b.IsCompound() {
		e.fail("Size cannot be edited on a compound body.")
		return nil
	}
	if value <= 0 {
		e.fail("Size must be greater than zero.")
		return nil
	}
	switch {
	case name == PropRadius && (b.Shape.Kind == physics.ShapeCircle || b.Shape.Kind == physics.ShapePolygon):
		return func(b *physics.Body) { b.Shape.Radius = value }
	case name == PropWidth && b.Shape.Kind == physics.ShapeRectangle:
		return func(b *physics.Body) { b.Shape.Width = value }
	case name == PropHeight && b.Shape.Kind == physics.ShapeRectangle:
		return func(b *physics.Body) { b.Shape.Height = value }
	}
	e.fail("A %s body has no %s.", b.Shape.Kind, name)
	return nil
}

func (e *Editor) setConstraintProperty(k *physics.Constraint, name string, value float64) {
	var edit func(*physics.Constraint)
	switch name {
	case PropStiffness:
		edit = func(k *physics.Constraint) { k.Stiffness = value }
	case PropDamping:
		edit = func(k *physics.Constraint) { k.Damping = value }
	case PropLength:
		if value < 0 {
			e.fail("Length cannot be negative.")
			return
		}
		edit = func(k *physics.Constraint) { k.Length = value }
	case PropPointAX:
		edit = func(k *physics.Constraint) { k.PointA[0] = value }
	case PropPointAY:
		edit = func(k *physics.Constraint) { k.PointA[1] = value }
	case PropPointBX:
		edit = func(k *physics.Constraint) { k.PointB[0] = value }
	case PropPointBY:
		edit = func(k *physics.Constraint) { k.PointB[1] = value }
	default:
		e.fail("Unknown constraint property %q.", name)
		return
	}
	e.engine.UpdateConstraint(k, edit)
}
