package physics

import (
	"fmt"

	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/typeid"
)

// NewCompound assembles a rigid compound from parts. The shell sits at the
// area-weighted centroid of the parts with angle 0; each part keeps its
// world placement as an offset in the shell frame. The parts must be
// detached from the engine before the shell is attached.
func NewCompound(parts []*Body) (*Body, error) {
	if len(parts) < 2 {
		return nil, ErrTooFewParts
	}
	seen := make(map[*Body]bool, len(parts))
	var centroid geom.Vec
	var total float64
	for _, p := range parts {
		if p.IsCompound() {
			return nil, fmt.Errorf("%w: %s", ErrNestedCompound, p.ID)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePart, p.ID)
		}
		seen[p] = true
		a := p.Area()
		centroid = centroid.Add(p.Position.Mul(a))
		total += a
	}
	if total > 0 {
		centroid = centroid.Mul(1 / total)
	}

	shell := &Body{
		ID:             typeid.NewBodyID(),
		Label:          labelFor(ShapeCompound),
		Shape:          Shape{Kind: ShapeCompound},
		Position:       centroid,
		Density:        DefaultDensity,
		Friction:       DefaultFriction,
		FrictionStatic: DefaultFrictionStatic,
		FrictionAir:    DefaultFrictionAir,
		Filter:         DefaultFilter(),
	}
	shell.Parts = append([]*Body{shell}, parts...)
	for _, p := range parts {
		p.offset = p.Position.Sub(centroid)
		p.angleOffset = p.Angle
		p.velocity = geom.Vec{}
		p.angularVelocity = 0
	}
	return shell, nil
}

// ReleaseParts places every part of a compound at its current world
// transform and clears its compound placement. The shell keeps its part
// list.
func ReleaseParts(shell *Body) []*Body {
	if !shell.IsCompound() {
		return nil
	}
	shell.syncParts()
	parts := make([]*Body, 0, len(shell.Parts)-1)
	for _, p := range shell.Parts[1:] {
		p.offset = geom.Vec{}
		p.angleOffset = 0
		parts = append(parts, p)
	}
	return parts
}
