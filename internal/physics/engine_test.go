package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigkit/rigkit/internal/geom"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig())
}

func TestAddRemoveBody(t *testing.T) {
	e := newTestEngine()
	b := NewCircle(geom.V(100, 100), 30)

	require.NoError(t, e.AddBody(b))
	assert.True(t, e.Attached(b))
	assert.ErrorIs(t, e.AddBody(b), ErrAlreadyAttached)

	require.NoError(t, e.RemoveBody(b))
	assert.False(t, e.Attached(b))
	assert.ErrorIs(t, e.RemoveBody(b), ErrNotAttached)
}

func TestAddBodyRejectsInvalidShape(t *testing.T) {
	e := newTestEngine()
	b := NewCircle(geom.V(0, 0), 0)
	assert.ErrorIs(t, e.AddBody(b), ErrInvalidShape)
	assert.False(t, e.Attached(b))
}

func TestContains(t *testing.T) {
	e := newTestEngine()
	circle := NewCircle(geom.V(100, 100), 30)
	rect := NewRectangle(geom.V(300, 100), 50, 80)
	tri := NewPolygon(geom.V(500, 100), 3, 40)
	for _, b := range []*Body{circle, rect, tri} {
		require.NoError(t, e.AddBody(b))
	}

	assert.True(t, e.Contains(circle, geom.V(120, 100)))
	assert.False(t, e.Contains(circle, geom.V(131, 100)))
	assert.True(t, e.Contains(rect, geom.V(320, 135)))
	assert.False(t, e.Contains(rect, geom.V(330, 100)))
	assert.True(t, e.Contains(tri, geom.V(500, 100)))

	hits := e.QueryPoint([]*Body{rect, circle, tri}, geom.V(110, 110))
	assert.Equal(t, []*Body{circle}, hits)
}

func TestContainsDetachedMatchesAttached(t *testing.T) {
	e := newTestEngine()
	rect := NewRectangle(geom.V(0, 0), 50, 80)
	rect.Angle = math.Pi / 2
	probeIn, probeOut := geom.V(35, 0), geom.V(0, 35)

	assert.True(t, e.Contains(rect, probeIn))
	assert.False(t, e.Contains(rect, probeOut))

	require.NoError(t, e.AddBody(rect))
	assert.True(t, e.Contains(rect, probeIn))
	assert.False(t, e.Contains(rect, probeOut))
}

func TestStepAppliesGravity(t *testing.T) {
	e := newTestEngine()
	ball := NewCircle(geom.V(100, 100), 30)
	wall := NewRectangle(geom.V(400, 100), 50, 50)
	wall.Static = true
	require.NoError(t, e.AddBody(ball))
	require.NoError(t, e.AddBody(wall))

	for range 10 {
		require.True(t, e.Step(1.0/60))
	}

	assert.Greater(t, ball.Position.Y(), 100.0)
	assert.Equal(t, geom.V(400, 100), wall.Position)
	assert.Equal(t, uint64(10), e.Steps())
}

func TestSuspendNests(t *testing.T) {
	e := newTestEngine()
	b := NewCircle(geom.V(0, 0), 10)
	require.NoError(t, e.AddBody(b))

	outer := e.Suspend()
	inner := e.Suspend()
	assert.True(t, e.Paused())
	assert.False(t, e.Step(1.0/60))

	inner()
	inner()
	assert.True(t, e.Suspended())

	outer()
	assert.False(t, e.Paused())
	assert.True(t, e.Step(1.0/60))

	e.Pause()
	assert.False(t, e.Step(1.0/60))
	e.Resume()
	assert.True(t, e.Step(1.0/60))
}

func TestConstraintActivation(t *testing.T) {
	e := newTestEngine()
	a := NewCircle(geom.V(0, 0), 10)
	b := NewCircle(geom.V(100, 0), 10)
	c := NewConstraint(a, b, geom.Vec{}, geom.Vec{})
	assert.InDelta(t, 100.0, c.Length, 1e-9)

	require.NoError(t, e.AddBody(a))
	e.AddConstraint(c)
	assert.True(t, e.Tracks(c))
	assert.False(t, e.Active(c), "endpoint b is not attached")

	require.NoError(t, e.AddBody(b))
	assert.True(t, e.Active(c))

	require.NoError(t, e.RemoveBody(b))
	assert.False(t, e.Active(c))
	assert.True(t, e.Tracks(c))

	e.RemoveConstraint(c)
	assert.False(t, e.Tracks(c))
}

func TestConstraintBetweenStaticBodiesIsInactive(t *testing.T) {
	e := newTestEngine()
	a := NewRectangle(geom.V(0, 0), 10, 10)
	b := NewRectangle(geom.V(50, 0), 10, 10)
	a.Static, b.Static = true, true
	require.NoError(t, e.AddBody(a))
	require.NoError(t, e.AddBody(b))

	c := NewConstraint(a, b, geom.Vec{}, geom.Vec{})
	e.AddConstraint(c)
	assert.False(t, e.Active(c))
	assert.True(t, e.Step(1.0/60))

	e.Update(b, func(b *Body) { b.Static = false })
	assert.True(t, e.Active(c))
}

func TestSpringPullsBodiesTogether(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = geom.Vec{}
	e := NewEngine(cfg)
	a := NewCircle(geom.V(0, 0), 10)
	b := NewCircle(geom.V(200, 0), 10)
	require.NoError(t, e.AddBody(a))
	require.NoError(t, e.AddBody(b))
	c := NewConstraint(a, b, geom.Vec{}, geom.Vec{})
	c.Length = 100
	e.AddConstraint(c)

	for range 30 {
		e.Step(1.0 / 60)
	}
	assert.Less(t, b.Position.Sub(a.Position).Len(), 200.0)
}

func TestUpdateKeepsTransform(t *testing.T) {
	e := newTestEngine()
	b := NewRectangle(geom.V(40, 60), 50, 80)
	b.Angle = 0.3
	require.NoError(t, e.AddBody(b))

	e.Update(b, func(b *Body) { b.Friction = 0.7 })
	assert.InDelta(t, 0.3, b.Angle, 1e-9)
	assert.True(t, geom.ApproxEqual(b.Position, geom.V(40, 60), 1e-9))
	assert.Equal(t, 0.7, b.Friction)
}

func TestGroupTransforms(t *testing.T) {
	e := newTestEngine()
	a := NewCircle(geom.V(0, 0), 10)
	b := NewCircle(geom.V(100, 0), 10)
	bodies := []*Body{a, b}
	for _, x := range bodies {
		require.NoError(t, e.AddBody(x))
	}

	e.Translate(bodies, geom.V(10, 5))
	assert.True(t, geom.ApproxEqual(a.Position, geom.V(10, 5), 1e-9))
	assert.True(t, geom.ApproxEqual(b.Position, geom.V(110, 5), 1e-9))

	e.Rotate(bodies, math.Pi, geom.V(60, 5))
	assert.True(t, geom.ApproxEqual(a.Position, geom.V(110, 5), 1e-9))
	assert.InDelta(t, math.Pi, a.Angle, 1e-9)

	require.NoError(t, e.Scale(bodies, 2, geom.V(60, 5)))
	assert.True(t, geom.ApproxEqual(a.Position, geom.V(160, 5), 1e-9))
	assert.InDelta(t, 20.0, a.Shape.Radius, 1e-9)
	assert.ErrorIs(t, e.Scale(bodies, 0, geom.Vec{}), ErrInvalidProperty)
}

func TestCompoundAssembleAndRelease(t *testing.T) {
	e := newTestEngine()
	a := NewCircle(geom.V(0, 0), 30)
	b := NewCircle(geom.V(100, 0), 30)

	shell, err := NewCompound([]*Body{a, b})
	require.NoError(t, err)
	assert.Equal(t, []*Body{shell, a, b}, shell.Parts)
	assert.True(t, shell.IsCompound())
	assert.True(t, geom.ApproxEqual(shell.Position, geom.V(50, 0), 1e-9))
	assert.Len(t, shell.Vertices(), 2*circleSegments)

	require.NoError(t, e.AddBody(shell))
	assert.True(t, e.Contains(shell, geom.V(100, 0)))
	assert.False(t, e.Contains(shell, geom.V(50, 0)))

	e.Rotate([]*Body{shell}, math.Pi, shell.Position)
	assert.True(t, geom.ApproxEqual(a.Position, geom.V(100, 0), 1e-9))

	require.NoError(t, e.RemoveBody(shell))
	parts := ReleaseParts(shell)
	assert.Equal(t, []*Body{a, b}, parts)
	assert.True(t, geom.ApproxEqual(b.Position, geom.V(0, 0), 1e-9))
	require.NoError(t, e.AddBody(a))
	assert.True(t, e.Contains(a, geom.V(100, 0)))
}

func TestCompoundEditsReachPartShapes(t *testing.T) {
	e := newTestEngine()
	a := NewCircle(geom.V(0, 0), 30)
	b := NewRectangle(geom.V(100, 0), 40, 40)
	a.Filter.Category = 2
	b.Filter.Category = 4
	shell, err := NewCompound([]*Body{a, b})
	require.NoError(t, err)
	require.NoError(t, e.AddBody(shell))

	e.Update(shell, func(s *Body) {
		s.Friction = 0.9
		s.Restitution = 0.8
		s.Filter.Group = -7
	})

	require.Len(t, shell.handle.shapes, 2)
	for _, sh := range shell.handle.shapes {
		assert.InDelta(t, 0.9, sh.Friction(), 1e-12)
		assert.InDelta(t, 0.8, sh.Elasticity(), 1e-12)
		assert.Equal(t, uint(7), sh.Filter.Group)
	}
	assert.Equal(t, uint32(2), a.Filter.Category, "untouched fields keep the part's value")
	assert.Equal(t, uint(4), shell.handle.shapes[1].Filter.Categories)

	e.Translate([]*Body{shell}, geom.V(5, 0))
	assert.Equal(t, -7, b.Filter.Group)
	assert.Equal(t, uint32(4), b.Filter.Category)
}

func TestNewCompoundRejects(t *testing.T) {
	a := NewCircle(geom.V(0, 0), 10)
	b := NewCircle(geom.V(10, 0), 10)

	_, err := NewCompound([]*Body{a})
	assert.ErrorIs(t, err, ErrTooFewParts)

	_, err = NewCompound([]*Body{a, a})
	assert.ErrorIs(t, err, ErrDuplicatePart)

	shell, err := NewCompound([]*Body{a, b})
	require.NoError(t, err)
	_, err = NewCompound([]*Body{shell, NewCircle(geom.V(0, 0), 5)})
	assert.ErrorIs(t, err, ErrNestedCompound)
}

func TestCollisionFilterMapping(t *testing.T) {
	f := toShapeFilter(Filter{Group: -2, Category: 4, Mask: 5})
	assert.Equal(t, uint(2), f.Group)
	assert.Equal(t, uint(4), f.Categories)
	assert.Equal(t, uint(5), f.Mask)

	f = toShapeFilter(Filter{Group: 3, Category: 1, Mask: 1})
	assert.Equal(t, uint(0), f.Group)
}
