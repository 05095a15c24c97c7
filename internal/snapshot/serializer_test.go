package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigkit/rigkit/internal/compound"
	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/scene"
	"github.com/rigkit/rigkit/internal/typeid"
)

type fixture struct {
	graph   *scene.Graph
	group   *scene.Container
	outside *physics.Body
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	g := scene.NewGraph(physics.NewEngine(physics.DefaultConfig()))
	group := g.CreateContainer("Rig")

	wheel := physics.NewCircle(geom.V(100, 100), 30)
	wheel.Friction = 0.4
	wheel.Restitution = 0.6
	wheel.Fill = "#4285F4"
	wheel.Filter = physics.Filter{Group: -2, Category: 4, Mask: 7}
	frame := physics.NewRectangle(geom.V(200, 100), 50, 80)
	frame.Angle = 0.25
	frame.Static = true
	require.NoError(t, g.AddBody(group, wheel))
	require.NoError(t, g.AddBody(group, frame))

	axle := physics.NewConstraint(wheel, frame, geom.V(0, 5), geom.V(-10, 0))
	axle.Stiffness = 0.2
	require.NoError(t, g.AddConstraint(group, axle))

	nested := scene.NewContainer("Nested")
	tri := physics.NewPolygon(geom.V(300, 100), 3, 40)
	nested.Bodies = append(nested.Bodies, tri)
	group.Composites = append(group.Composites, nested)
	require.NoError(t, g.Engine().AddBody(tri))

	outside := physics.NewCircle(geom.V(500, 100), 10)
	require.NoError(t, g.AddBody(g.World, outside))
	tether := physics.NewConstraint(tri, outside, geom.Vec{}, geom.Vec{})
	nested.Constraints = append(nested.Constraints, tether)
	g.Engine().AddConstraint(tether)

	return fixture{graph: g, group: group, outside: outside}
}

func TestRoundTripMatchesPropertiesWithFreshIDs(t *testing.T) {
	f := newFixture(t)
	s := New(f.graph)

	snap := s.Serialize(f.group)
	b, k := snap.Counts()
	assert.Equal(t, 3, b)
	assert.Equal(t, 2, k)
	require.Len(t, snap.Detached, 1)
	assert.Equal(t, f.outside.ID, snap.Detached[0].ID)

	restored, err := s.Restore(snap)
	require.NoError(t, err)
	assert.Contains(t, f.graph.Containers(), restored)
	assert.Equal(t, "Rig", restored.Label)

	orig, copyBodies := f.group.AllBodies(), restored.AllBodies()
	require.Len(t, copyBodies, len(orig))
	require.Len(t, restored.AllConstraints(), len(f.group.AllConstraints()))

	for i, o := range orig {
		c := copyBodies[i]
		assert.NotEqual(t, o.ID, c.ID)
		assert.Equal(t, o.Label, c.Label)
		assert.Equal(t, o.Shape, c.Shape)
		assert.True(t, geom.ApproxEqual(o.Position, c.Position, 1e-9))
		assert.InDelta(t, o.Angle, c.Angle, 1e-9)
		assert.Equal(t, o.Static, c.Static)
		assert.Equal(t, o.Density, c.Density)
		assert.Equal(t, o.Friction, c.Friction)
		assert.Equal(t, o.FrictionStatic, c.FrictionStatic)
		assert.Equal(t, o.FrictionAir, c.FrictionAir)
		assert.Equal(t, o.Restitution, c.Restitution)
		assert.Equal(t, o.Filter, c.Filter)
		assert.Equal(t, o.Fill, c.Fill)
		assert.True(t, f.graph.Engine().Attached(c))
	}

	axle := restored.Constraints[0]
	assert.Same(t, copyBodies[0], axle.BodyA)
	assert.Same(t, copyBodies[1], axle.BodyB)
	assert.Equal(t, 0.2, axle.Stiffness)
	assert.Equal(t, geom.V(0, 5), axle.PointA)
	assert.True(t, f.graph.Engine().Active(axle))

	// The tether's outside endpoint is rebuilt but never enters the scene.
	tether := restored.Composites[0].Constraints[0]
	assert.NotSame(t, f.outside, tether.BodyB)
	assert.Nil(t, f.graph.FindOwner(tether.BodyB))
	assert.False(t, f.graph.Engine().Active(tether))
	assert.Len(t, f.graph.World.Bodies, 1)

	assert.False(t, f.graph.Engine().Paused())
}

func TestRestoreResetsTransformAndFallsBackLabel(t *testing.T) {
	f := newFixture(t)
	s := New(f.graph)
	f.group.Transform = scene.TransformState{Angle: 1.2, Scale: 3}

	snap := s.Serialize(f.group)
	assert.Equal(t, 3.0, snap.Scale)
	snap.Label = "Composite"

	restored, err := s.Restore(snap)
	require.NoError(t, err)
	assert.Equal(t, "Loaded Composite 2", restored.Label)
	assert.Equal(t, scene.DefaultTransform(), restored.Transform)
	assert.Equal(t, scene.DefaultTransform(), restored.Composites[0].Transform)

	snap.Label = ""
	again, err := s.Restore(snap)
	require.NoError(t, err)
	assert.Equal(t, "Loaded Composite 3", again.Label)
}

func TestSaveLoadJSONAndYAML(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			f := newFixture(t)
			s := New(f.graph)

			data, err := s.Save(f.group, format)
			require.NoError(t, err)

			restored, err := s.Load(data, format)
			require.NoError(t, err)
			assert.Len(t, restored.AllBodies(), 3)
			assert.Len(t, restored.AllConstraints(), 2)
			assert.Equal(t, physics.Filter{Group: -2, Category: 4, Mask: 7}, restored.Bodies[0].Filter)
			assert.Len(t, f.graph.Containers(), 2)
			assert.False(t, f.graph.Engine().Paused())
		})
	}
}

func TestCompoundRoundTrip(t *testing.T) {
	g := scene.NewGraph(physics.NewEngine(physics.DefaultConfig()))
	c := g.CreateContainer("Compound")
	a := physics.NewCircle(geom.V(0, 0), 30)
	b := physics.NewRectangle(geom.V(60, 0), 30, 30)
	a.Filter = physics.Filter{Group: -4, Category: 2, Mask: 3}
	shell, err := physics.NewCompound([]*physics.Body{a, b})
	require.NoError(t, err)
	require.NoError(t, g.AddBody(c, shell))

	s := New(g)
	data, err := s.Save(c, FormatJSON)
	require.NoError(t, err)
	restored, err := s.Load(data, FormatJSON)
	require.NoError(t, err)

	require.Len(t, restored.Bodies, 1)
	got := restored.Bodies[0]
	require.Len(t, got.Parts, 3)
	assert.Equal(t, physics.ShapeCircle, got.Parts[1].Shape.Kind)
	assert.Equal(t, physics.ShapeRectangle, got.Parts[2].Shape.Kind)
	assert.Equal(t, a.Filter, got.Parts[1].Filter)
	assert.Equal(t, physics.DefaultFilter(), got.Parts[2].Filter)
	assert.True(t, geom.ApproxEqual(shell.Position, got.Position, 1e-9))
	assert.True(t, g.Engine().Attached(got))
	assert.False(t, g.Engine().Attached(got.Parts[1]))
}

func TestSaveLoadAfterMergeThenBreak(t *testing.T) {
	g := scene.NewGraph(physics.NewEngine(physics.DefaultConfig()))
	c := g.CreateContainer("Pair")
	a := physics.NewCircle(geom.V(0, 0), 20)
	b := physics.NewCircle(geom.V(80, 0), 20)
	require.NoError(t, g.AddBody(c, a))
	require.NoError(t, g.AddBody(c, b))
	link := physics.NewConstraint(a, b, geom.Vec{}, geom.Vec{})
	require.NoError(t, g.AddConstraint(c, link))

	m := compound.NewManager(g, compound.Options{})
	shell, err := m.Create([]*physics.Body{a, b})
	require.NoError(t, err)
	_, err = m.Break(shell)
	require.NoError(t, err)
	require.Same(t, shell, link.BodyA)

	s := New(g)
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := s.Save(c, format)
			require.NoError(t, err)
			restored, err := s.Load(data, format)
			require.NoError(t, err)

			require.Len(t, restored.Bodies, 2)
			require.Len(t, restored.Constraints, 1)
			k := restored.Constraints[0]
			assert.Same(t, k.BodyA, k.BodyB)
			assert.True(t, k.BodyA.IsCompound())
			assert.NotContains(t, restored.Bodies, k.BodyA)
			assert.False(t, g.Engine().Active(k))
			for _, p := range k.BodyA.Parts[1:] {
				assert.NotContains(t, restored.Bodies, p)
			}
		})
	}
}

func TestRestoreAssignsKindPrefixes(t *testing.T) {
	g := scene.NewGraph(physics.NewEngine(physics.DefaultConfig()))
	c := g.CreateContainer("Prefixes")
	a := physics.NewCircle(geom.V(0, 0), 10)
	b := physics.NewCircle(geom.V(50, 0), 10)
	require.NoError(t, g.AddBody(c, a))
	require.NoError(t, g.AddBody(c, b))
	require.NoError(t, g.AddConstraint(c, physics.NewConstraint(a, b, geom.Vec{}, geom.Vec{})))

	s := New(g)
	snap := s.Serialize(c)
	odd := typeid.NewUserID()
	snap.Bodies[0].ID = odd
	snap.Constraints[0].BodyA = odd
	snap.Constraints[0].ID = typeid.NewBodyID()

	restored, err := s.Restore(snap)
	require.NoError(t, err)
	for _, body := range restored.Bodies {
		assert.NoError(t, typeid.Validate(body.ID, typeid.PrefixBody))
	}
	assert.NoError(t, typeid.Validate(restored.Constraints[0].ID, typeid.PrefixConstraint))
}

func TestLoadRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{"empty", "   ", ErrEmptyInput},
		{"not json", "{", ErrMalformedSnapshot},
		{"unknown shape", `{"label":"x","bodies":[{"id":"a","shape":{"kind":"blob"}}]}`, ErrMalformedSnapshot},
		{"bad radius", `{"label":"x","bodies":[{"id":"a","shape":{"kind":"circle"}}]}`, ErrMalformedSnapshot},
		{"dangling constraint", `{"label":"x","bodies":[{"id":"a","shape":{"kind":"circle","radius":5}}],"constraints":[{"id":"c","bodyA":"a","bodyB":"zzz"}]}`, ErrMalformedSnapshot},
		{"duplicate id", `{"label":"x","bodies":[{"id":"a","shape":{"kind":"circle","radius":5}},{"id":"a","shape":{"kind":"circle","radius":5}}]}`, ErrMalformedSnapshot},
		{"future version", `{"version":99,"label":"x"}`, ErrMalformedSnapshot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := scene.NewGraph(physics.NewEngine(physics.DefaultConfig()))
			s := New(g)

			_, err := s.Load([]byte(tt.data), FormatJSON)
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, g.Containers())
			assert.Empty(t, g.AllBodies())
			assert.False(t, g.Engine().Paused())
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	f, err = ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = Marshal(&Snapshot{}, "xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
