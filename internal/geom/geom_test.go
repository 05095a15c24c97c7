package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistToSegment(t *testing.T) {
	v, w := V(0, 0), V(100, 0)

	assert.InDelta(t, 5.0, DistToSegment(V(50, 5), v, w), 1e-9)
	// Projection clamps to the endpoints.
	assert.InDelta(t, 5.0, DistToSegment(V(-3, 4), v, w), 1e-9)
	assert.InDelta(t, 5.0, DistToSegment(V(103, -4), v, w), 1e-9)
	// Degenerate segment.
	assert.InDelta(t, 5.0, DistToSegment(V(3, 4), v, v), 1e-9)
}

func TestBounds(t *testing.T) {
	b := EmptyBounds()
	assert.True(t, b.IsEmpty())

	b = BoundsOf([]Vec{V(10, 20), V(-10, 0), V(30, -20)})
	assert.False(t, b.IsEmpty())
	assert.Equal(t, V(-10, -20), b.Min)
	assert.Equal(t, V(30, 20), b.Max)
	assert.Equal(t, V(10, 0), b.Center())
	assert.True(t, b.Contains(V(0, 0)))
	assert.False(t, b.Contains(V(31, 0)))

	w, h := b.Size()
	assert.Equal(t, 40.0, w)
	assert.Equal(t, 40.0, h)

	u := EmptyBounds().Union(b)
	assert.Equal(t, b, u)
}

func TestAffineAboutPivot(t *testing.T) {
	pivot := V(10, 10)

	r := RotateAbout(math.Pi/2, pivot)
	assert.True(t, ApproxEqual(r.Apply(V(20, 10)), V(10, 20), 1e-9))
	assert.True(t, ApproxEqual(r.Apply(pivot), pivot, 1e-9))

	s := ScaleAbout(2, pivot)
	assert.True(t, ApproxEqual(s.Apply(V(15, 5)), V(20, 0), 1e-9))
	assert.True(t, ApproxEqual(s.ApplyVector(V(1, 1)), V(2, 2), 1e-9))

	both := Translate(V(1, 0)).Then(ScaleAbout(2, V(0, 0)))
	assert.True(t, ApproxEqual(both.Apply(V(1, 1)), V(4, 2), 1e-9))
}

func TestRotateAndAngles(t *testing.T) {
	assert.True(t, ApproxEqual(Rotate(V(1, 0), math.Pi), V(-1, 0), 1e-9))
	assert.InDelta(t, math.Pi, Radians(180), 1e-12)
	assert.InDelta(t, 90.0, Degrees(math.Pi/2), 1e-12)
	assert.True(t, Near(V(0, 0), V(3, 3), 5))
	assert.False(t, Near(V(0, 0), V(4, 4), 5))
}
