package scene

import (
	"fmt"

	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/physics"
)

const (
	wallThickness = 60
	wallFill      = "#444444"
)

// Populate adds the starter scene to World: a circle, a square and a
// triangle near the top of the viewport, and four static walls along its
// edges.
func Populate(g *Graph, width, height float64) error {
	cx := width / 2

	circle := physics.NewCircle(geom.V(cx-200, 200), 30)
	circle.Fill = "#4285F4"
	square := physics.NewRectangle(geom.V(cx, 150), 50, 50)
	square.Fill = "#DB4437"
	triangle := physics.NewPolygon(geom.V(cx+200, 200), 3, 30)
	triangle.Fill = "#0F9D58"

	bodies := []*physics.Body{circle, square, triangle}
	for _, w := range []struct {
		label string
		pos   geom.Vec
		w, h  float64
	}{
		{"Floor", geom.V(cx, height-wallThickness/2), width, wallThickness},
		{"Ceiling", geom.V(cx, wallThickness/2), width, wallThickness},
		{"Left Wall", geom.V(wallThickness/2, height/2), wallThickness, height},
		{"Right Wall", geom.V(width-wallThickness/2, height/2), wallThickness, height},
	} {
		wall := physics.NewRectangle(w.pos, w.w, w.h)
		wall.Label = w.label
		wall.Static = true
		wall.Fill = wallFill
		bodies = append(bodies, wall)
	}

	for _, b := range bodies {
		if err := g.AddBody(g.World, b); err != nil {
			return fmt.Errorf("populate scene: %w", err)
		}
	}
	return nil
}
