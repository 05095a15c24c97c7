package editor

import (
	"encoding/json"

	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/scene"
	"github.com/rigkit/rigkit/internal/selection"
)

const (
	strokeDefault   = "#999"
	strokePending   = "#F4B400"
	strokeGroup     = "#4285F4"
	strokeSelected  = "#F4B400"
	strokeCompound  = "#DB4437"
	strokeContainer = "#0F9D58"

	markerCentre   = "rgba(0, 255, 255, 0.7)"
	markerPosition = "rgba(255, 255, 0, 0.7)"
	markerRadius   = 5
)

// DrawCommand is a single drawing operation for the presentation layer.
// Commands are in painter's order: bodies, then constraints, then markers.
type DrawCommand struct {
	Op          string     `json:"op"`                    // "path", "line", "marker"
	ObjectID    string     `json:"objectId,omitempty"`    // For hit correlation
	Points      []geom.Vec `json:"points,omitempty"`      // Closed outline for "path", endpoints for "line"
	Center      *geom.Vec  `json:"center,omitempty"`      // Marker centre
	Radius      float64    `json:"radius,omitempty"`      // Marker radius
	Fill        string     `json:"fill,omitempty"`        // Fill colour
	Stroke      string     `json:"stroke,omitempty"`      // Stroke colour
	StrokeWidth float64    `json:"strokeWidth,omitempty"` // Stroke width
}

// style is the stroke applied to one item.
type style struct {
	stroke string
	width  float64
}

// highlights resolves the stroke of every highlighted item. Later rules win,
// except that container highlighting never overrides the selected item.
type highlights struct {
	items map[physics.Item]style
	parts map[*physics.Body]style
}

func computeHighlights(sel selection.State, pending []*physics.Body, container *scene.Container) highlights {
	h := highlights{
		items: make(map[physics.Item]style),
		parts: make(map[*physics.Body]style),
	}
	for _, b := range pending {
		h.items[b] = style{strokePending, 3}
	}

	switch v := sel.(type) {
	case selection.MultiGroup:
		if len(v.Items) > 1 {
			for _, it := range v.Items {
				h.items[it] = style{strokeGroup, 4}
			}
		}
	default:
		if b := selection.SelectedBody(v); b != nil {
			if b.IsCompound() {
				for _, p := range b.Parts[1:] {
					h.parts[p] = style{strokeCompound, 4}
				}
				h.items[b] = style{strokeCompound, 4}
			} else {
				h.items[b] = style{strokeSelected, 4}
			}
		} else if k := selection.SelectedConstraint(v); k != nil {
			h.items[k] = style{strokeSelected, 4}
		}
	}

	if container != nil {
		selected := selection.SelectedItem(sel)
		for _, b := range container.AllBodies() {
			if b != selected {
				h.items[b] = style{strokeContainer, 4}
			}
		}
		for _, k := range container.AllConstraints() {
			if k != selected {
				h.items[k] = style{strokeContainer, 4}
			}
		}
	}
	return h
}

func (h highlights) body(b *physics.Body) style {
	if s, ok := h.items[b]; ok {
		return s
	}
	return style{strokeDefault, 1}
}

func (h highlights) part(shell, p *physics.Body) style {
	if s, ok := h.parts[p]; ok {
		return s
	}
	return h.body(shell)
}

func (h highlights) constraint(k *physics.Constraint) style {
	if s, ok := h.items[k]; ok {
		return s
	}
	return style{strokeDefault, 2}
}

// CompileDrawCommands generates the draw command buffer for the whole scene.
func CompileDrawCommands(g *scene.Graph, sel selection.State, pending []*physics.Body, container *scene.Container) []DrawCommand {
	h := computeHighlights(sel, pending, container)

	var commands []DrawCommand
	for _, b := range g.AllBodies() {
		compileBody(b, h, &commands)
	}
	for _, k := range g.AllConstraints() {
		s := h.constraint(k)
		commands = append(commands, DrawCommand{
			Op:          "line",
			ObjectID:    k.ID,
			Points:      []geom.Vec{k.WorldA(), k.WorldB()},
			Stroke:      s.stroke,
			StrokeWidth: s.width,
		})
	}

	// Selected body markers: geometric centre and body position.
	if b := selection.SelectedBody(sel); b != nil {
		centre, position := b.Bounds().Center(), b.Position
		commands = append(commands,
			DrawCommand{Op: "marker", ObjectID: b.ID, Center: &centre, Radius: markerRadius, Fill: markerCentre},
			DrawCommand{Op: "marker", ObjectID: b.ID, Center: &position, Radius: markerRadius, Fill: markerPosition},
		)
	}
	return commands
}

// compileBody emits one closed path per simple body, or one per part for a
// compound. Parts carry the shell id so hits resolve to the compound.
func compileBody(b *physics.Body, h highlights, commands *[]DrawCommand) {
	if !b.IsCompound() {
		s := h.body(b)
		*commands = append(*commands, DrawCommand{
			Op:          "path",
			ObjectID:    b.ID,
			Points:      b.Vertices(),
			Fill:        b.Fill,
			Stroke:      s.stroke,
			StrokeWidth: s.width,
		})
		return
	}
	for _, p := range b.Parts[1:] {
		s := h.part(b, p)
		fill := p.Fill
		if fill == "" {
			fill = b.Fill
		}
		*commands = append(*commands, DrawCommand{
			Op:          "path",
			ObjectID:    b.ID,
			Points:      p.Vertices(),
			Fill:        fill,
			Stroke:      s.stroke,
			StrokeWidth: s.width,
		})
	}
}

// DrawCommandsToJSON serializes draw commands to a JSON string.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	if commands == nil {
		return "[]", nil
	}
	data, err := json.Marshal(commands)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
