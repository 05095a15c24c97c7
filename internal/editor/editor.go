// Package editor is the facade the presentation layer talks to. It owns the
// engine, the scene graph and the selection, applies user actions, and
// reports back through UI state, draw commands and notifications.
package editor

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rigkit/rigkit/internal/compound"
	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/scene"
	"github.com/rigkit/rigkit/internal/selection"
	"github.com/rigkit/rigkit/internal/snapshot"
	"github.com/rigkit/rigkit/internal/transform"
)

type Options struct {
	// Viewport size; new bodies drop near its top and the starter scene's
	// walls line its edges.
	Width  float64
	Height float64

	Physics   physics.Config
	Selection selection.Options
	Compound  compound.Options

	// Starter adds the starter bodies and walls on creation.
	Starter bool
	// Seed drives fill colours and drop positions. Zero seeds from the clock.
	Seed uint64
}

func DefaultOptions() Options {
	return Options{
		Width:     1280,
		Height:    720,
		Physics:   physics.DefaultConfig(),
		Selection: selection.DefaultOptions(),
		Starter:   true,
	}
}

// Editor is not safe for concurrent use; one goroutine drives it.
type Editor struct {
	opts Options

	engine      *physics.Engine
	graph       *scene.Graph
	selection   *selection.Controller
	compounds   *compound.Manager
	transformer *transform.Transformer
	serializer  *snapshot.Serializer

	sink Sink
	rng  *rand.Rand

	// Container picked from the container list. It is independent of the
	// item selection and is the target of container actions.
	container *scene.Container

	// Deletion waiting for confirmation
	pending *deletion
}

// New creates an editor. A nil sink logs notifications.
func New(opts Options, sink Sink) (*Editor, error) {
	if sink == nil {
		sink = LogSink{}
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	engine := physics.NewEngine(opts.Physics)
	graph := scene.NewGraph(engine)
	e := &Editor{
		opts:        opts,
		engine:      engine,
		graph:       graph,
		selection:   selection.New(graph, opts.Selection),
		compounds:   compound.NewManager(graph, opts.Compound),
		transformer: transform.New(engine),
		serializer:  snapshot.New(graph),
		sink:        sink,
		rng:         rand.New(rand.NewPCG(seed, seed>>1)),
	}
	if opts.Starter {
		if err := scene.Populate(graph, opts.Width, opts.Height); err != nil {
			return nil, fmt.Errorf("new editor: %w", err)
		}
	}
	return e, nil
}

func (e *Editor) Engine() *physics.Engine {
	return e.engine
}

func (e *Editor) Graph() *scene.Graph {
	return e.graph
}

func (e *Editor) Selection() selection.State {
	return e.selection.State()
}

// Container returns the container that container actions apply to: the
// picked container, or the owner of a selected container child.
func (e *Editor) Container() *scene.Container {
	if e.container != nil {
		return e.container
	}
	if v, ok := e.selection.State().(selection.CompositeChild); ok {
		return v.Owner
	}
	return nil
}

// --- Commands (frontend → backend) ---

// PointerDown forwards a click on the canvas to the selection controller.
func (e *Editor) PointerDown(ev selection.PointerEvent) {
	k, err := e.selection.PointerDown(ev)
	if err != nil {
		e.fail("Could not create constraint: %v", err)
		return
	}
	if k != nil {
		e.notify(SeveritySuccess, "Constraint created between %s and %s.", k.BodyA.Label, k.BodyB.Label)
	}
	switch v := e.selection.State().(type) {
	case selection.CompositeChild:
		e.container = v.Owner
	case selection.MultiGroup:
	default:
		e.container = nil
	}
}

// SelectContainer picks a container by id. An empty id or "none" clears
// the pick.
func (e *Editor) SelectContainer(id string) {
	e.selection.Deselect()
	if id == "" || id == "none" {
		e.container = nil
		return
	}
	c := e.graph.ContainerByID(id)
	if c == nil {
		e.container = nil
		e.fail("Composite %s not found.", id)
		return
	}
	e.container = c
}

// Deselect clears the item selection, the picked container and any
// deletion waiting for confirmation.
func (e *Editor) Deselect() {
	e.selection.Deselect()
	e.container = nil
	e.pending = nil
}

// Pause stops the clock; Resume restarts it.
func (e *Editor) Pause()  { e.engine.Pause() }
func (e *Editor) Resume() { e.engine.Resume() }

// SetGravity scales the configured gravity. One is the default pull and
// zero turns gravity off.
func (e *Editor) SetGravity(scale float64) {
	e.engine.SetGravity(e.opts.Physics.Gravity.Mul(scale))
}

// Tick advances the simulation by dt seconds unless it is paused or a
// multi-step edit is in progress. It reports whether a step was taken.
func (e *Editor) Tick(dt float64) bool {
	return e.engine.Step(dt)
}

// --- Queries (frontend ← backend) ---

// DrawCommands compiles the current scene with selection highlighting.
func (e *Editor) DrawCommands() []DrawCommand {
	return CompileDrawCommands(e.graph, e.selection.State(), e.selection.Pending(), e.Container())
}

// Render returns the draw commands as JSON.
func (e *Editor) Render() string {
	result, _ := DrawCommandsToJSON(e.DrawCommands())
	return result
}

// GetUIState returns the UI state as JSON.
func (e *Editor) GetUIState() string {
	data, _ := json.Marshal(e.UIState())
	return string(data)
}

// HitTest returns the ids of every item under (x, y), topmost first.
func (e *Editor) HitTest(x, y float64) []string {
	var ids []string
	for _, it := range e.selection.Candidates(geom.V(x, y)) {
		ids = append(ids, it.ItemID())
	}
	return ids
}

func (e *Editor) notify(sev Severity, format string, args ...any) {
	e.sink.Notify(Message{Text: fmt.Sprintf(format, args...), Severity: sev})
}

func (e *Editor) fail(format string, args ...any) {
	e.notify(SeverityError, format, args...)
}
