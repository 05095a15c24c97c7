// Package compound merges bodies into rigid compounds and splits them again,
// keeping the constraints that depend on them pointed at live bodies.
package compound

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/scene"
)

var (
	ErrTooFewBodies  = errors.New("select at least two bodies to merge")
	ErrOwnerMismatch = errors.New("bodies belong to different containers")
	ErrNotCompound   = errors.New("body is not a compound")
	ErrNotTracked    = errors.New("body is not in the scene")
)

type Options struct {
	// RewireOnBreak points constraints that were moved onto a compound back
	// at the original bodies when it is broken. Off, they keep referencing
	// the removed shell.
	RewireOnBreak bool
}

// rewire is one constraint endpoint moved onto a compound.
type rewire struct {
	constraint *physics.Constraint
	a, b       *physics.Body // original endpoints, nil when untouched
}

type Manager struct {
	graph   *scene.Graph
	opts    Options
	rewired map[*physics.Body][]rewire
}

func NewManager(graph *scene.Graph, opts Options) *Manager {
	return &Manager{
		graph:   graph,
		opts:    opts,
		rewired: make(map[*physics.Body][]rewire),
	}
}

// Create merges bodies into one compound owned by their common container.
// Constraints of that container touching a merged body are repointed to
// the compound.
func (m *Manager) Create(bodies []*physics.Body) (*physics.Body, error) {
	if len(bodies) < 2 {
		return nil, ErrTooFewBodies
	}
	owner := m.graph.FindOwner(bodies[0])
	if owner == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotTracked, bodies[0].ID)
	}
	for _, b := range bodies[1:] {
		if m.graph.FindOwner(b) != owner {
			return nil, fmt.Errorf("%w: %s", ErrOwnerMismatch, b.ID)
		}
	}
	merged := make(map[*physics.Body]bool, len(bodies))
	for _, b := range bodies {
		if b.IsCompound() {
			return nil, fmt.Errorf("merge %s: %w", b.ID, physics.ErrNestedCompound)
		}
		if merged[b] {
			return nil, fmt.Errorf("merge %s: %w", b.ID, physics.ErrDuplicatePart)
		}
		merged[b] = true
	}

	resume := m.graph.Engine().Suspend()
	defer resume()

	var touching []*physics.Constraint
	for _, k := range owner.AllConstraints() {
		if merged[k.BodyA] || merged[k.BodyB] {
			touching = append(touching, k)
		}
	}

	// Bodies leave the engine before NewCompound records their placement.
	for _, b := range bodies {
		if err := m.graph.RemoveItem(b); err != nil {
			return nil, fmt.Errorf("create compound: %w", err)
		}
	}
	shell, err := physics.NewCompound(bodies)
	if err != nil {
		m.restore(owner, bodies)
		return nil, fmt.Errorf("create compound: %w", err)
	}

	var log []rewire
	for _, k := range touching {
		r := rewire{constraint: k}
		if merged[k.BodyA] {
			r.a = k.BodyA
			k.BodyA = shell
		}
		if merged[k.BodyB] {
			r.b = k.BodyB
			k.BodyB = shell
		}
		log = append(log, r)
	}
	// Attaching the shell activates the rewired constraints.
	if err := m.graph.AddBody(owner, shell); err != nil {
		return nil, fmt.Errorf("create compound: %w", err)
	}
	if len(log) > 0 {
		m.rewired[shell] = log
	}

	slog.Info("compound created", "compound", shell.ID, "parts", len(bodies), "rewired", len(log), "container", owner.ID)
	return shell, nil
}

// Break removes a compound and returns its parts to the same container as
// independent bodies at their current placement, with collision group 0.
func (m *Manager) Break(shell *physics.Body) ([]*physics.Body, error) {
	if !shell.IsCompound() {
		return nil, fmt.Errorf("%w: %s", ErrNotCompound, shell.ID)
	}
	owner := m.graph.FindOwner(shell)
	if owner == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotTracked, shell.ID)
	}

	resume := m.graph.Engine().Suspend()
	defer resume()

	if err := m.graph.RemoveItem(shell); err != nil {
		return nil, fmt.Errorf("break compound: %w", err)
	}
	parts := physics.ReleaseParts(shell)
	for _, p := range parts {
		p.Filter.Group = 0
		if err := m.graph.AddBody(owner, p); err != nil {
			return nil, fmt.Errorf("break compound: %w", err)
		}
	}

	log := m.rewired[shell]
	delete(m.rewired, shell)
	if m.opts.RewireOnBreak {
		for _, r := range log {
			k := r.constraint
			if r.a != nil && k.BodyA == shell {
				k.BodyA = r.a
			}
			if r.b != nil && k.BodyB == shell {
				k.BodyB = r.b
			}
			m.graph.Engine().RefreshConstraint(k)
		}
	}

	slog.Info("compound broken", "compound", shell.ID, "parts", len(parts), "container", owner.ID)
	return parts, nil
}

// Prune drops the rewire log of every compound that is no longer in the
// scene, such as one deleted directly or with its container.
func (m *Manager) Prune() {
	for shell := range m.rewired {
		if m.graph.FindOwner(shell) == nil {
			delete(m.rewired, shell)
			slog.Debug("rewire log dropped", "compound", shell.ID)
		}
	}
}

// Rewired returns how many compounds carry a rewire log.
func (m *Manager) Rewired() int {
	return len(m.rewired)
}

// restore puts bodies back after a failed merge.
func (m *Manager) restore(owner *scene.Container, bodies []*physics.Body) {
	for _, b := range bodies {
		if err := m.graph.AddBody(owner, b); err != nil {
			slog.Error("failed to restore body after merge", "body", b.ID, "error", err)
		}
	}
}
