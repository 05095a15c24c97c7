package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/rigkit/rigkit/internal/collab"
	"github.com/rigkit/rigkit/internal/compound"
	"github.com/rigkit/rigkit/internal/editor"
	"github.com/rigkit/rigkit/internal/geom"
	"github.com/rigkit/rigkit/internal/physics"
	"github.com/rigkit/rigkit/internal/selection"
)

// Editor holds the per-scene editor settings read from a TOML file.
type Editor struct {
	Viewport    ViewportConfig    `toml:"viewport"`
	Physics     PhysicsConfig     `toml:"physics"`
	Selection   SelectionConfig   `toml:"selection"`
	Constraints ConstraintsConfig `toml:"constraints"`
	Compound    CompoundConfig    `toml:"compound"`
	Session     SessionConfig     `toml:"session"`
}

type ViewportConfig struct {
	Width   float64 `toml:"width"`
	Height  float64 `toml:"height"`
	Starter bool    `toml:"starter"` // add the starter bodies and walls to new scenes
}

type PhysicsConfig struct {
	GravityX             float64 `toml:"gravity_x"`
	GravityY             float64 `toml:"gravity_y"`
	Iterations           int     `toml:"iterations"`
	SpringStiffnessScale float64 `toml:"spring_stiffness_scale"`
	SpringDampingScale   float64 `toml:"spring_damping_scale"`
}

type SelectionConfig struct {
	ClickTolerance      float64 `toml:"click_tolerance"`
	ConstraintTolerance float64 `toml:"constraint_tolerance"`
}

type ConstraintsConfig struct {
	Stiffness float64 `toml:"stiffness"`
	Damping   float64 `toml:"damping"`
}

type CompoundConfig struct {
	RewireOnBreak bool `toml:"rewire_on_break"`
}

type SessionConfig struct {
	TickRate      time.Duration `toml:"tick_rate"`
	InboxSize     int           `toml:"inbox_size"`
	IdleTimeout   time.Duration `toml:"idle_timeout"`
	BroadcastRate int           `toml:"broadcast_every"` // ticks between state pushes
}

// LoadEditor reads path over the defaults. An empty path returns the
// defaults.
func LoadEditor(path string) (*Editor, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read editor config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse editor config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("editor config %s: %w", path, err)
	}
	return cfg, nil
}

func Defaults() *Editor {
	return &Editor{
		Viewport: ViewportConfig{
			Width:   1280,
			Height:  720,
			Starter: true,
		},
		Physics: PhysicsConfig{
			GravityX:             0,
			GravityY:             1000,
			Iterations:           10,
			SpringStiffnessScale: 1000,
			SpringDampingScale:   100,
		},
		Selection: SelectionConfig{
			ClickTolerance:      5,
			ConstraintTolerance: 10,
		},
		Constraints: ConstraintsConfig{
			Stiffness: physics.DefaultStiffness,
			Damping:   physics.DefaultDamping,
		},
		Compound: CompoundConfig{
			RewireOnBreak: false,
		},
		Session: SessionConfig{
			TickRate:      time.Second / 60,
			InboxSize:     256,
			IdleTimeout:   5 * time.Minute,
			BroadcastRate: 2,
		},
	}
}

func (c *Editor) validate() error {
	switch {
	case c.Viewport.Width <= 0 || c.Viewport.Height <= 0:
		return fmt.Errorf("viewport must be positive, got %vx%v", c.Viewport.Width, c.Viewport.Height)
	case c.Session.TickRate <= 0:
		return fmt.Errorf("session.tick_rate must be positive, got %v", c.Session.TickRate)
	case c.Session.InboxSize <= 0:
		return fmt.Errorf("session.inbox_size must be positive, got %d", c.Session.InboxSize)
	case c.Session.BroadcastRate <= 0:
		return fmt.Errorf("session.broadcast_every must be positive, got %d", c.Session.BroadcastRate)
	}
	return nil
}

// Options converts the file into editor options.
func (c *Editor) Options() editor.Options {
	phys := physics.DefaultConfig()
	phys.Gravity = geom.V(c.Physics.GravityX, c.Physics.GravityY)
	phys.Iterations = c.Physics.Iterations
	phys.SpringStiffnessScale = c.Physics.SpringStiffnessScale
	phys.SpringDampingScale = c.Physics.SpringDampingScale
	phys.StepRate = float64(time.Second) / float64(c.Session.TickRate)

	return editor.Options{
		Width:   c.Viewport.Width,
		Height:  c.Viewport.Height,
		Physics: phys,
		Selection: selection.Options{
			ClickTolerance:      c.Selection.ClickTolerance,
			ConstraintTolerance: c.Selection.ConstraintTolerance,
			Stiffness:           c.Constraints.Stiffness,
			Damping:             c.Constraints.Damping,
		},
		Compound: compound.Options{RewireOnBreak: c.Compound.RewireOnBreak},
		Starter:  c.Viewport.Starter,
	}
}

// Room converts the session section into realtime room settings.
func (c *Editor) Room() collab.RoomConfig {
	return collab.RoomConfig{
		TickRate:       c.Session.TickRate,
		InboxSize:      c.Session.InboxSize,
		IdleTimeout:    c.Session.IdleTimeout,
		BroadcastEvery: c.Session.BroadcastRate,
	}
}
