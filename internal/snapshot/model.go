package snapshot

import "github.com/rigkit/rigkit/internal/geom"

// Version is written into every snapshot.
const Version = 1

// Snapshot describes a container subtree.
type Snapshot struct {
	Version     int          `json:"version,omitempty" yaml:"version,omitempty"`
	ID          string       `json:"id" yaml:"id"`
	Label       string       `json:"label" yaml:"label"`
	Angle       float64      `json:"angle" yaml:"angle"`
	Scale       float64      `json:"scale" yaml:"scale"`
	Bodies      []Body       `json:"bodies" yaml:"bodies"`
	Constraints []Constraint `json:"constraints" yaml:"constraints"`
	Composites  []Snapshot   `json:"composites,omitempty" yaml:"composites,omitempty"`
	// Detached holds bodies outside the subtree that its constraints
	// reference. Only the top-level snapshot carries them.
	Detached []Body `json:"detached,omitempty" yaml:"detached,omitempty"`
}

type Body struct {
	ID             string   `json:"id" yaml:"id"`
	Label          string   `json:"label" yaml:"label"`
	Shape          Shape    `json:"shape" yaml:"shape"`
	Position       geom.Vec `json:"position" yaml:"position,flow"`
	Angle          float64  `json:"angle" yaml:"angle"`
	Static         bool     `json:"static,omitempty" yaml:"static,omitempty"`
	Density        float64  `json:"density" yaml:"density"`
	Friction       float64  `json:"friction" yaml:"friction"`
	FrictionStatic float64  `json:"frictionStatic" yaml:"frictionStatic"`
	FrictionAir    float64  `json:"frictionAir" yaml:"frictionAir"`
	Restitution    float64  `json:"restitution" yaml:"restitution"`
	Filter         Filter   `json:"collisionFilter" yaml:"collisionFilter"`
	Fill           string   `json:"fill,omitempty" yaml:"fill,omitempty"`
	Parts          []Body   `json:"parts,omitempty" yaml:"parts,omitempty"`
}

type Shape struct {
	Kind   string  `json:"kind" yaml:"kind"`
	Radius float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Sides  int     `json:"sides,omitempty" yaml:"sides,omitempty"`
}

type Filter struct {
	Group    int    `json:"group" yaml:"group"`
	Category uint32 `json:"category" yaml:"category"`
	Mask     uint32 `json:"mask" yaml:"mask"`
}

type Constraint struct {
	ID        string   `json:"id" yaml:"id"`
	Label     string   `json:"label" yaml:"label"`
	BodyA     string   `json:"bodyA" yaml:"bodyA"`
	BodyB     string   `json:"bodyB" yaml:"bodyB"`
	PointA    geom.Vec `json:"pointA" yaml:"pointA,flow"`
	PointB    geom.Vec `json:"pointB" yaml:"pointB,flow"`
	Length    float64  `json:"length" yaml:"length"`
	Stiffness float64  `json:"stiffness" yaml:"stiffness"`
	Damping   float64  `json:"damping" yaml:"damping"`
}

// Counts returns the number of bodies and constraints in the subtree,
// excluding detached bodies.
func (s *Snapshot) Counts() (bodies, constraints int) {
	bodies, constraints = len(s.Bodies), len(s.Constraints)
	for i := range s.Composites {
		b, c := s.Composites[i].Counts()
		bodies += b
		constraints += c
	}
	return bodies, constraints
}
