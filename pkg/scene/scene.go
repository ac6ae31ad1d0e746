// Package scene describes what to visualize: a list of named entities,
// each a parametric shape sampled over a domain, optionally textured by a
// rational complex function. A Scene is produced by evaluating a scene
// script and is not mutated afterwards.
package scene

import (
	"fmt"

	"github.com/chazu/parasurf/pkg/mero"
	"github.com/chazu/parasurf/pkg/surface"
	"github.com/chazu/parasurf/pkg/tessellate"
)

// DefaultResolution is the per-axis cell count used when neither the
// entity nor the scene defaults name one.
const DefaultResolution = 100

// Defaults contains scene-wide settings applied to entities that leave
// them unset.
type Defaults struct {
	Resolution surface.Resolution    `json:"resolution"`
	Views      []tessellate.Topology `json:"views"`
}

// SourceRef points back at the script form that created an entity.
type SourceRef struct {
	Expr string `json:"expr,omitempty"`
}

// UVMode selects how texture coordinates are produced for an entity.
type UVMode int

const (
	UVZero   UVMode = iota // every vertex at (0, 0)
	UVDomain               // domain normalized to [0, 1]^2
	UVMero                 // rational function, encoded per Encoding
)

func (m UVMode) String() string {
	switch m {
	case UVZero:
		return "zero"
	case UVDomain:
		return "domain"
	case UVMero:
		return "mero"
	default:
		return fmt.Sprintf("UVMode(%d)", int(m))
	}
}

// MeroSpec is the initial state of an entity's rational function.
type MeroSpec struct {
	Factor complex128   `json:"factor"`
	Zeros  []complex128 `json:"zeros,omitempty"`
	Poles  []complex128 `json:"poles,omitempty"`
}

// Build returns a fresh Mero with the seed's factor, zeros and poles.
func (m *MeroSpec) Build() *mero.Mero {
	out := mero.New()
	if m == nil {
		return out
	}
	out.Factor = m.Factor
	out.Zeros = append(out.Zeros, m.Zeros...)
	out.Poles = append(out.Poles, m.Poles...)
	return out
}

// Entity is one visualized object.
type Entity struct {
	Name       string                `json:"name"`
	Shape      ShapeSpec             `json:"shape"`
	Domain     *surface.Domain       `json:"domain,omitempty"` // nil means the shape's default
	Resolution surface.Resolution    `json:"resolution"`       // zero means the scene default
	Views      []tessellate.Topology `json:"views,omitempty"`  // empty means the scene default
	UV         UVMode                `json:"uv"`
	Encoding   string                `json:"encoding,omitempty"`
	Mero       *MeroSpec             `json:"mero,omitempty"`
	Source     SourceRef             `json:"source"`
}

// ResolvedDomain returns the entity's domain or the shape default.
func (e *Entity) ResolvedDomain() surface.Domain {
	if e.Domain != nil {
		return *e.Domain
	}
	return e.Shape.DefaultDomain()
}

// ResolvedResolution returns the entity's resolution or the default.
// Each axis is resolved separately.
func (e *Entity) ResolvedResolution(d Defaults) surface.Resolution {
	r := e.Resolution
	if r.X == 0 {
		r.X = d.Resolution.X
	}
	if r.Y == 0 {
		r.Y = d.Resolution.Y
	}
	return r
}

// ResolvedViews returns the entity's views or the default.
func (e *Entity) ResolvedViews(d Defaults) []tessellate.Topology {
	if len(e.Views) > 0 {
		return e.Views
	}
	return d.Views
}

// Scene is the top-level immutable description produced by evaluation.
type Scene struct {
	Entities  []*Entity      `json:"entities"`
	NameIndex map[string]int `json:"name_index"`
	Texture   string         `json:"texture,omitempty"`
	Focus     string         `json:"focus,omitempty"`
	Defaults  Defaults       `json:"defaults"`
}

// New creates an empty Scene with default settings.
func New() *Scene {
	return &Scene{
		NameIndex: make(map[string]int),
		Defaults: Defaults{
			Resolution: surface.Resolution{X: DefaultResolution, Y: DefaultResolution},
			Views:      []tessellate.Topology{tessellate.Triangles},
		},
	}
}

// AddEntity appends an entity. It does not check for duplicate names;
// Validate reports them.
func (s *Scene) AddEntity(e *Entity) {
	s.Entities = append(s.Entities, e)
	if e.Name != "" {
		if _, ok := s.NameIndex[e.Name]; !ok {
			s.NameIndex[e.Name] = len(s.Entities) - 1
		}
	}
}

// Lookup returns the first entity with the given name, or nil.
func (s *Scene) Lookup(name string) *Entity {
	i, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Entities[i]
}

// MustLookup returns the entity with the given name, or panics.
func (s *Scene) MustLookup(name string) *Entity {
	e := s.Lookup(name)
	if e == nil {
		panic(fmt.Sprintf("scene: no entity named %q", name))
	}
	return e
}

// EntityCount returns the number of entities.
func (s *Scene) EntityCount() int {
	return len(s.Entities)
}

// FocusEntity returns the entity that receives pointer edits: the named
// focus if set, otherwise the first entity with a mero texture, otherwise
// the first entity. It returns nil for an empty scene.
func (s *Scene) FocusEntity() *Entity {
	if s.Focus != "" {
		return s.Lookup(s.Focus)
	}
	for _, e := range s.Entities {
		if e.UV == UVMero {
			return e
		}
	}
	if len(s.Entities) > 0 {
		return s.Entities[0]
	}
	return nil
}
