// Package world holds the live state of a loaded scene: one entity per
// scene entry with its sampled surface, its rational function and the
// meshes currently published to the renderer. Input events are queued and
// applied in arrival order by Tick, which then rebuilds every entity whose
// function changed.
package world

import (
	"errors"
	"fmt"
	"log"

	"github.com/chazu/parasurf/pkg/mero"
	"github.com/chazu/parasurf/pkg/mesh"
	"github.com/chazu/parasurf/pkg/scene"
	"github.com/chazu/parasurf/pkg/surface"
	"github.com/chazu/parasurf/pkg/tessellate"
)

var (
	// ErrNoFocus is returned for a click when no entity has focus.
	ErrNoFocus = errors.New("no focused entity")
	// ErrUnknownEntity is returned when an event names a missing entity.
	ErrUnknownEntity = errors.New("unknown entity")
)

// State is an entity's mesh refresh state.
type State int

const (
	Clean State = iota // published meshes match the function
	Dirty              // function changed since the last build
)

func (s State) String() string {
	if s == Dirty {
		return "dirty"
	}
	return "clean"
}

// Entity is one visualized object.
type Entity struct {
	Name    string
	Surface *surface.Surface
	Mero    *mero.Mero

	uv       scene.UVMode
	encoding mero.Encoding
	views    []tessellate.Topology
	meshes   []*mesh.Mesh
	state    State
	built    uint64 // Mero version the published meshes were built from
}

// State reports whether the published meshes are current. Changes made
// directly through the Mero field are noticed via its version.
func (e *Entity) State() State {
	if e.built != e.Mero.Version() {
		return Dirty
	}
	return e.state
}

// Views returns the topologies published for this entity, in order.
func (e *Entity) Views() []tessellate.Topology {
	return append([]tessellate.Topology(nil), e.views...)
}

// Mesh returns the published mesh for topo, or nil.
func (e *Entity) Mesh(topo tessellate.Topology) *mesh.Mesh {
	for _, m := range e.meshes {
		if m.Topology == topo {
			return m
		}
	}
	return nil
}

func (e *Entity) markDirty() {
	e.state = Dirty
}

func (e *Entity) uvFunc() mesh.UVFunc {
	switch e.uv {
	case scene.UVDomain:
		return mesh.DomainUV(e.Surface.Domain)
	case scene.UVMero:
		return e.Mero.UVWith(e.encoding)
	}
	return nil
}

// assemble builds every view from the current surface and function and
// publishes them together. On error the previous meshes stay published.
func (e *Entity) assemble() error {
	uv := e.uvFunc()
	fresh := make([]*mesh.Mesh, 0, len(e.views))
	for _, topo := range e.views {
		m, err := mesh.Assemble(e.Surface, topo, uv)
		if err != nil {
			return fmt.Errorf("world: entity %q: %w", e.Name, err)
		}
		m.Name = e.Name
		fresh = append(fresh, m)
	}
	e.meshes = fresh
	e.built = e.Mero.Version()
	e.state = Clean
	return nil
}

// World is the set of live entities plus the camera and the input queue.
// It is not safe for concurrent use.
type World struct {
	entities []*Entity
	byName   map[string]*Entity
	focus    *Entity
	camera   Camera
	texture  string
	queue    []Event
	done     bool
}

// New samples every entity of s and builds its initial meshes. s is
// expected to have passed scene.Validate. A sampling failure is returned
// wrapped, so errors.Is(err, surface.ErrInvalidDomain) still holds.
func New(s *scene.Scene) (*World, error) {
	w := &World{
		byName:  make(map[string]*Entity),
		camera:  DefaultCamera(),
		texture: s.Texture,
	}
	for _, se := range s.Entities {
		e, err := newEntity(se, s.Defaults)
		if err != nil {
			return nil, err
		}
		w.entities = append(w.entities, e)
		if _, ok := w.byName[e.Name]; !ok {
			w.byName[e.Name] = e
		}
	}
	if fe := s.FocusEntity(); fe != nil {
		w.focus = w.byName[fe.Name]
	}
	return w, nil
}

func newEntity(se *scene.Entity, defaults scene.Defaults) (*Entity, error) {
	f, err := se.Shape.Func()
	if err != nil {
		return nil, fmt.Errorf("world: entity %q: %w", se.Name, err)
	}
	surf, err := surface.Sample(se.ResolvedDomain(), se.ResolvedResolution(defaults), f)
	if err != nil {
		return nil, fmt.Errorf("world: entity %q: %w", se.Name, err)
	}
	enc, err := mero.ParseEncoding(se.Encoding)
	if err != nil {
		return nil, fmt.Errorf("world: entity %q: %w", se.Name, err)
	}
	e := &Entity{
		Name:     se.Name,
		Surface:  surf,
		Mero:     se.Mero.Build(),
		uv:       se.UV,
		encoding: enc,
		views:    append([]tessellate.Topology(nil), se.ResolvedViews(defaults)...),
	}
	if err := e.assemble(); err != nil {
		return nil, err
	}
	return e, nil
}

// Entities returns the entities in scene order.
func (w *World) Entities() []*Entity {
	return append([]*Entity(nil), w.entities...)
}

// Lookup returns the entity with the given name.
func (w *World) Lookup(name string) (*Entity, error) {
	e, ok := w.byName[name]
	if !ok {
		return nil, fmt.Errorf("world: %w %q", ErrUnknownEntity, name)
	}
	return e, nil
}

// Focused returns the entity that receives clicks, or nil.
func (w *World) Focused() *Entity {
	return w.focus
}

// Camera returns the current camera.
func (w *World) Camera() Camera {
	return w.camera
}

// Texture returns the texture path named by the scene.
func (w *World) Texture() string {
	return w.texture
}

// Done reports whether an Escape key has ended the session.
func (w *World) Done() bool {
	return w.done
}

// Push queues an event for the next Tick.
func (w *World) Push(ev Event) {
	w.queue = append(w.queue, ev)
}

// Pending returns the number of queued events.
func (w *World) Pending() int {
	return len(w.queue)
}

// Tick applies every queued event in arrival order, then rebuilds each
// dirty entity once. Event and rebuild failures are joined into the
// returned error; the remaining events are still applied.
func (w *World) Tick() error {
	queue := w.queue
	w.queue = nil

	var errs []error
	for _, ev := range queue {
		if err := ev.apply(w); err != nil {
			log.Printf("world: event %T: %v", ev, err)
			errs = append(errs, err)
		}
	}

	for _, e := range w.entities {
		if e.State() != Dirty {
			continue
		}
		if err := e.assemble(); err != nil {
			log.Printf("world: reassembly failed: %v", err)
			errs = append(errs, err)
			continue
		}
		log.Printf("world: reassembled %q (%d zeros, %d poles, %d views)",
			e.Name, len(e.Mero.Zeros), len(e.Mero.Poles), len(e.meshes))
		for _, m := range e.meshes {
			if n := m.NonFiniteUVs(); n > 0 {
				log.Printf("world: %q %v: %d vertices with non-finite uv", e.Name, m.Topology, n)
			}
		}
	}
	return errors.Join(errs...)
}
