package world_test

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/parasurf/pkg/scene"
	"github.com/chazu/parasurf/pkg/surface"
	"github.com/chazu/parasurf/pkg/tessellate"
	"github.com/chazu/parasurf/pkg/world"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// testScene has a mero-textured torus and a plain plane, both at a small
// resolution.
func testScene() *scene.Scene {
	s := scene.New()
	s.Texture = "phase.png"
	s.Defaults.Resolution = surface.Resolution{X: 8, Y: 8}
	s.AddEntity(&scene.Entity{
		Name:  "floor",
		Shape: scene.ShapeSpec{Kind: scene.ShapePlane},
		UV:    scene.UVDomain,
	})
	s.AddEntity(&scene.Entity{
		Name:  "donut",
		Shape: scene.DefaultTorus(),
		UV:    scene.UVMero,
		Mero:  &scene.MeroSpec{Factor: 1},
		Views: []tessellate.Topology{tessellate.Triangles, tessellate.Lines},
	})
	return s
}

func newWorld(t *testing.T) *world.World {
	t.Helper()
	w, err := world.New(testScene())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestNewBuildsMeshes(t *testing.T) {
	w := newWorld(t)
	if len(w.Entities()) != 2 {
		t.Fatalf("got %d entities, want 2", len(w.Entities()))
	}
	donut, err := w.Lookup("donut")
	if err != nil {
		t.Fatal(err)
	}
	if donut.State() != world.Clean {
		t.Errorf("new entity state = %v, want clean", donut.State())
	}
	views := donut.Views()
	if len(views) != 2 || views[0] != tessellate.Triangles || views[1] != tessellate.Lines {
		t.Fatalf("views = %v, want [triangles lines]", views)
	}
	tris := donut.Mesh(tessellate.Triangles)
	if tris == nil || tris.PrimitiveCount() != 2*8*8 || tris.Name != "donut" {
		t.Errorf("solid mesh = %+v", tris)
	}
	if lines := donut.Mesh(tessellate.Lines); lines == nil || len(lines.Indices) != 6*2*8*8 {
		t.Error("wireframe mesh missing or wrong size")
	}
	if donut.Mesh(tessellate.Points) != nil {
		t.Error("points view was not requested")
	}
	// An empty mero evaluates to 1 everywhere: uv = (0, 1).
	for k, uv := range tris.UVs {
		if uv != [2]float32{0, 1} {
			t.Fatalf("uv[%d] = %v, want (0, 1)", k, uv)
		}
	}
	if w.Focused() != donut {
		t.Error("mero entity should have focus")
	}
	if w.Texture() != "phase.png" {
		t.Errorf("Texture() = %q", w.Texture())
	}
}

func TestNewInvalidDomain(t *testing.T) {
	s := testScene()
	bad := surface.Domain{Start: v2.Vec{X: 0, Y: 0}, End: v2.Vec{X: 0, Y: 1}}
	s.Entities[0].Domain = &bad
	_, err := world.New(s)
	if !errors.Is(err, surface.ErrInvalidDomain) {
		t.Fatalf("New error = %v, want ErrInvalidDomain", err)
	}
}

func TestClickDirtyThenClean(t *testing.T) {
	w := newWorld(t)
	donut, _ := w.Lookup("donut")
	before := donut.Mesh(tessellate.Triangles)

	w.Push(world.Click{Button: world.ButtonLeft, Pos: v2.Vec{X: 0.3, Y: 0.6}})
	if w.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", w.Pending())
	}
	if donut.State() != world.Clean {
		t.Error("queued event must not change state before Tick")
	}
	if err := w.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if donut.State() != world.Clean {
		t.Errorf("state after Tick = %v, want clean", donut.State())
	}
	if len(donut.Mero.Zeros) != 1 {
		t.Fatalf("zeros = %v", donut.Mero.Zeros)
	}
	z := donut.Mero.Zeros[0]
	if !scalar.EqualWithinAbs(real(z), 0.3, 1e-12) || !scalar.EqualWithinAbs(imag(z), 0.6, 1e-12) {
		t.Errorf("zero at %v, want 0.3+0.6i", z)
	}

	after := donut.Mesh(tessellate.Triangles)
	if after == before {
		t.Fatal("reassembly must publish a new mesh")
	}
	if before.UVs[0] != [2]float32{0, 1} {
		t.Error("published mesh was modified in place")
	}
	if &after.Positions[0] == &before.Positions[0] {
		t.Error("new mesh shares position storage with the old one")
	}
	// Vertex (0,0) has parameter 0, so |0 - z| = |z|.
	want := float32(math.Hypot(0.3, 0.6))
	if !scalar.EqualWithinAbs(float64(after.UVs[0][1]), float64(want), 1e-6) {
		t.Errorf("uv[0] = %v, want modulus %g", after.UVs[0], want)
	}
}

func TestClickMapsOntoDomain(t *testing.T) {
	s := testScene()
	d := surface.Domain{Start: v2.Vec{X: -1, Y: 2}, End: v2.Vec{X: 1, Y: 4}}
	s.Entities[1].Domain = &d
	w, err := world.New(s)
	if err != nil {
		t.Fatal(err)
	}
	w.Push(world.Click{Button: world.ButtonRight, Pos: v2.Vec{X: 0.25, Y: 0.5}})
	if err := w.Tick(); err != nil {
		t.Fatal(err)
	}
	donut, _ := w.Lookup("donut")
	if len(donut.Mero.Poles) != 1 || donut.Mero.Poles[0] != complex(-0.5, 3) {
		t.Errorf("poles = %v, want [-0.5+3i]", donut.Mero.Poles)
	}
}

func TestEventsAppliedInOrder(t *testing.T) {
	w := newWorld(t)
	w.Push(world.Focus{Name: "floor"})
	w.Push(world.Click{Button: world.ButtonLeft, Pos: v2.Vec{X: 0.5, Y: 0.5}})
	w.Push(world.Focus{Name: "donut"})
	w.Push(world.Click{Button: world.ButtonRight, Pos: v2.Vec{X: 0.5, Y: 0.5}})
	if err := w.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	floor, _ := w.Lookup("floor")
	donut, _ := w.Lookup("donut")
	if len(floor.Mero.Zeros) != 1 || len(floor.Mero.Poles) != 0 {
		t.Errorf("floor mero = %v", floor.Mero)
	}
	if len(donut.Mero.Zeros) != 0 || len(donut.Mero.Poles) != 1 {
		t.Errorf("donut mero = %v", donut.Mero)
	}
	if w.Pending() != 0 {
		t.Errorf("queue not drained: %d", w.Pending())
	}
}

func TestPoleOnVertexIsNotAnError(t *testing.T) {
	w := newWorld(t)
	// (0.5, 0.5) is a grid node at resolution 8.
	w.Push(world.Click{Button: world.ButtonRight, Pos: v2.Vec{X: 0.5, Y: 0.5}})
	if err := w.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	donut, _ := w.Lookup("donut")
	if n := donut.Mesh(tessellate.Triangles).NonFiniteUVs(); n != 1 {
		t.Errorf("NonFiniteUVs() = %d, want 1", n)
	}
}

func TestEventErrors(t *testing.T) {
	w := newWorld(t)
	w.Push(world.Focus{Name: "ghost"})
	w.Push(world.Click{Button: world.Button(7)})
	w.Push(world.Click{Button: world.ButtonLeft, Pos: v2.Vec{X: 0.1, Y: 0.1}})
	err := w.Tick()
	if !errors.Is(err, world.ErrUnknownEntity) {
		t.Errorf("Tick error = %v, want ErrUnknownEntity", err)
	}
	donut, _ := w.Lookup("donut")
	if len(donut.Mero.Zeros) != 1 {
		t.Error("events after a failure should still apply")
	}

	empty, err := world.New(scene.New())
	if err != nil {
		t.Fatal(err)
	}
	empty.Push(world.Click{Button: world.ButtonLeft})
	if err := empty.Tick(); !errors.Is(err, world.ErrNoFocus) {
		t.Errorf("click without focus = %v, want ErrNoFocus", err)
	}
}

func TestDirectMeroEditIsNoticed(t *testing.T) {
	w := newWorld(t)
	donut, _ := w.Lookup("donut")
	donut.Mero.AddZero(0.5 + 0.5i)
	if donut.State() != world.Dirty {
		t.Fatal("editing the mero should make the entity dirty")
	}
	if err := w.Tick(); err != nil {
		t.Fatal(err)
	}
	if donut.State() != world.Clean {
		t.Error("Tick should rebuild the entity")
	}
}

func TestEscapeEndsSession(t *testing.T) {
	w := newWorld(t)
	w.Push(world.Key{Code: world.KeyOther})
	if err := w.Tick(); err != nil || w.Done() {
		t.Fatalf("other key: err = %v, done = %v", err, w.Done())
	}
	w.Push(world.Key{Code: world.KeyEscape})
	if err := w.Tick(); err != nil {
		t.Fatal(err)
	}
	if !w.Done() {
		t.Error("Escape should end the session")
	}
}

func TestDragOrbitsCamera(t *testing.T) {
	w := newWorld(t)
	start := w.Camera()
	w.Push(world.Drag{DX: 40, DY: -25})
	if err := w.Tick(); err != nil {
		t.Fatal(err)
	}
	cam := w.Camera()
	if cam.Position == start.Position {
		t.Fatal("drag did not move the camera")
	}
	if !scalar.EqualWithinAbs(cam.Distance(), start.Distance(), 1e-9) {
		t.Errorf("distance %g, want %g", cam.Distance(), start.Distance())
	}
}

func TestOrbit(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		check  func(c world.Camera) bool
	}{
		{"yaw keeps height", 50, 0, func(c world.Camera) bool {
			return scalar.EqualWithinAbs(c.Position.Y, 0, 1e-12) && c.Position.X < 0
		}},
		{"pitch keeps x", 0, 30, func(c world.Camera) bool {
			return scalar.EqualWithinAbs(c.Position.X, 0, 1e-12) && c.Position.Y != 0
		}},
		{"quarter turn", -math.Pi / 2 / world.OrbitSensitivity, 0, func(c world.Camera) bool {
			return scalar.EqualWithinAbs(c.Position.X, 4, 1e-9) && scalar.EqualWithinAbs(c.Position.Z, 0, 1e-9)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := world.DefaultCamera()
			c.Orbit(tt.dx, tt.dy)
			if !tt.check(c) {
				t.Errorf("camera at %v", c.Position)
			}
			if !scalar.EqualWithinAbs(c.Distance(), 4, 1e-9) {
				t.Errorf("distance %g, want 4", c.Distance())
			}
		})
	}
}

func TestOrbitClampsPitch(t *testing.T) {
	c := world.DefaultCamera()
	for i := 0; i < 100; i++ {
		c.Orbit(0, 10)
	}
	up := r3.Unit(c.Up)
	dir := r3.Unit(r3.Sub(c.Position, c.Target))
	if math.Abs(r3.Dot(dir, up)) >= 0.99 {
		t.Errorf("camera reached the pole: %v", c.Position)
	}
}
