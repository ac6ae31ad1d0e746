// Package surface samples parametric maps from a rectangular 2D domain into
// 3D space. A Surface holds the sampled grid of positions, the estimated
// per-vertex normals and the triangle list covering the grid.
package surface

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/parasurf/pkg/tessellate"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrInvalidDomain is returned by Sample for zero-size domains and
// non-positive resolutions.
var ErrInvalidDomain = errors.New("invalid parameter domain")

// NormalEpsilonDivisor sets the probe offset used for normal estimation
// relative to the smaller grid step.
const NormalEpsilonDivisor = 1000

// degenerateTolerance is the relative length below which a summed normal
// is treated as undefined.
const degenerateTolerance = 1e-12

// Func is a parametric map from the domain into 3D space.
type Func interface {
	At(p v2.Vec) v3.Vec
}

// FuncOf adapts a plain function to Func.
type FuncOf func(x, y float64) v3.Vec

// At evaluates the function at p.
func (f FuncOf) At(p v2.Vec) v3.Vec {
	return f(p.X, p.Y)
}

// Domain is the rectangle [Start, End] in parameter space. End may be
// smaller than Start on either axis; the grid then runs backwards.
type Domain struct {
	Start v2.Vec `json:"start"`
	End   v2.Vec `json:"end"`
}

// UnitDomain is [0,1] x [0,1], the domain of the built-in shapes.
var UnitDomain = Domain{Start: v2.Vec{X: 0, Y: 0}, End: v2.Vec{X: 1, Y: 1}}

// Size returns End - Start.
func (d Domain) Size() v2.Vec {
	return d.End.Sub(d.Start)
}

// Validate reports whether the domain spans a non-empty rectangle.
func (d Domain) Validate() error {
	for _, f := range []float64{d.Start.X, d.Start.Y, d.End.X, d.End.Y} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite bound in %v..%v", ErrInvalidDomain, d.Start, d.End)
		}
	}
	if d.Start.X == d.End.X || d.Start.Y == d.End.Y {
		return fmt.Errorf("%w: zero extent %v..%v", ErrInvalidDomain, d.Start, d.End)
	}
	return nil
}

// Resolution is the number of grid cells along each axis.
type Resolution struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// MaxVertices is the largest vertex count addressable by uint32 indices.
const MaxVertices = math.MaxUint32

// Validate reports whether both axes have at least one cell and the grid
// fits the uint32 index range.
func (r Resolution) Validate() error {
	if r.X <= 0 || r.Y <= 0 {
		return fmt.Errorf("%w: resolution %dx%d must be positive", ErrInvalidDomain, r.X, r.Y)
	}
	if n := (uint64(r.X) + 1) * (uint64(r.Y) + 1); n > MaxVertices {
		return fmt.Errorf("%w: resolution %dx%d needs %d vertices, beyond the index range", ErrInvalidDomain, r.X, r.Y, n)
	}
	return nil
}

// VertexCount returns (X+1)*(Y+1).
func (r Resolution) VertexCount() int {
	return (r.X + 1) * (r.Y + 1)
}

// Surface is the tessellation of one parametric map. It is not modified
// after Sample returns.
type Surface struct {
	Domain     Domain
	Resolution Resolution
	Positions  []v3.Vec
	Normals    []v3.Vec // unit length, or zero where undefined
	Triangles  []tessellate.Triangle
}

// Sample evaluates f on a (res.X+1) x (res.Y+1) grid over d and estimates
// a normal at every node. Vertex (i, j) sits at index i*(res.Y+1)+j and at
// parameter d.Start + (i/res.X, j/res.Y) * (d.End - d.Start).
func Sample(d Domain, res Resolution, f Func) (*Surface, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("surface: %w", err)
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("surface: %w", err)
	}
	if f == nil {
		return nil, fmt.Errorf("surface: %w: nil function", ErrInvalidDomain)
	}

	step := v2.Vec{
		X: d.Size().X / float64(res.X),
		Y: d.Size().Y / float64(res.Y),
	}
	eps := math.Min(math.Abs(step.X), math.Abs(step.Y)) / NormalEpsilonDivisor
	// Probes follow the grid direction so reversed axes flip the normal
	// together with the triangle winding.
	probe := v2.Vec{X: math.Copysign(eps, step.X), Y: math.Copysign(eps, step.Y)}

	n := res.VertexCount()
	s := &Surface{
		Domain:     d,
		Resolution: res,
		Positions:  make([]v3.Vec, 0, n),
		Normals:    make([]v3.Vec, 0, n),
	}
	for i := 0; i <= res.X; i++ {
		for j := 0; j <= res.Y; j++ {
			p := s.Param(i, j)
			o := f.At(p)
			s.Positions = append(s.Positions, o)
			s.Normals = append(s.Normals, estimateNormal(f, p, o, probe))
		}
	}
	s.Triangles = tessellate.Grid(res.X, res.Y)
	return s, nil
}

// estimateNormal approximates the surface normal at p from four probes
// offset by probe along each parameter axis. The cross products run in
// the order that makes the result agree with the front faces emitted by
// tessellate.Grid.
func estimateNormal(f Func, p v2.Vec, o v3.Vec, probe v2.Vec) v3.Vec {
	a := f.At(v2.Vec{X: p.X + probe.X, Y: p.Y}).Sub(o)
	b := f.At(v2.Vec{X: p.X, Y: p.Y + probe.Y}).Sub(o)
	c := f.At(v2.Vec{X: p.X - probe.X, Y: p.Y}).Sub(o)
	d := f.At(v2.Vec{X: p.X, Y: p.Y - probe.Y}).Sub(o)

	sum := b.Cross(a).Add(c.Cross(b)).Add(d.Cross(c)).Add(a.Cross(d))

	spread := a.Length() + b.Length() + c.Length() + d.Length()
	l := sum.Length()
	if math.IsNaN(l) || math.IsInf(l, 0) || l == 0 || l <= degenerateTolerance*spread*spread {
		return v3.Vec{}
	}
	return sum.DivScalar(l)
}

// Param returns the domain parameter of grid node (i, j).
func (s *Surface) Param(i, j int) v2.Vec {
	size := s.Domain.Size()
	return v2.Vec{
		X: s.Domain.Start.X + float64(i)/float64(s.Resolution.X)*size.X,
		Y: s.Domain.Start.Y + float64(j)/float64(s.Resolution.Y)*size.Y,
	}
}

// Index returns the buffer index of grid node (i, j).
func (s *Surface) Index(i, j int) int {
	return i*(s.Resolution.Y+1) + j
}

// Params returns the parameter of every vertex in buffer order.
func (s *Surface) Params() []v2.Vec {
	out := make([]v2.Vec, 0, s.Resolution.VertexCount())
	for i := 0; i <= s.Resolution.X; i++ {
		for j := 0; j <= s.Resolution.Y; j++ {
			out = append(out, s.Param(i, j))
		}
	}
	return out
}

// VertexCount returns the number of sampled vertices.
func (s *Surface) VertexCount() int {
	return len(s.Positions)
}

// BoundingBox returns the axis-aligned box around all finite positions.
// An empty surface yields the zero box.
func (s *Surface) BoundingBox() sdf.Box3 {
	var bb sdf.Box3
	first := true
	for _, p := range s.Positions {
		if !finite(p) {
			continue
		}
		if first {
			bb = sdf.Box3{Min: p, Max: p}
			first = false
			continue
		}
		bb.Min = bb.Min.Min(p)
		bb.Max = bb.Max.Max(p)
	}
	return bb
}

func finite(v v3.Vec) bool {
	for _, f := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
