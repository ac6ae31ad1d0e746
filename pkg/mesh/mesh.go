// Package mesh assembles render-ready buffers from a sampled surface.
// A Mesh is rebuilt whenever its inputs change and is never edited after
// it has been handed to a renderer.
package mesh

import (
	"fmt"
	"math"

	"github.com/chazu/parasurf/pkg/surface"
	"github.com/chazu/parasurf/pkg/tessellate"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Mesh holds per-vertex attributes plus an index buffer whose meaning is
// given by Topology.
type Mesh struct {
	Name      string              `json:"name"`
	Positions [][3]float32        `json:"positions"`
	Normals   [][3]float32        `json:"normals"`
	UVs       [][2]float32        `json:"uvs"`
	Indices   []uint32            `json:"indices"`
	Topology  tessellate.Topology `json:"topology"`
}

// UVFunc maps a domain parameter to a texture coordinate.
type UVFunc func(p v2.Vec) v2.Vec

// DomainUV maps the domain onto [0,1] x [0,1].
func DomainUV(d surface.Domain) UVFunc {
	size := d.Size()
	return func(p v2.Vec) v2.Vec {
		return v2.Vec{
			X: (p.X - d.Start.X) / size.X,
			Y: (p.Y - d.Start.Y) / size.Y,
		}
	}
}

// Assemble builds a mesh of the given topology from s. Positions and
// normals are copied from the surface; uv is evaluated at each vertex's
// domain parameter. A nil uv leaves every texture coordinate at zero.
// Non-finite texture coordinates are kept as they are.
func Assemble(s *surface.Surface, topo tessellate.Topology, uv UVFunc) (*Mesh, error) {
	if s == nil {
		return nil, fmt.Errorf("mesh: nil surface")
	}
	indices, err := tessellate.Indices(s.Triangles, topo)
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}

	n := len(s.Positions)
	m := &Mesh{
		Positions: make([][3]float32, n),
		Normals:   make([][3]float32, n),
		UVs:       make([][2]float32, n),
		Indices:   indices,
		Topology:  topo,
	}
	for k, p := range s.Positions {
		m.Positions[k] = [3]float32{float32(p.X), float32(p.Y), float32(p.Z)}
	}
	for k, nv := range s.Normals {
		m.Normals[k] = [3]float32{float32(nv.X), float32(nv.Y), float32(nv.Z)}
	}
	if uv != nil {
		for k, p := range s.Params() {
			t := uv(p)
			m.UVs[k] = [2]float32{float32(t.X), float32(t.Y)}
		}
	}
	return m, nil
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// PrimitiveCount returns the number of triangles, lines or points.
func (m *Mesh) PrimitiveCount() int {
	stride := m.Topology.Stride()
	if stride == 0 {
		return 0
	}
	return len(m.Indices) / stride
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Positions) == 0
}

// NonFiniteUVs counts vertices whose texture coordinate is NaN or infinite,
// which happens when a vertex sits on a pole.
func (m *Mesh) NonFiniteUVs() int {
	count := 0
	for _, uv := range m.UVs {
		if !finite32(uv[0]) || !finite32(uv[1]) {
			count++
		}
	}
	return count
}

func finite32(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
