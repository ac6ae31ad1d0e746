// Package tessellate turns a regular rows x cols grid of vertices into
// index buffers. The triangle list is the source of truth; the wireframe
// and point-cloud buffers are derived from it.
package tessellate

import (
	"fmt"
	"strings"
)

// Triangle is a triple of vertex indices.
type Triangle [3]uint32

// Topology says how an index buffer is interpreted by the renderer.
type Topology int

const (
	Triangles Topology = iota // triangle list, 3 indices per primitive
	Lines                     // line list, 2 indices per primitive
	Points                    // point list, 1 index per primitive
)

func (t Topology) String() string {
	switch t {
	case Triangles:
		return "triangles"
	case Lines:
		return "lines"
	case Points:
		return "points"
	default:
		return fmt.Sprintf("Topology(%d)", int(t))
	}
}

// Stride returns the number of indices per primitive.
func (t Topology) Stride() int {
	switch t {
	case Triangles:
		return 3
	case Lines:
		return 2
	case Points:
		return 1
	default:
		return 0
	}
}

// ParseTopology accepts the canonical names as well as the view names
// used in scene scripts (solid, wireframe, cloud).
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "triangles", "solid":
		return Triangles, nil
	case "lines", "wireframe":
		return Lines, nil
	case "points", "cloud":
		return Points, nil
	}
	return 0, fmt.Errorf("tessellate: unknown topology %q", s)
}

// Grid triangulates a grid of (rows+1) x (cols+1) vertices laid out
// row-major. Each cell becomes two triangles sharing the bl-tr diagonal:
//
//	[tl, bl, tr] and [tr, bl, br]
//
// The diagonal and winding are fixed; renderers and the normal estimator
// in package surface both rely on them. Callers keep the vertex count
// within uint32; surface.Resolution.Validate enforces it.
func Grid(rows, cols int) []Triangle {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	stride := uint32(cols + 1)
	tris := make([]Triangle, 0, 2*rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			bl := uint32(i)*stride + uint32(j)
			br := bl + 1
			tl := uint32(i+1)*stride + uint32(j)
			tr := tl + 1
			tris = append(tris, Triangle{tl, bl, tr}, Triangle{tr, bl, br})
		}
	}
	return tris
}

// Flatten returns the triangle-list index buffer.
func Flatten(tris []Triangle) []uint32 {
	out := make([]uint32, 0, len(tris)*3)
	for _, t := range tris {
		out = append(out, t[0], t[1], t[2])
	}
	return out
}

// Wireframe returns a line-list index buffer with the three edges of every
// triangle. Edges shared by neighbouring triangles appear twice.
func Wireframe(tris []Triangle) []uint32 {
	out := make([]uint32, 0, len(tris)*6)
	for _, t := range tris {
		out = append(out, t[0], t[1], t[1], t[2], t[2], t[0])
	}
	return out
}

// PointCloud returns a point-list index buffer containing every index
// referenced by the triangles, in order, duplicates included.
func PointCloud(tris []Triangle) []uint32 {
	return Flatten(tris)
}

// Indices builds the index buffer for the requested topology.
func Indices(tris []Triangle, topo Topology) ([]uint32, error) {
	switch topo {
	case Triangles:
		return Flatten(tris), nil
	case Lines:
		return Wireframe(tris), nil
	case Points:
		return PointCloud(tris), nil
	}
	return nil, fmt.Errorf("tessellate: unsupported topology %v", topo)
}

// MaxIndex returns the largest index referenced, or -1 for an empty list.
func MaxIndex(tris []Triangle) int64 {
	max := int64(-1)
	for _, t := range tris {
		for _, idx := range t {
			if int64(idx) > max {
				max = int64(idx)
			}
		}
	}
	return max
}
