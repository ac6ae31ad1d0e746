package surface

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrInconsistentSurface is returned by Check when a Surface violates one
// of its structural invariants.
var ErrInconsistentSurface = errors.New("inconsistent surface")

const (
	// unitTolerance bounds how far a defined normal may stray from unit length.
	unitTolerance = 1e-6

	// MinWindingCells is the per-axis cell count below which Check skips
	// the winding test. Coarser grids of curved maps have flat faces that
	// lean away from the sampled normals.
	MinWindingCells = 8

	// windingSlack is how far below zero the cosine between a face normal
	// and its averaged vertex normal may fall before the face is reported.
	windingSlack = 0.1
)

// Check verifies buffer lengths, index bounds, normal lengths and winding.
// A triangle passes the winding check when its face normal does not point
// against the normals of its vertices. Degenerate triangles and triangles
// touching an undefined normal are skipped, and the winding test only runs
// when both axes have at least MinWindingCells cells.
func (s *Surface) Check() error {
	if s == nil {
		return fmt.Errorf("surface: %w: nil surface", ErrInconsistentSurface)
	}
	if len(s.Positions) != len(s.Normals) {
		return fmt.Errorf("surface: %w: %d positions but %d normals",
			ErrInconsistentSurface, len(s.Positions), len(s.Normals))
	}
	if want := s.Resolution.VertexCount(); len(s.Positions) != want {
		return fmt.Errorf("surface: %w: %d positions, resolution %dx%d needs %d",
			ErrInconsistentSurface, len(s.Positions), s.Resolution.X, s.Resolution.Y, want)
	}
	for k, n := range s.Normals {
		l := n.Length()
		if l != 0 && math.Abs(l-1) > unitTolerance {
			return fmt.Errorf("surface: %w: normal %d has length %g", ErrInconsistentSurface, k, l)
		}
	}

	nv := uint32(len(s.Positions))
	checkWinding := s.Resolution.X >= MinWindingCells && s.Resolution.Y >= MinWindingCells
	for k, t := range s.Triangles {
		for _, idx := range t {
			if idx >= nv {
				return fmt.Errorf("surface: %w: triangle %d index %d out of range (%d vertices)",
					ErrInconsistentSurface, k, idx, nv)
			}
		}
		if !checkWinding {
			continue
		}
		face, ok := faceNormal(s.Positions[t[0]], s.Positions[t[1]], s.Positions[t[2]])
		if !ok {
			continue
		}
		var vn v3.Vec
		defined := true
		for _, idx := range t {
			n := s.Normals[idx]
			if n.Length() == 0 {
				defined = false
				break
			}
			vn = vn.Add(n)
		}
		if !defined || vn.Length() == 0 {
			continue
		}
		if face.Dot(vn.Normalize()) < -windingSlack {
			return fmt.Errorf("surface: %w: triangle %d winds against its vertex normals",
				ErrInconsistentSurface, k)
		}
	}
	return nil
}

// faceNormal returns the unit normal of triangle (a, b, c) and false when
// the triangle has no area.
func faceNormal(a, b, c v3.Vec) (v3.Vec, bool) {
	if b.Sub(a).Cross(c.Sub(a)).Length() == 0 {
		return v3.Vec{}, false
	}
	tri := sdf.Triangle3{a, b, c}
	n := tri.Normal()
	if !finite(n) {
		return v3.Vec{}, false
	}
	return n, true
}
