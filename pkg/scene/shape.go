package scene

import (
	"fmt"

	"github.com/chazu/parasurf/pkg/surface"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// ShapeKind enumerates the built-in parametric maps.
type ShapeKind int

const (
	ShapeTorus       ShapeKind = iota // ring around the z axis
	ShapePlane                        // height field over the domain
	ShapeSphere                       // latitude/longitude sphere
	ShapeSphereChart                  // stereographic hemisphere chart
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeTorus:
		return "torus"
	case ShapePlane:
		return "plane"
	case ShapeSphere:
		return "sphere"
	case ShapeSphereChart:
		return "sphere-chart"
	default:
		return "unknown"
	}
}

// Height field names accepted by plane shapes.
const (
	HeightFlat = "flat"
	HeightWave = "wave"
)

// ShapeSpec selects a parametric map and its parameters. Only the fields
// relevant to Kind are read.
type ShapeSpec struct {
	Kind       ShapeKind          `json:"kind"`
	A          float64            `json:"a,omitempty"`      // torus ring radius
	B          float64            `json:"b,omitempty"`      // torus tube radius
	Radius     float64            `json:"radius,omitempty"` // sphere radius
	Height     string             `json:"height,omitempty"` // plane height field
	Hemisphere surface.Hemisphere `json:"hemisphere"`
}

// DefaultTorus matches the demo torus: ring 1.0, tube 0.4.
func DefaultTorus() ShapeSpec {
	return ShapeSpec{Kind: ShapeTorus, A: 1.0, B: 0.4}
}

// Func returns the parametric map described by the shape parameters.
func (s ShapeSpec) Func() (surface.Func, error) {
	switch s.Kind {
	case ShapeTorus:
		return surface.Torus(s.A, s.B), nil
	case ShapePlane:
		switch s.Height {
		case "", HeightFlat:
			return surface.Planar(surface.Flat), nil
		case HeightWave:
			return surface.Planar(surface.Wave), nil
		}
		return nil, fmt.Errorf("scene: unknown height field %q", s.Height)
	case ShapeSphere:
		return surface.Sphere(s.Radius), nil
	case ShapeSphereChart:
		return surface.SphereChart(s.Radius, s.Hemisphere), nil
	}
	return nil, fmt.Errorf("scene: unknown shape kind %v", s.Kind)
}

// DefaultDomain is [-1, 1]^2 for sphere charts and [0, 1]^2 otherwise.
func (s ShapeSpec) DefaultDomain() surface.Domain {
	if s.Kind == ShapeSphereChart {
		return surface.Domain{Start: v2.Vec{X: -1, Y: -1}, End: v2.Vec{X: 1, Y: 1}}
	}
	return surface.UnitDomain
}
