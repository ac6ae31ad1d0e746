package surface

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const tau = 2 * math.Pi

// HeightFunc gives the height of a planar surface over (x, y).
type HeightFunc func(x, y float64) float64

// Flat is the zero height field.
func Flat(x, y float64) float64 { return 0 }

// Wave is a standing wave with one period per unit along each axis.
func Wave(x, y float64) float64 {
	return 0.5 * math.Sin(tau*x) * math.Sin(tau*y)
}

// Planar lifts a height field into 3D as (x, y, h(x, y)).
func Planar(h HeightFunc) FuncOf {
	if h == nil {
		h = Flat
	}
	return func(x, y float64) v3.Vec {
		return v3.Vec{X: x, Y: y, Z: h(x, y)}
	}
}

// Torus returns a torus around the z axis with ring radius a and tube
// radius b. x runs around the ring, y around the tube, both over [0, 1].
// The tube angle runs clockwise so front faces point away from the core.
func Torus(a, b float64) FuncOf {
	return func(x, y float64) v3.Vec {
		r := a + b*math.Cos(tau*y)
		z := -b * math.Sin(tau*y)
		phi := tau * x
		return v3.Vec{X: r * math.Cos(phi), Y: r * math.Sin(phi), Z: z}
	}
}

// Sphere returns the latitude/longitude chart of a sphere of radius r.
// x is the longitude and y the colatitude, both scaled to [0, 1]. The
// rows at y=0 and y=1 collapse onto the poles, where normals are undefined.
func Sphere(r float64) FuncOf {
	return func(x, y float64) v3.Vec {
		phi := tau * x
		theta := math.Pi * y
		st := math.Sin(theta)
		return v3.Vec{
			X: r * st * math.Cos(phi),
			Y: r * st * math.Sin(phi),
			Z: r * math.Cos(theta),
		}
	}
}

// Hemisphere selects one of the two stereographic charts of the sphere.
type Hemisphere int

const (
	North Hemisphere = iota // chart centred on the north pole
	South                   // chart centred on the south pole
)

func (h Hemisphere) String() string {
	switch h {
	case North:
		return "north"
	case South:
		return "south"
	default:
		return fmt.Sprintf("Hemisphere(%d)", int(h))
	}
}

// SphereChart maps the plane onto the sphere of radius r by inverse
// stereographic projection. The North chart sends the origin to the north
// pole and projects from the south pole; the South chart is its mirror.
// The unit disc covers one hemisphere, so the two charts over [-1, 1]^2
// together cover the sphere.
func SphereChart(r float64, h Hemisphere) FuncOf {
	return func(x, y float64) v3.Vec {
		s := x*x + y*y
		k := r / (1 + s)
		if h == South {
			return v3.Vec{X: 2 * x * k, Y: 2 * y * k, Z: (s - 1) * k}
		}
		return v3.Vec{X: 2 * x * k, Y: -2 * y * k, Z: (1 - s) * k}
	}
}

// Scaled multiplies the output of f by k.
func Scaled(f Func, k float64) Func {
	return scaled{f: f, k: k}
}

type scaled struct {
	f Func
	k float64
}

func (s scaled) At(p v2.Vec) v3.Vec {
	return s.f.At(p).MulScalar(s.k)
}
