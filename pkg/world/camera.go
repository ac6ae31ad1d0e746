package world

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// OrbitSensitivity is the orbit angle in radians per pixel of drag.
const OrbitSensitivity = 0.01

// maxPitch keeps the camera off the poles of its orbit sphere, where the
// up vector and the view direction would become parallel.
const maxPitch = 0.99

// Camera looks at Target from Position with the given Up direction.
type Camera struct {
	Position r3.Vec `json:"position"`
	Target   r3.Vec `json:"target"`
	Up       r3.Vec `json:"up"`
}

// DefaultCamera sits 4 units up the z axis looking at the origin.
func DefaultCamera() Camera {
	return Camera{
		Position: r3.Vec{X: 0, Y: 0, Z: 4},
		Up:       r3.Vec{X: 0, Y: 1, Z: 0},
	}
}

// Distance returns the distance from the camera to its target.
func (c Camera) Distance() float64 {
	return r3.Norm(r3.Sub(c.Position, c.Target))
}

// Orbit rotates the camera about its target. A horizontal drag turns about
// the up axis and a vertical drag tilts about the camera's right axis. The
// distance to the target is preserved. Tilts that would carry the view
// direction onto the up axis are dropped.
func (c *Camera) Orbit(dx, dy float64) {
	offset := r3.Sub(c.Position, c.Target)
	if r3.Norm(offset) == 0 {
		return
	}
	up := r3.Unit(c.Up)

	if dx != 0 {
		yaw := r3.NewRotation(-dx*OrbitSensitivity, up)
		offset = yaw.Rotate(offset)
	}
	if dy != 0 {
		right := r3.Cross(up, offset)
		if r3.Norm(right) > 0 {
			pitch := r3.NewRotation(dy*OrbitSensitivity, r3.Unit(right))
			tilted := pitch.Rotate(offset)
			if math.Abs(r3.Dot(r3.Unit(tilted), up)) < maxPitch {
				offset = tilted
			}
		}
	}
	c.Position = r3.Add(c.Target, offset)
}
