package world

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Event is an input applied to the world by Tick.
type Event interface {
	apply(w *World) error
}

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft  Button = iota // adds a zero
	ButtonRight               // adds a pole
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	default:
		return fmt.Sprintf("Button(%d)", int(b))
	}
}

// Click is a pointer release. Pos is the cursor position normalized to
// [0, 1] x [0, 1]; it is mapped onto the focused entity's domain.
type Click struct {
	Button Button
	Pos    v2.Vec
}

func (c Click) apply(w *World) error {
	e := w.focus
	if e == nil {
		return ErrNoFocus
	}
	d := e.Surface.Domain
	z := v2.Vec{
		X: d.Start.X + c.Pos.X*(d.End.X-d.Start.X),
		Y: d.Start.Y + c.Pos.Y*(d.End.Y-d.Start.Y),
	}
	switch c.Button {
	case ButtonLeft:
		e.Mero.AddZero(complex(z.X, z.Y))
	case ButtonRight:
		e.Mero.AddPole(complex(z.X, z.Y))
	default:
		return fmt.Errorf("world: click: unknown button %v", c.Button)
	}
	e.markDirty()
	return nil
}

// Drag is a pointer movement in pixels; it orbits the camera.
type Drag struct {
	DX, DY float64
}

func (d Drag) apply(w *World) error {
	w.camera.Orbit(d.DX, d.DY)
	return nil
}

// KeyCode identifies a key.
type KeyCode int

const (
	KeyOther KeyCode = iota
	KeyEscape
)

// Key is a key press. Escape ends the session; other keys are ignored.
type Key struct {
	Code KeyCode
}

func (k Key) apply(w *World) error {
	if k.Code == KeyEscape {
		w.done = true
	}
	return nil
}

// Focus selects the entity that receives clicks.
type Focus struct {
	Name string
}

func (f Focus) apply(w *World) error {
	e, err := w.Lookup(f.Name)
	if err != nil {
		return err
	}
	w.focus = e
	return nil
}
