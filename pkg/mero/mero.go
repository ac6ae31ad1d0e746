// Package mero evaluates rational functions of one complex variable given
// by a leading factor, a set of zeros and a set of poles, and encodes their
// values as texture coordinates.
package mero

import (
	"fmt"
	"math"
	"math/cmplx"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

const tau = 2 * math.Pi

// Mero describes f(z) = Factor * prod(z - zero) / prod(z - pole).
//
// A Mero is owned by a single entity and mutated only through AddZero and
// AddPole. Zeros and poles are never removed.
type Mero struct {
	Factor complex128   `json:"factor"`
	Zeros  []complex128 `json:"zeros"`
	Poles  []complex128 `json:"poles"`

	version uint64
}

// New returns the constant function 1.
func New() *Mero {
	return &Mero{Factor: 1}
}

// AddZero appends a zero at p.
func (m *Mero) AddZero(p complex128) {
	m.Zeros = append(m.Zeros, p)
	m.version++
}

// AddPole appends a pole at p.
func (m *Mero) AddPole(p complex128) {
	m.Poles = append(m.Poles, p)
	m.version++
}

// SetFactor replaces the leading factor.
func (m *Mero) SetFactor(f complex128) {
	m.Factor = f
	m.version++
}

// Version increases with every mutation. Consumers compare it with the
// version they last rendered to decide whether to rebuild.
func (m *Mero) Version() uint64 {
	return m.version
}

// Degree returns the number of zeros minus the number of poles.
func (m *Mero) Degree() int {
	return len(m.Zeros) - len(m.Poles)
}

// Clone returns a deep copy.
func (m *Mero) Clone() *Mero {
	c := &Mero{Factor: m.Factor, version: m.version}
	c.Zeros = append([]complex128(nil), m.Zeros...)
	c.Poles = append([]complex128(nil), m.Poles...)
	return c
}

func (m *Mero) String() string {
	return fmt.Sprintf("mero(factor=%v zeros=%d poles=%d)", m.Factor, len(m.Zeros), len(m.Poles))
}

// Evaluate returns f(z). Zeros are multiplied in before poles. Evaluating
// exactly at a pole divides by zero and yields a non-finite result; it is
// not special-cased.
func (m *Mero) Evaluate(z complex128) complex128 {
	r := m.Factor
	for _, p := range m.Zeros {
		r *= z - p
	}
	for _, p := range m.Poles {
		r *= 1 / (z - p)
	}
	return r
}

// IsFinite reports whether both parts of v are finite.
func IsFinite(v complex128) bool {
	return !cmplx.IsNaN(v) && !cmplx.IsInf(v)
}

// ToComplex reads a domain point as x + iy.
func ToComplex(p v2.Vec) complex128 {
	return complex(p.X, p.Y)
}

// Encoding maps a complex value to a texture coordinate.
type Encoding func(v complex128) v2.Vec

// TextureCoord is the default encoding: (0, |v|). The phase is discarded.
func TextureCoord(v complex128) v2.Vec {
	return v2.Vec{X: 0, Y: cmplx.Abs(v)}
}

// SpiralTextureCoord encodes the phase in u, normalized to [0, 1], and the
// modulus in v.
func SpiralTextureCoord(v complex128) v2.Vec {
	return v2.Vec{X: cmplx.Phase(v)/tau + 0.5, Y: cmplx.Abs(v)}
}

// UV evaluates the function at the domain point p and encodes the value
// with TextureCoord.
func (m *Mero) UV(p v2.Vec) v2.Vec {
	return TextureCoord(m.Evaluate(ToComplex(p)))
}

// UVWith returns a domain-to-texture mapping using the given encoding.
// A nil encoding selects TextureCoord. The returned function reads the
// Mero on every call, so it sees later zeros and poles.
func (m *Mero) UVWith(enc Encoding) func(p v2.Vec) v2.Vec {
	if enc == nil {
		enc = TextureCoord
	}
	return func(p v2.Vec) v2.Vec {
		return enc(m.Evaluate(ToComplex(p)))
	}
}

// ParseEncoding resolves an encoding by name ("modulus" or "spiral").
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "", "modulus":
		return TextureCoord, nil
	case "spiral":
		return SpiralTextureCoord, nil
	}
	return nil, fmt.Errorf("mero: unknown encoding %q", name)
}
