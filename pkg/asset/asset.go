// Package asset loads texture images from disk. PNG, JPEG, GIF, BMP, TIFF
// and WebP are recognised.
package asset

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrAssetLoad is returned when a texture cannot be read or decoded.
var ErrAssetLoad = errors.New("asset load failed")

// Texture is a decoded image together with where it came from.
type Texture struct {
	Path   string
	Format string
	Image  image.Image
}

// LoadTexture reads and decodes the image at path.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetLoad, err)
	}
	defer f.Close()
	return DecodeTexture(f, path)
}

// DecodeTexture decodes an image from r. name is recorded as the Path.
func DecodeTexture(r io.Reader, name string) (*Texture, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAssetLoad, name, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s: empty image", ErrAssetLoad, name)
	}
	return &Texture{Path: name, Format: format, Image: img}, nil
}

// Size returns the image width and height in pixels.
func (t *Texture) Size() (int, int) {
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

// At samples the texture with repeat wrapping, nearest pixel. v = 0 is the
// bottom row. Non-finite coordinates give a transparent color.
func (t *Texture) At(u, v float64) color.Color {
	if math.IsNaN(u) || math.IsNaN(v) || math.IsInf(u, 0) || math.IsInf(v, 0) {
		return color.Transparent
	}
	b := t.Image.Bounds()
	w, h := b.Dx(), b.Dy()
	x := wrap(int(math.Floor(u*float64(w))), w)
	y := wrap(int(math.Floor(v*float64(h))), h)
	return t.Image.At(b.Min.X+x, b.Max.Y-1-y)
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// DataURL re-encodes the texture as a PNG data URL for the web view.
func (t *Texture) DataURL() (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, t.Image); err != nil {
		return "", fmt.Errorf("encode %s: %w", t.Path, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
