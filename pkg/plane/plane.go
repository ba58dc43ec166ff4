// Package plane holds the pixel buffers shared by every stage of the contrast
// pipeline: 8-bit planes at rest and float fields during computation.
package plane

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrShapeMismatch is returned when buffers cannot be brought to a common shape.
var ErrShapeMismatch = errors.New("shape mismatch")

// Shape is the height, width and channel count of a buffer.
type Shape struct {
	H, W, C int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.H, s.W, s.C)
}

// Len is the number of samples a buffer of this shape holds.
func (s Shape) Len() int {
	return s.H * s.W * s.C
}

// Plane is an 8-bit H×W×C buffer with interleaved channels.
// The sample for row y, column x, channel c lives at (y*W+x)*C+c.
type Plane struct {
	H, W, C int
	Pix     []uint8
}

// New allocates a zeroed plane. c must be 1 or 3.
func New(h, w, c int) Plane {
	return Plane{H: h, W: w, C: c, Pix: make([]uint8, h*w*c)}
}

// Shape returns the plane's dimensions.
func (p Plane) Shape() Shape {
	return Shape{H: p.H, W: p.W, C: p.C}
}

// Offset returns the index of channel c at (x, y).
func (p Plane) Offset(x, y, c int) int {
	return (y*p.W+x)*p.C + c
}

// At returns the sample at (x, y, c).
func (p Plane) At(x, y, c int) uint8 {
	return p.Pix[p.Offset(x, y, c)]
}

// Set stores v at (x, y, c).
func (p Plane) Set(x, y, c int, v uint8) {
	p.Pix[p.Offset(x, y, c)] = v
}

// Bytes is the size of the pixel buffer.
func (p Plane) Bytes() int {
	return len(p.Pix)
}

// Clone returns a deep copy of p.
func (p Plane) Clone() Plane {
	out := New(p.H, p.W, p.C)
	copy(out.Pix, p.Pix)
	return out
}

// Equal reports whether p and o have the same shape and samples.
func (p Plane) Equal(o Plane) bool {
	if p.Shape() != o.Shape() {
		return false
	}
	for i := range p.Pix {
		if p.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// Max returns the largest sample, 0 for an empty plane.
func (p Plane) Max() uint8 {
	var m uint8
	for _, v := range p.Pix {
		if v > m {
			m = v
		}
	}
	return m
}

// Field is the float64 counterpart of Plane used while computing.
type Field struct {
	H, W, C int
	Pix     []float64
}

// NewField allocates a zeroed field.
func NewField(h, w, c int) Field {
	return Field{H: h, W: w, C: c, Pix: make([]float64, h*w*c)}
}

// FromPlane copies the raw sample values of p into a field without rescaling.
func FromPlane(p Plane) Field {
	f := NewField(p.H, p.W, p.C)
	for i, v := range p.Pix {
		f.Pix[i] = float64(v)
	}
	return f
}

// Shape returns the field's dimensions.
func (f Field) Shape() Shape {
	return Shape{H: f.H, W: f.W, C: f.C}
}

// Offset returns the index of channel c at (x, y).
func (f Field) Offset(x, y, c int) int {
	return (y*f.W+x)*f.C + c
}

// At returns the sample at (x, y, c).
func (f Field) At(x, y, c int) float64 {
	return f.Pix[f.Offset(x, y, c)]
}

// Set stores v at (x, y, c).
func (f Field) Set(x, y, c int, v float64) {
	f.Pix[f.Offset(x, y, c)] = v
}

// Clone returns a deep copy of f.
func (f Field) Clone() Field {
	out := NewField(f.H, f.W, f.C)
	copy(out.Pix, f.Pix)
	return out
}

// Max returns the largest sample ignoring NaNs; 0 for an empty field.
func (f Field) Max() float64 {
	m := math.Inf(-1)
	for _, v := range f.Pix {
		if v > m {
			m = v
		}
	}
	if math.IsInf(m, -1) {
		return 0
	}
	return m
}

// Min returns the smallest sample ignoring NaNs; 0 for an empty field.
func (f Field) Min() float64 {
	m := math.Inf(1)
	for _, v := range f.Pix {
		if v < m {
			m = v
		}
	}
	if math.IsInf(m, 1) {
		return 0
	}
	return m
}

// IsZero reports whether every sample is zero.
func (f Field) IsZero() bool {
	for _, v := range f.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// Scale multiplies every sample by s in place and returns f.
func (f Field) Scale(s float64) Field {
	floats.Scale(s, f.Pix)
	return f
}

// Channel extracts channel c as a single-channel field.
func (f Field) Channel(c int) Field {
	if f.C == 1 {
		return f.Clone()
	}
	out := NewField(f.H, f.W, 1)
	for i := range out.Pix {
		out.Pix[i] = f.Pix[i*f.C+c]
	}
	return out
}

// SetChannel overwrites channel c of f with the single-channel field src.
func (f Field) SetChannel(c int, src Field) {
	for i := 0; i < f.H*f.W; i++ {
		f.Pix[i*f.C+c] = src.Pix[i]
	}
}

// Merge interleaves single-channel fields of equal size into one field.
func Merge(chans ...Field) (Field, error) {
	if len(chans) == 0 {
		return Field{}, fmt.Errorf("merge: no channels: %w", ErrShapeMismatch)
	}
	h, w := chans[0].H, chans[0].W
	out := NewField(h, w, len(chans))
	for c, ch := range chans {
		if ch.H != h || ch.W != w || ch.C != 1 {
			return Field{}, fmt.Errorf("merge: channel %d is %s, want %dx%dx1: %w", c, ch.Shape(), h, w, ErrShapeMismatch)
		}
		out.SetChannel(c, ch)
	}
	return out, nil
}

// Split returns every channel of f as its own field.
func (f Field) Split() []Field {
	out := make([]Field, f.C)
	for c := range out {
		out[c] = f.Channel(c)
	}
	return out
}

// Crop returns the region of h×w samples whose top-left corner is (x0, y0).
func (f Field) Crop(x0, y0, w, h int) Field {
	out := NewField(h, w, f.C)
	for y := 0; y < h; y++ {
		src := f.Offset(x0, y0+y, 0)
		copy(out.Pix[y*w*f.C:(y+1)*w*f.C], f.Pix[src:src+w*f.C])
	}
	return out
}
