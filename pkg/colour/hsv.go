package colour

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

// HSV conversions operate on normalized 0..1 fields. Hue is stored as a
// fraction of a turn so all three channels share the same range.

// ToHSV converts a normalized 3-channel field to H/360, S, V.
func ToHSV(f plane.Field) (plane.Field, error) {
	if f.C != 3 {
		return plane.Field{}, fmt.Errorf("to hsv: %d-channel field: %w", f.C, ErrAdapterViolation)
	}
	out := plane.NewField(f.H, f.W, 3)
	for i := 0; i < len(f.Pix); i += 3 {
		c := colorful.Color{R: clamp01(f.Pix[i]), G: clamp01(f.Pix[i+1]), B: clamp01(f.Pix[i+2])}
		h, s, v := c.Hsv()
		out.Pix[i] = h / 360
		out.Pix[i+1] = s
		out.Pix[i+2] = v
	}
	return out, nil
}

// FromHSV converts an H/360, S, V field back to normalized RGB. Saturation
// and value are clamped to [0,1] and hue is wrapped.
func FromHSV(f plane.Field) (plane.Field, error) {
	if f.C != 3 {
		return plane.Field{}, fmt.Errorf("from hsv: %d-channel field: %w", f.C, ErrAdapterViolation)
	}
	out := plane.NewField(f.H, f.W, 3)
	for i := 0; i < len(f.Pix); i += 3 {
		c := colorful.Hsv(wrapHue(f.Pix[i])*360, clamp01(f.Pix[i+1]), clamp01(f.Pix[i+2]))
		out.Pix[i] = clamp01(c.R)
		out.Pix[i+1] = clamp01(c.G)
		out.Pix[i+2] = clamp01(c.B)
	}
	return out, nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func wrapHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return h - math.Floor(h)
}
