package plane

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// quantizeTolerance absorbs float representation error before truncation so
// that v/255*255 lands back on v.
const quantizeTolerance = 1e-6

// Normalize converts an 8-bit plane to a field in [0,1]. Samples are always
// divided by 255, whatever the plane's maximum.
func Normalize(p Plane) Field {
	return FromPlane(p).Scale(1.0 / 255)
}

// NormalizeField rescales f into [0,1] in place and returns it.
// Negative data is first shifted up by |min|. Data already within [0,1] is
// kept; otherwise the divisor is 255, 65535 or the observed maximum,
// whichever bracket the maximum falls into.
func NormalizeField(f Field) Field {
	if len(f.Pix) == 0 {
		return f
	}
	if mn := f.Min(); mn < 0 {
		floats.AddConst(-mn, f.Pix)
	}
	mx := f.Max()
	switch {
	case mx <= 1:
		return f
	case mx <= 255:
		return f.Scale(1.0 / 255)
	case mx <= 65535:
		return f.Scale(1.0 / 65535)
	default:
		return f.Scale(1.0 / mx)
	}
}

// Quantize rescales f to the 8-bit range. Fields whose maximum is below 1 are
// multiplied by 255; otherwise the field is stretched so its maximum is 255.
// Samples are clamped to [0,255] and truncated; NaN becomes 0.
func Quantize(f Field) Plane {
	out := New(f.H, f.W, f.C)
	if len(f.Pix) == 0 {
		return out
	}
	mx := f.Max()
	scale := 255.0
	if mx >= 1 {
		scale = 255.0 / mx
	}
	for i, v := range f.Pix {
		if math.IsNaN(v) {
			continue
		}
		v = v*scale + quantizeTolerance
		switch {
		case v <= 0:
			out.Pix[i] = 0
		case v >= 255:
			out.Pix[i] = 255
		default:
			out.Pix[i] = uint8(v)
		}
	}
	return out
}

// Op is a numeric operation over normalized fields.
type Op func(in []Field) (Field, error)

// Wrap lifts op to 8-bit planes: every argument is normalized before op runs
// and the result is quantized afterwards.
func Wrap(op Op) func(in []Plane) (Plane, error) {
	return func(in []Plane) (Plane, error) {
		fs := make([]Field, len(in))
		for i, p := range in {
			fs[i] = Normalize(p)
		}
		out, err := op(fs)
		if err != nil {
			return Plane{}, err
		}
		return Quantize(out), nil
	}
}
