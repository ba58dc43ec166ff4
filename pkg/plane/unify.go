package plane

import "fmt"

// CropCentre trims f symmetrically down to h×w. When the excess on an axis is
// odd the extra sample is removed from the far end.
func CropCentre(f Field, h, w int) Field {
	if f.H == h && f.W == w {
		return f
	}
	dy := (f.H - h) / 2
	dx := (f.W - w) / 2
	return f.Crop(dx, dy, w, h)
}

// minSize returns the smallest height and width across fs.
func minSize(fs []Field) (h, w int) {
	h, w = fs[0].H, fs[0].W
	for _, f := range fs[1:] {
		h = min(h, f.H)
		w = min(w, f.W)
	}
	return h, w
}

// CropSpatial centre-crops every field to the smallest height and width in
// fs, leaving channel counts alone.
func CropSpatial(fs []Field) []Field {
	if len(fs) == 0 {
		return fs
	}
	h, w := minSize(fs)
	out := make([]Field, len(fs))
	for i, f := range fs {
		out[i] = CropCentre(f, h, w)
	}
	return out
}

// UnifyShapes brings every field to a common shape by centre-cropping to the
// minimum height and width. Fields that already agree are returned as given.
// Fields that still differ after cropping (channel counts) are rejected.
func UnifyShapes(fs []Field) ([]Field, error) {
	if sameShape(fs) {
		return fs, nil
	}
	out := CropSpatial(fs)
	first := out[0].Shape()
	for i, f := range out[1:] {
		if f.Shape() != first {
			return nil, fmt.Errorf("unify: field %d is %s after cropping, want %s: %w", i+1, f.Shape(), first, ErrShapeMismatch)
		}
	}
	return out, nil
}

func sameShape(fs []Field) bool {
	for _, f := range fs[min(1, len(fs)):] {
		if f.Shape() != fs[0].Shape() {
			return false
		}
	}
	return true
}
