package combine

import (
	"fmt"

	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

// InsertChannel replaces channel c of base with channel c of overrides[c]
// for every override that is present. All fields are first centre-cropped to
// a common height and width. A single-channel override supplies its only
// channel wherever it is inserted.
func InsertChannel(base plane.Field, overrides [3]*plane.Field) (plane.Field, error) {
	fs := []plane.Field{base}
	var slots []int
	for c, o := range overrides {
		if o == nil {
			continue
		}
		if c >= base.C {
			return plane.Field{}, fmt.Errorf("insert: channel %d into %d-channel base: %w", c, base.C, plane.ErrShapeMismatch)
		}
		if o.C != 1 && o.C != base.C {
			return plane.Field{}, fmt.Errorf("insert: %d-channel override into %d-channel base: %w", o.C, base.C, plane.ErrShapeMismatch)
		}
		fs = append(fs, *o)
		slots = append(slots, c)
	}
	fs = plane.CropSpatial(fs)
	out := fs[0].Clone()
	for i, c := range slots {
		o := fs[i+1]
		src := c
		if o.C == 1 {
			src = 0
		}
		out.SetChannel(c, o.Channel(src))
	}
	return out, nil
}
