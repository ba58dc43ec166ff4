package stats

import "github.com/Fepozopo/stdcontrast/pkg/plane"

// Expand stretches f so its maximum becomes 255. An all-zero field is
// returned unchanged.
func Expand(f plane.Field) plane.Field {
	out := f.Clone()
	mx := out.Max()
	if mx == 0 {
		return out
	}
	return out.Scale(255 / mx)
}

// RollFloor keeps only the amount by which each sample rises above a floor
// taken from its neighbours. For colour fields the neighbours are the other
// two channels of the same pixel; for greyscale fields they are the two
// preceding samples of the row, wrapping around. The floor is the smaller
// neighbour, or the larger one when invert is set.
func RollFloor(f plane.Field, invert bool) plane.Field {
	out := plane.NewField(f.H, f.W, f.C)
	pick := lower
	if invert {
		pick = upper
	}
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			for c := 0; c < f.C; c++ {
				var a, b float64
				if f.C == 1 {
					a = f.At((x-1+f.W)%f.W, y, 0)
					b = f.At((x-2+2*f.W)%f.W, y, 0)
				} else {
					a = f.At(x, y, (c+f.C-1)%f.C)
					b = f.At(x, y, (c+f.C-2)%f.C)
				}
				v := f.At(x, y, c)
				if floor := pick(a, b); v > floor {
					out.Set(x, y, c, v-floor)
				}
			}
		}
	}
	return out
}

func lower(a, b float64) float64 { return min(a, b) }

func upper(a, b float64) float64 { return max(a, b) }
