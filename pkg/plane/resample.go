package plane

import "math"

// lanczosWindow is the Lanczos support used when rescaling sources.
const lanczosWindow = 3.0

// sinc helper
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x = math.Pi * x
	return math.Sin(x) / x
}

// lanczosKernel returns lanczos weight for distance x with parameter a.
func lanczosKernel(x, a float64) float64 {
	x = math.Abs(x)
	if x < 1e-12 {
		return 1
	}
	if x >= a {
		return 0
	}
	return sinc(x) * sinc(x/a)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Scale resizes p by factor on both axes with Lanczos resampling.
// A factor of 1 returns p unchanged.
func Scale(p Plane, factor float64) Plane {
	if factor == 1 {
		return p
	}
	return Resample(p, int(float64(p.W)*factor), int(float64(p.H)*factor), lanczosWindow)
}

// Resample resamples p to dstW x dstH using Lanczos with window a (commonly 3).
func Resample(p Plane, dstW, dstH int, a float64) Plane {
	dst := New(max(dstH, 0), max(dstW, 0), p.C)
	if dstW <= 0 || dstH <= 0 || p.W == 0 || p.H == 0 {
		return dst
	}

	xScale := float64(p.W) / float64(dstW)
	yScale := float64(p.H) / float64(dstH)
	sums := make([]float64, p.C)

	for y := 0; y < dstH; y++ {
		sy := (float64(y)+0.5)*yScale - 0.5
		yMin := int(math.Floor(sy - a + 1))
		yMax := int(math.Ceil(sy + a - 1))
		for x := 0; x < dstW; x++ {
			sx := (float64(x)+0.5)*xScale - 0.5
			xMin := int(math.Floor(sx - a + 1))
			xMax := int(math.Ceil(sx + a - 1))
			for c := range sums {
				sums[c] = 0
			}
			weightSum := 0.0
			for yi := yMin; yi <= yMax; yi++ {
				wy := lanczosKernel(float64(yi)-sy, a)
				cy := clampInt(yi, 0, p.H-1)
				for xi := xMin; xi <= xMax; xi++ {
					w := lanczosKernel(float64(xi)-sx, a) * wy
					off := p.Offset(clampInt(xi, 0, p.W-1), cy, 0)
					for c := range sums {
						sums[c] += float64(p.Pix[off+c]) * w
					}
					weightSum += w
				}
			}
			if weightSum == 0 {
				weightSum = 1
			}
			off := dst.Offset(x, y, 0)
			for c, s := range sums {
				dst.Pix[off+c] = clampUint8(s / weightSum)
			}
		}
	}
	return dst
}

func clampUint8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
