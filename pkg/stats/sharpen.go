package stats

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"

	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

// Sharpen filters f in the frequency domain. The block left untouched spans
// the central (1-strength) fraction of each axis of the unshifted spectrum;
// everything outside it is zeroed before transforming back and keeping the
// real component. Colour fields are filtered per channel.
func Sharpen(f plane.Field, strength float64) (plane.Field, error) {
	if !(strength > 0 && strength < 1) {
		return plane.Field{}, fmt.Errorf("sharpen strength %v not in (0,1): %w", strength, ErrInvalidStrength)
	}
	if f.C == 1 {
		return sharpenGrey(f, strength), nil
	}
	chans := f.Split()
	for c, ch := range chans {
		chans[c] = sharpenGrey(ch, strength)
	}
	return plane.Merge(chans...)
}

func sharpenGrey(f plane.Field, strength float64) plane.Field {
	if f.H == 0 || f.W == 0 {
		return f.Clone()
	}
	rows := make([][]float64, f.H)
	for y := range rows {
		rows[y] = f.Pix[y*f.W : (y+1)*f.W]
	}
	freq := fft.FFT2Real(rows)

	my := int(math.Floor(float64(f.H) * strength / 2))
	mx := int(math.Floor(float64(f.W) * strength / 2))
	for y, row := range freq {
		keepRow := y >= my && y < f.H-my
		for x := range row {
			if !keepRow || x < mx || x >= f.W-mx {
				row[x] = 0
			}
		}
	}

	back := fft.IFFT2(freq)
	out := plane.NewField(f.H, f.W, 1)
	for y, row := range back {
		for x, v := range row {
			out.Pix[y*f.W+x] = real(v)
		}
	}
	return out
}
