// Package stats implements the windowed statistics and filters applied to a
// single field: moving standard deviation, FFT sharpening and the two
// contrast stretches.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

var (
	// ErrInvalidWindow is returned for a window below 2 or larger than the field.
	ErrInvalidWindow = errors.New("invalid window")
	// ErrInvalidStrength is returned for a sharpen strength outside (0,1).
	ErrInvalidStrength = errors.New("invalid strength")
)

// ValidateWindow checks window against a field of h×w samples.
func ValidateWindow(window, h, w int) error {
	if window < 2 {
		return fmt.Errorf("window %d below 2: %w", window, ErrInvalidWindow)
	}
	if window > min(h, w) {
		return fmt.Errorf("window %d exceeds %dx%d: %w", window, h, w, ErrInvalidWindow)
	}
	return nil
}

// MovingStdev slides a window of length window along every row and returns
// the population standard deviation of each full window. NaN samples are not
// counted; windows with fewer than minCount valid samples produce NaN.
//
// Only fully covered windows are kept: the first window-1 columns and the
// last window-1 rows are dropped, so the result is (H-window+1)×(W-window+1).
func MovingStdev(f plane.Field, window, minCount int) (plane.Field, error) {
	if err := ValidateWindow(window, f.H, f.W); err != nil {
		return plane.Field{}, err
	}
	minCount = max(minCount, 1)
	if f.C == 1 {
		return movingStdevGrey(f, window, minCount), nil
	}
	chans := f.Split()
	for c, ch := range chans {
		chans[c] = movingStdevGrey(ch, window, minCount)
	}
	return plane.Merge(chans...)
}

func movingStdevGrey(f plane.Field, window, minCount int) plane.Field {
	oh, ow := f.H-window+1, f.W-window+1
	out := plane.NewField(oh, ow, 1)
	buf := make([]float64, 0, window)
	for y := 0; y < oh; y++ {
		row := f.Pix[y*f.W : (y+1)*f.W]
		for x := 0; x < ow; x++ {
			buf = validSamples(buf[:0], row[x:x+window])
			if len(buf) < minCount {
				out.Pix[y*ow+x] = math.NaN()
				continue
			}
			out.Pix[y*ow+x] = popStdev(buf)
		}
	}
	return out
}

func validSamples(dst, win []float64) []float64 {
	for _, v := range win {
		if !math.IsNaN(v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func popStdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	v := stat.PopVariance(xs, nil)
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
