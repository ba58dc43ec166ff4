package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

func makeField(h, w, c int, fill func(x, y, c int) float64) plane.Field {
	f := plane.NewField(h, w, c)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for k := 0; k < c; k++ {
				f.Set(x, y, k, fill(x, y, k))
			}
		}
	}
	return f
}

func TestMovingStdevShape(t *testing.T) {
	f := makeField(12, 9, 3, func(x, y, c int) float64 { return float64((x*7+y*3+c)%11) / 10 })
	for window := 2; window <= 9; window++ {
		out, err := MovingStdev(f, window, 1)
		if err != nil {
			t.Fatalf("window %d: %v", window, err)
		}
		if out.H != 12-window+1 || out.W != 9-window+1 || out.C != 3 {
			t.Fatalf("window %d: shape %s", window, out.Shape())
		}
	}
}

func TestMovingStdevConstantIsZero(t *testing.T) {
	f := makeField(10, 10, 1, func(int, int, int) float64 { return 100.0 / 255 })
	out, err := MovingStdev(f, 3, 1)
	if err != nil {
		t.Fatalf("moving stdev: %v", err)
	}
	for i, v := range out.Pix {
		if v > 1e-12 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}
}

func TestMovingStdevValues(t *testing.T) {
	// alternating 0,1 along the row: every window of 2 has population stdev 0.5
	f := makeField(3, 5, 1, func(x, _, _ int) float64 { return float64(x % 2) })
	out, err := MovingStdev(f, 2, 1)
	if err != nil {
		t.Fatalf("moving stdev: %v", err)
	}
	for i, v := range out.Pix {
		if math.Abs(v-0.5) > 1e-12 {
			t.Fatalf("sample %d = %v, want 0.5", i, v)
		}
	}
	// the window is taken from column x onwards
	g := makeField(2, 4, 1, func(x, _, _ int) float64 { return []float64{0, 0, 0, 3}[x] })
	out, err = MovingStdev(g, 2, 1)
	if err != nil {
		t.Fatalf("moving stdev: %v", err)
	}
	if out.At(0, 0, 0) != 0 || out.At(1, 0, 0) != 0 || math.Abs(out.At(2, 0, 0)-1.5) > 1e-12 {
		t.Fatalf("row = %v", out.Pix)
	}
}

func TestMovingStdevMinCount(t *testing.T) {
	f := makeField(3, 3, 1, func(x, _, _ int) float64 {
		if x == 1 {
			return math.NaN()
		}
		return 0.2
	})
	out, err := MovingStdev(f, 2, 2)
	if err != nil {
		t.Fatalf("moving stdev: %v", err)
	}
	for i, v := range out.Pix {
		if !math.IsNaN(v) {
			t.Fatalf("sample %d = %v, want NaN", i, v)
		}
	}
	out, err = MovingStdev(f, 2, 1)
	if err != nil {
		t.Fatalf("moving stdev: %v", err)
	}
	for i, v := range out.Pix {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0 with one valid sample", i, v)
		}
	}
}

func TestMovingStdevInvalidWindow(t *testing.T) {
	f := plane.NewField(5, 4, 1)
	for _, w := range []int{-1, 0, 1, 5, 6} {
		if _, err := MovingStdev(f, w, 1); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("window %d: expected ErrInvalidWindow, got %v", w, err)
		}
	}
}

func TestSharpenInvalidStrength(t *testing.T) {
	f := plane.NewField(4, 4, 1)
	for _, s := range []float64{0, 1, -0.2, 1.5, math.NaN()} {
		if _, err := Sharpen(f, s); !errors.Is(err, ErrInvalidStrength) {
			t.Errorf("strength %v: expected ErrInvalidStrength, got %v", s, err)
		}
	}
}

func TestSharpenSmallStrengthIsIdentity(t *testing.T) {
	f := makeField(4, 4, 3, func(x, y, c int) float64 { return float64(x+2*y+c) / 12 })
	out, err := Sharpen(f, 0.1)
	if err != nil {
		t.Fatalf("sharpen: %v", err)
	}
	for i := range f.Pix {
		if math.Abs(out.Pix[i]-f.Pix[i]) > 1e-9 {
			t.Fatalf("sample %d = %v, want %v", i, out.Pix[i], f.Pix[i])
		}
	}
}

func TestSharpenRemovesDC(t *testing.T) {
	f := makeField(8, 8, 1, func(int, int, int) float64 { return 0.4 })
	out, err := Sharpen(f, 0.5)
	if err != nil {
		t.Fatalf("sharpen: %v", err)
	}
	if out.Shape() != f.Shape() {
		t.Fatalf("shape = %s, want %s", out.Shape(), f.Shape())
	}
	for i, v := range out.Pix {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}
}

func TestExpand(t *testing.T) {
	f := makeField(1, 3, 1, func(x, _, _ int) float64 { return float64(x) / 4 })
	out := Expand(f)
	if out.Max() != 255 {
		t.Fatalf("max = %v, want 255", out.Max())
	}
	if f.Max() != 0.5 {
		t.Fatalf("input was modified")
	}
	zero := Expand(plane.NewField(2, 2, 1))
	if !zero.IsZero() {
		t.Fatalf("zero field should stay zero")
	}
}

func TestRollFloorColour(t *testing.T) {
	f := plane.NewField(1, 1, 3)
	copy(f.Pix, []float64{10, 4, 2})

	got := RollFloor(f, false)
	want := []float64{8, 2, 0}
	for i := range want {
		if got.Pix[i] != want[i] {
			t.Fatalf("invert=false: %v, want %v", got.Pix, want)
		}
	}
	got = RollFloor(f, true)
	want = []float64{6, 0, 0}
	for i := range want {
		if got.Pix[i] != want[i] {
			t.Fatalf("invert=true: %v, want %v", got.Pix, want)
		}
	}
}

func TestRollFloorGrey(t *testing.T) {
	f := plane.NewField(1, 4, 1)
	copy(f.Pix, []float64{1, 5, 2, 9})
	got := RollFloor(f, false)
	// x=0 compares against 9 and 2, x=1 against 1 and 9, x=2 against 5 and 1, x=3 against 2 and 5
	want := []float64{0, 4, 1, 7}
	for i := range want {
		if got.Pix[i] != want[i] {
			t.Fatalf("got %v, want %v", got.Pix, want)
		}
	}
}
