package combine

import (
	"errors"
	"math"
	"testing"

	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

func fieldOf(h, w, c int, vals ...float64) plane.Field {
	f := plane.NewField(h, w, c)
	for i := range f.Pix {
		f.Pix[i] = vals[i%len(vals)]
	}
	return f
}

func assertClose(t *testing.T, got, want plane.Field) {
	t.Helper()
	if got.Shape() != want.Shape() {
		t.Fatalf("shape = %s, want %s", got.Shape(), want.Shape())
	}
	for i := range want.Pix {
		if math.Abs(got.Pix[i]-want.Pix[i]) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", i, got.Pix[i], want.Pix[i])
		}
	}
}

func TestAverageSingleIsIdentity(t *testing.T) {
	p := fieldOf(3, 4, 3, 0.1, 0.7, 0.3)
	got, err := Average([]plane.Field{p})
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	assertClose(t, got, p)
}

func TestAverageEmpty(t *testing.T) {
	if _, err := Average(nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := Distribute(nil, false); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("distribute: expected ErrEmptyInput, got %v", err)
	}
	if _, err := Power(nil, true); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("power: expected ErrEmptyInput, got %v", err)
	}
}

func TestAverageDegenerate(t *testing.T) {
	a := fieldOf(2, 2, 1, 0.5)
	z := plane.NewField(2, 2, 1)
	if _, err := Average([]plane.Field{a, z}); !errors.Is(err, ErrDegenerateCombination) {
		t.Fatalf("expected ErrDegenerateCombination, got %v", err)
	}
}

func TestAverageValues(t *testing.T) {
	a := fieldOf(2, 2, 1, 0.2)
	b := fieldOf(2, 2, 1, 0.6)
	got, err := Average([]plane.Field{a, b})
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	assertClose(t, got, fieldOf(2, 2, 1, 0.4))
}

func TestAverageUnifiesShapes(t *testing.T) {
	a := fieldOf(6, 6, 1, 0.2)
	b := fieldOf(4, 5, 1, 0.4)
	got, err := Average([]plane.Field{a, b})
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	assertClose(t, got, fieldOf(4, 5, 1, 0.3))
}

func TestDistributeWeightsAndCeiling(t *testing.T) {
	a := fieldOf(1, 2, 1, 0.2, 0.4)
	b := fieldOf(1, 2, 1, 0.4, 0.8)
	got, err := Distribute([]plane.Field{a, b}, false)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	// raw sum: a*1/2 + b*2/2 = {0.5, 1.0}; rescaled so the max is 0.8
	assertClose(t, got, fieldOf(1, 2, 1, 0.4, 0.8))
	if got.Max() != 0.8 {
		t.Fatalf("max = %v, want 0.8", got.Max())
	}
}

func TestPowerCeiling(t *testing.T) {
	a := fieldOf(2, 3, 1, 0.1, 0.5, 0.9)
	b := fieldOf(2, 3, 1, 0.3, 0.2, 0.6)
	c := fieldOf(2, 3, 1, 0.7, 0.4, 0.1)
	got, err := Power([]plane.Field{a, b, c}, false)
	if err != nil {
		t.Fatalf("power: %v", err)
	}
	if math.Abs(got.Max()-0.9) > 1e-12 {
		t.Fatalf("max = %v, want 0.9", got.Max())
	}
}

func TestReverseEquivalence(t *testing.T) {
	a := fieldOf(3, 3, 3, 0.1, 0.5, 0.9)
	b := fieldOf(3, 3, 3, 0.3, 0.2)
	c := fieldOf(3, 3, 3, 0.7, 0.4, 0.1, 0.8)
	for _, fn := range []struct {
		name string
		f    func([]plane.Field, bool) (plane.Field, error)
	}{{"distribute", Distribute}, {"power", Power}} {
		rev, err := fn.f([]plane.Field{a, b, c}, true)
		if err != nil {
			t.Fatalf("%s reversed: %v", fn.name, err)
		}
		fwd, err := fn.f([]plane.Field{c, b, a}, false)
		if err != nil {
			t.Fatalf("%s forward: %v", fn.name, err)
		}
		assertClose(t, rev, fwd)
	}
}

func TestDistributeDegenerate(t *testing.T) {
	z := plane.NewField(2, 2, 1)
	if _, err := Distribute([]plane.Field{z, z}, false); !errors.Is(err, ErrDegenerateCombination) {
		t.Fatalf("expected ErrDegenerateCombination, got %v", err)
	}
}

func TestInsertChannel(t *testing.T) {
	base := fieldOf(4, 4, 3, 0.1, 0.2, 0.3)
	over := fieldOf(2, 2, 3, 0.9, 0.8, 0.7)
	got, err := InsertChannel(base, [3]*plane.Field{&over, nil, nil})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got.H != 2 || got.W != 2 || got.C != 3 {
		t.Fatalf("shape = %s", got.Shape())
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got.At(x, y, 0) != 0.9 || got.At(x, y, 1) != 0.2 || got.At(x, y, 2) != 0.3 {
				t.Fatalf("pixel (%d,%d) = %v %v %v", x, y, got.At(x, y, 0), got.At(x, y, 1), got.At(x, y, 2))
			}
		}
	}
}

func TestInsertChannelGreyOverride(t *testing.T) {
	base := fieldOf(2, 2, 3, 0.1, 0.2, 0.3)
	grey := fieldOf(2, 2, 1, 0.5)
	got, err := InsertChannel(base, [3]*plane.Field{nil, nil, &grey})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got.At(1, 1, 2) != 0.5 || got.At(1, 1, 0) != 0.1 {
		t.Fatalf("pixel = %v %v %v", got.At(1, 1, 0), got.At(1, 1, 1), got.At(1, 1, 2))
	}
	if base.At(1, 1, 2) != 0.3 {
		t.Fatalf("base was modified")
	}
}

func TestInsertChannelIntoGrey(t *testing.T) {
	base := fieldOf(2, 2, 1, 0.1)
	o := fieldOf(2, 2, 1, 0.5)
	if _, err := InsertChannel(base, [3]*plane.Field{nil, &o, nil}); !errors.Is(err, plane.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}
