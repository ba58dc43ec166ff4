// Package combine folds lists of same-sized fields into one field.
package combine

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

var (
	// ErrEmptyInput is returned when a combinator receives no fields.
	ErrEmptyInput = errors.New("empty input")
	// ErrDegenerateCombination is returned when inputs or their combination are all zero.
	ErrDegenerateCombination = errors.New("degenerate combination")
)

// prepare unifies the input shapes and optionally reverses their order.
func prepare(name string, fs []plane.Field, reverse bool) ([]plane.Field, error) {
	if len(fs) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyInput)
	}
	fs, err := plane.UnifyShapes(fs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if reverse {
		rev := make([]plane.Field, len(fs))
		for i, f := range fs {
			rev[len(fs)-1-i] = f
		}
		fs = rev
	}
	return fs, nil
}

// Average returns the element-wise mean of fs.
func Average(fs []plane.Field) (plane.Field, error) {
	fs, err := prepare("average", fs, false)
	if err != nil {
		return plane.Field{}, err
	}
	if len(fs) == 1 {
		return fs[0], nil
	}
	sum := plane.NewField(fs[0].H, fs[0].W, fs[0].C)
	for i, f := range fs {
		if f.IsZero() {
			return plane.Field{}, fmt.Errorf("average: input %d is all zero: %w", i, ErrDegenerateCombination)
		}
		floats.Add(sum.Pix, f.Pix)
	}
	if sum.IsZero() {
		return plane.Field{}, fmt.Errorf("average: sum is all zero: %w", ErrDegenerateCombination)
	}
	return sum.Scale(1 / float64(len(fs))), nil
}

// Distribute weights each field by its 1-based position over the count, so
// later fields dominate, then rescales the sum so its maximum matches the
// largest input maximum.
func Distribute(fs []plane.Field, reverse bool) (plane.Field, error) {
	return weighted("distribute", fs, reverse, func(dst, src []float64, i, n int) {
		floats.AddScaled(dst, float64(i+1)/float64(n), src)
	})
}

// Power raises each field to 1+i/n for its 0-based position i, sums them and
// rescales like Distribute.
func Power(fs []plane.Field, reverse bool) (plane.Field, error) {
	return weighted("power", fs, reverse, func(dst, src []float64, i, n int) {
		exp := 1 + float64(i)/float64(n)
		for k, v := range src {
			dst[k] += math.Pow(v, exp)
		}
	})
}

func weighted(name string, fs []plane.Field, reverse bool, accumulate func(dst, src []float64, i, n int)) (plane.Field, error) {
	fs, err := prepare(name, fs, reverse)
	if err != nil {
		return plane.Field{}, err
	}
	if len(fs) == 1 {
		return fs[0], nil
	}
	ceiling := 0.0
	for _, f := range fs {
		ceiling = max(ceiling, f.Max())
	}
	sum := plane.NewField(fs[0].H, fs[0].W, fs[0].C)
	for i, f := range fs {
		accumulate(sum.Pix, f.Pix, i, len(fs))
	}
	mx := sum.Max()
	if mx == 0 {
		return plane.Field{}, fmt.Errorf("%s: weighted sum is all zero: %w", name, ErrDegenerateCombination)
	}
	return sum.Scale(ceiling / mx), nil
}
