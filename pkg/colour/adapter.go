package colour

import (
	"errors"
	"fmt"

	"github.com/Fepozopo/stdcontrast/pkg/combine"
	"github.com/Fepozopo/stdcontrast/pkg/plane"
)

var (
	// ErrInvalidMask is returned for a view that selects no channel.
	ErrInvalidMask = errors.New("channel mask selects nothing")
	// ErrTooManyArrays is returned when a partial mask is applied to more than one input.
	ErrTooManyArrays = errors.New("partial channel mask needs exactly one input")
	// ErrAdapterViolation is returned when a view cannot be applied to its inputs.
	ErrAdapterViolation = errors.New("colour view does not fit its inputs")
)

// Validate checks the view on its own, without inputs.
func (v View) Validate() error {
	if v.Empty() {
		return fmt.Errorf("view %s: %w", v, ErrInvalidMask)
	}
	return nil
}

// Adapt runs op on inputs as seen through v. Under an Alternate view the
// inputs are converted to HSV first and the result converted back. With a
// partial mask only the selected channels of the result are kept; the rest
// come from the input as it was before op ran.
func Adapt(v View, inputs []plane.Field, op plane.Op) (plane.Field, error) {
	if v.IsDefault() {
		return op(inputs)
	}
	if err := v.Validate(); err != nil {
		return plane.Field{}, err
	}
	if !v.Full() && len(inputs) != 1 {
		return plane.Field{}, fmt.Errorf("view %s over %d inputs: %w", v, len(inputs), ErrTooManyArrays)
	}
	for i, in := range inputs {
		if in.C != 3 {
			return plane.Field{}, fmt.Errorf("view %s: input %d has %d channels: %w", v, i, in.C, ErrAdapterViolation)
		}
	}

	seen := inputs
	if v.mode == Alternate {
		seen = make([]plane.Field, len(inputs))
		for i, in := range inputs {
			hsv, err := ToHSV(in)
			if err != nil {
				return plane.Field{}, err
			}
			seen[i] = hsv
		}
	}

	out, err := op(seen)
	if err != nil {
		return plane.Field{}, err
	}
	// bring the result back to the range of the channels it is merged with
	out = plane.NormalizeField(out.Clone())

	if !v.Full() {
		if out.C != 3 {
			return plane.Field{}, fmt.Errorf("view %s: result has %d channels: %w", v, out.C, ErrAdapterViolation)
		}
		var overrides [3]*plane.Field
		for c, on := range v.Mask() {
			if on {
				overrides[c] = &out
			}
		}
		out, err = combine.InsertChannel(seen[0], overrides)
		if err != nil {
			return plane.Field{}, fmt.Errorf("view %s: %w", v, err)
		}
	}

	if v.mode == Alternate {
		if out.C != 3 {
			return plane.Field{}, fmt.Errorf("view %s: result has %d channels: %w", v, out.C, ErrAdapterViolation)
		}
		return FromHSV(out)
	}
	return out, nil
}
