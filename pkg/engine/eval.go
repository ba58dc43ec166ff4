package engine

import (
	"fmt"

	"github.com/Fepozopo/stdcontrast/pkg/colour"
	"github.com/Fepozopo/stdcontrast/pkg/combine"
	"github.com/Fepozopo/stdcontrast/pkg/method"
	"github.com/Fepozopo/stdcontrast/pkg/plane"
	"github.com/Fepozopo/stdcontrast/pkg/stats"
)

// Apply validates n and evaluates it against the source. Any node failure
// aborts the whole tree.
func (c *Cache) Apply(n method.Node) (plane.Plane, error) {
	if err := method.Validate(n); err != nil {
		return plane.Plane{}, err
	}
	return c.eval(n)
}

func (c *Cache) eval(n method.Node) (plane.Plane, error) {
	v := n.View()
	switch n := n.(type) {
	case method.Base:
		return c.base(n, v)

	case method.AsInput:
		if v.IsDefault() {
			return c.src.Clone(), nil
		}
		return c.run(v, "input", []plane.Plane{c.src}, func(in []plane.Field) (plane.Field, error) {
			return in[0].Clone(), nil
		})

	case method.MaxContrast:
		return c.unary(v, "max_contrast", n.Child, func(f plane.Field) (plane.Field, error) {
			return stats.Expand(f), nil
		})

	case method.RollContrast:
		return c.unary(v, "roll_contrast", n.Child, func(f plane.Field) (plane.Field, error) {
			return stats.RollFloor(f, n.Invert), nil
		})

	case method.Sharpen:
		return c.unary(v, "sharpen", n.Child, func(f plane.Field) (plane.Field, error) {
			return stats.Sharpen(f, n.Strength)
		})

	case method.Average:
		return c.nary(v, "average", n.Children, combine.Average)

	case method.Distribute:
		return c.nary(v, "distribute", n.Children, func(fs []plane.Field) (plane.Field, error) {
			return combine.Distribute(fs, n.Reverse)
		})

	case method.Power:
		return c.nary(v, "power", n.Children, func(fs []plane.Field) (plane.Field, error) {
			return combine.Power(fs, n.Reverse)
		})

	case method.InsertChannel:
		return c.insert(v, n)

	case method.ColourView:
		if !v.IsDefault() {
			return plane.Plane{}, fmt.Errorf("view: outer view %s: %w", v, colour.ErrAdapterViolation)
		}
		if _, nested := n.Inner.(method.ColourView); nested {
			return plane.Plane{}, fmt.Errorf("view: nested view: %w", colour.ErrAdapterViolation)
		}
		if !n.Inner.View().IsDefault() {
			return plane.Plane{}, fmt.Errorf("view: inner %s already has view %s: %w", n.Inner.Kind(), n.Inner.View(), colour.ErrAdapterViolation)
		}
		return c.eval(method.WithView(n.Inner, n.Via))
	}
	return plane.Plane{}, fmt.Errorf("unsupported node %T", n)
}

// run lifts op through the view adapter and the normalization wrapper.
func (c *Cache) run(v colour.View, name string, in []plane.Plane, op plane.Op) (plane.Plane, error) {
	out, err := plane.Wrap(func(fs []plane.Field) (plane.Field, error) {
		return colour.Adapt(v, fs, op)
	})(in)
	if err != nil {
		return plane.Plane{}, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func (c *Cache) base(n method.Base, v colour.View) (plane.Plane, error) {
	name := fmt.Sprintf("stdev %d", n.Window)
	if v.IsDefault() {
		p, err := c.Stdev(n.Window, 1)
		if err != nil {
			return plane.Plane{}, fmt.Errorf("%s: %w", name, err)
		}
		return p, nil
	}

	var (
		st  plane.Plane
		err error
	)
	if v.Mode() == colour.Alternate {
		st, err = c.AltStdev(n.Window, 1)
	} else {
		st, err = c.Stdev(n.Window, 1)
	}
	if err != nil {
		return plane.Plane{}, fmt.Errorf("%s: %w", name, err)
	}
	// the statistic replaces the selected channels of the source as the view sees it
	return c.run(v, name, []plane.Plane{c.src}, func([]plane.Field) (plane.Field, error) {
		return plane.Normalize(st), nil
	})
}

func (c *Cache) unary(v colour.View, name string, child method.Node, op func(plane.Field) (plane.Field, error)) (plane.Plane, error) {
	in, err := c.eval(child)
	if err != nil {
		return plane.Plane{}, fmt.Errorf("%s: %w", name, err)
	}
	return c.run(v, name, []plane.Plane{in}, func(fs []plane.Field) (plane.Field, error) {
		return op(fs[0])
	})
}

func (c *Cache) nary(v colour.View, name string, children []method.Node, op plane.Op) (plane.Plane, error) {
	in := make([]plane.Plane, 0, len(children))
	for i, child := range children {
		p, err := c.eval(child)
		if err != nil {
			return plane.Plane{}, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		in = append(in, p)
	}
	return c.run(v, name, in, op)
}

func (c *Cache) insert(v colour.View, n method.InsertChannel) (plane.Plane, error) {
	base, err := c.eval(n.Base)
	if err != nil {
		return plane.Plane{}, fmt.Errorf("insert base: %w", err)
	}
	in := []plane.Plane{base}
	var slots []int
	for ch, o := range n.Overrides {
		if o == nil {
			continue
		}
		p, err := c.eval(o)
		if err != nil {
			return plane.Plane{}, fmt.Errorf("insert channel %d: %w", ch, err)
		}
		in = append(in, p)
		slots = append(slots, ch)
	}
	return c.run(v, "insert", in, func(fs []plane.Field) (plane.Field, error) {
		var overrides [3]*plane.Field
		for i, ch := range slots {
			overrides[ch] = &fs[i+1]
		}
		return combine.InsertChannel(fs[0], overrides)
	})
}
