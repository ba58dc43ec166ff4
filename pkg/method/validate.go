package method

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/Fepozopo/stdcontrast/pkg/colour"
	"github.com/Fepozopo/stdcontrast/pkg/combine"
	"github.com/Fepozopo/stdcontrast/pkg/stats"
)

// ErrNilNode is returned for a tree with a missing child.
var ErrNilNode = errors.New("nil node")

// Validate walks n and reports the first structural problem found: windows
// below 2, strengths outside (0,1), empty combinators, unusable views and
// missing children. Window upper bounds depend on the image and are checked
// when the tree is evaluated.
func Validate(n Node) error {
	return validate(n, "")
}

func validate(n Node, path string) error {
	if n == nil {
		return fmt.Errorf("%s: %w", pathOr(path), ErrNilNode)
	}
	path = path + "/" + n.Kind().String()
	v := n.View()
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	switch n := n.(type) {
	case Base:
		if n.Window < 2 {
			return fmt.Errorf("%s: window %d: %w", path, n.Window, stats.ErrInvalidWindow)
		}
	case Sharpen:
		if math.IsNaN(n.Strength) || n.Strength <= 0 || n.Strength >= 1 {
			return fmt.Errorf("%s: strength %v: %w", path, n.Strength, stats.ErrInvalidStrength)
		}
	case Average, Distribute, Power:
		kids := Children(n)
		if len(kids) == 0 {
			return fmt.Errorf("%s: %w", path, combine.ErrEmptyInput)
		}
		if !v.Full() && len(kids) != 1 {
			return fmt.Errorf("%s: view %s over %d children: %w", path, v, len(kids), colour.ErrTooManyArrays)
		}
	case InsertChannel:
		if n.Base == nil {
			return fmt.Errorf("%s/base: %w", path, ErrNilNode)
		}
		if kids := Children(n); !v.Full() && len(kids) != 1 {
			return fmt.Errorf("%s: view %s over %d inputs: %w", path, v, len(kids), colour.ErrTooManyArrays)
		}
	case ColourView:
		if !v.IsDefault() {
			return fmt.Errorf("%s: view %s on a view node: %w", path, v, colour.ErrAdapterViolation)
		}
		if _, nested := n.Inner.(ColourView); nested {
			return fmt.Errorf("%s: view inside a view: %w", path, colour.ErrAdapterViolation)
		}
		if n.Inner != nil && !n.Inner.View().IsDefault() {
			return fmt.Errorf("%s: inner %s already has view %s: %w", path, n.Inner.Kind(), n.Inner.View(), colour.ErrAdapterViolation)
		}
		if err := n.Via.Validate(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if n.Inner != nil && !n.Via.Full() && len(Children(n.Inner)) > 1 {
			return fmt.Errorf("%s: view %s over %d inputs: %w", path, n.Via, len(Children(n.Inner)), colour.ErrTooManyArrays)
		}
	}
	for _, c := range Children(n) {
		if err := validate(c, path); err != nil {
			return err
		}
	}
	return nil
}

func pathOr(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// WindowSet lists the distinct Base windows of one or more trees, split by
// the encoding they are computed on.
type WindowSet struct {
	Native    []int
	Alternate []int
}

// Windows collects every Base window found in trees, sorted and deduplicated.
func Windows(trees ...Node) WindowSet {
	native := map[int]bool{}
	alt := map[int]bool{}
	var walk func(n Node, view colour.View)
	walk = func(n Node, view colour.View) {
		if n == nil {
			return
		}
		if cv, ok := n.(ColourView); ok {
			walk(cv.Inner, cv.Via)
			return
		}
		if !n.View().IsDefault() {
			view = n.View()
		}
		if b, ok := n.(Base); ok {
			if view.Mode() == colour.Alternate {
				alt[b.Window] = true
			} else {
				native[b.Window] = true
			}
			return
		}
		for _, c := range Children(n) {
			walk(c, colour.View{})
		}
	}
	for _, t := range trees {
		walk(t, colour.View{})
	}
	return WindowSet{Native: sortedKeys(native), Alternate: sortedKeys(alt)}
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
