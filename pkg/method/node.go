// Package method describes contrast transforms as immutable expression trees.
//
// A tree is built from leaves (Base windows and the AsInput identity) and
// combinators. Every node carries a colour.View; the zero view runs the node
// on the image as decoded. Trees are plain values and may be shared between
// goroutines and images.
package method

import (
	"github.com/Fepozopo/stdcontrast/pkg/colour"
)

// Kind enumerates the node types of a transform tree.
type Kind int

const (
	KindBase Kind = iota
	KindInput
	KindMaxContrast
	KindRollContrast
	KindSharpen
	KindAverage
	KindDistribute
	KindPower
	KindInsert
	KindView
)

func (k Kind) String() string {
	switch k {
	case KindBase:
		return "stdev"
	case KindInput:
		return "input"
	case KindMaxContrast:
		return "max_contrast"
	case KindRollContrast:
		return "roll_contrast"
	case KindSharpen:
		return "sharpen"
	case KindAverage:
		return "average"
	case KindDistribute:
		return "distribute"
	case KindPower:
		return "power"
	case KindInsert:
		return "insert"
	case KindView:
		return "view"
	default:
		return "unknown"
	}
}

// Node is one step of a transform tree.
type Node interface {
	Kind() Kind
	View() colour.View
	node() // marker method restricting implementations to this package
}

// viewed carries the colour view shared by every node type.
type viewed struct {
	view colour.View
}

func (v viewed) View() colour.View { return v.view }

func (viewed) node() {}

// DefaultStrength is the sharpen strength used when none is given.
const DefaultStrength = 0.3

// Base is the moving standard deviation of the source over Window samples.
type Base struct {
	viewed
	Window int
}

// AsInput yields the source image itself.
type AsInput struct {
	viewed
}

// MaxContrast stretches its child so the brightest sample is full scale.
type MaxContrast struct {
	viewed
	Child Node
}

// RollContrast keeps what each sample rises above its neighbours.
type RollContrast struct {
	viewed
	Child  Node
	Invert bool
}

// Sharpen removes the lowest spatial frequencies of its child.
type Sharpen struct {
	viewed
	Child    Node
	Strength float64
}

// Average is the element-wise mean of its children.
type Average struct {
	viewed
	Children []Node
}

// Distribute weights later children more heavily.
type Distribute struct {
	viewed
	Children []Node
	Reverse  bool
}

// Power raises later children to higher exponents before summing.
type Power struct {
	viewed
	Children []Node
	Reverse  bool
}

// InsertChannel replaces channels of Base with those of the present overrides.
type InsertChannel struct {
	viewed
	Base      Node
	Overrides [3]Node
}

// ColourView evaluates Inner as though it carried Via.
type ColourView struct {
	viewed
	Inner Node
	Via   colour.View
}

func (Base) Kind() Kind          { return KindBase }
func (AsInput) Kind() Kind       { return KindInput }
func (MaxContrast) Kind() Kind   { return KindMaxContrast }
func (RollContrast) Kind() Kind  { return KindRollContrast }
func (Sharpen) Kind() Kind       { return KindSharpen }
func (Average) Kind() Kind       { return KindAverage }
func (Distribute) Kind() Kind    { return KindDistribute }
func (Power) Kind() Kind         { return KindPower }
func (InsertChannel) Kind() Kind { return KindInsert }
func (ColourView) Kind() Kind    { return KindView }

// WithView returns a copy of n carrying v.
func WithView(n Node, v colour.View) Node {
	switch n := n.(type) {
	case Base:
		n.view = v
		return n
	case AsInput:
		n.view = v
		return n
	case MaxContrast:
		n.view = v
		return n
	case RollContrast:
		n.view = v
		return n
	case Sharpen:
		n.view = v
		return n
	case Average:
		n.view = v
		return n
	case Distribute:
		n.view = v
		return n
	case Power:
		n.view = v
		return n
	case InsertChannel:
		n.view = v
		return n
	case ColourView:
		n.view = v
		return n
	}
	return n
}

// Children returns the direct sub-nodes of n in evaluation order. Absent
// insert overrides are skipped.
func Children(n Node) []Node {
	switch n := n.(type) {
	case MaxContrast:
		return []Node{n.Child}
	case RollContrast:
		return []Node{n.Child}
	case Sharpen:
		return []Node{n.Child}
	case Average:
		return n.Children
	case Distribute:
		return n.Children
	case Power:
		return n.Children
	case InsertChannel:
		out := []Node{n.Base}
		for _, o := range n.Overrides {
			if o != nil {
				out = append(out, o)
			}
		}
		return out
	case ColourView:
		return []Node{n.Inner}
	}
	return nil
}

// Stdev is shorthand for Base{Window: w}.
func Stdev(w int) Node {
	return Base{Window: w}
}

// Stdevs returns one Base leaf per window.
func Stdevs(ws ...int) []Node {
	out := make([]Node, len(ws))
	for i, w := range ws {
		out[i] = Base{Window: w}
	}
	return out
}

// Input returns the identity leaf.
func Input() Node {
	return AsInput{}
}

// Avg averages children.
func Avg(children ...Node) Node {
	return Average{Children: children}
}

// Dist distributes children in the order given.
func Dist(children ...Node) Node {
	return Distribute{Children: children}
}

// DistRev distributes children in reverse order.
func DistRev(children ...Node) Node {
	return Distribute{Children: children, Reverse: true}
}

// Pow combines children with increasing exponents.
func Pow(children ...Node) Node {
	return Power{Children: children}
}

// PowRev is Pow over the reversed children.
func PowRev(children ...Node) Node {
	return Power{Children: children, Reverse: true}
}

// Max wraps child in MaxContrast.
func Max(child Node) Node {
	return MaxContrast{Child: child}
}

// Roll wraps child in RollContrast.
func Roll(child Node, invert bool) Node {
	return RollContrast{Child: child, Invert: invert}
}

// Sharp wraps child in Sharpen.
func Sharp(child Node, strength float64) Node {
	return Sharpen{Child: child, Strength: strength}
}

// Insert builds an InsertChannel node.
func Insert(base Node, r, g, b Node) Node {
	return InsertChannel{Base: base, Overrides: [3]Node{r, g, b}}
}

// Within wraps inner in a ColourView.
func Within(inner Node, v colour.View) Node {
	return ColourView{Inner: inner, Via: v}
}

// HSV is the moving standard deviation of the HSV encoding of the source,
// kept only for the selected channels.
func HSV(n int, h, s, v bool) Node {
	return WithView(Base{Window: n}, colour.NewView(colour.Alternate, [3]bool{h, s, v}))
}

// InHSV returns n evaluated on HSV-encoded inputs.
func InHSV(n Node) Node {
	return WithView(n, colour.NewView(colour.Alternate, colour.AllChannels))
}

// HSVPartial returns n evaluated in HSV, keeping its result only on the
// selected channels.
func HSVPartial(n Node, h, s, v bool) Node {
	return WithView(n, colour.NewView(colour.Alternate, [3]bool{h, s, v}))
}

// NativePartial keeps the result of n only on the selected native channels.
func NativePartial(n Node, r, g, b bool) Node {
	return WithView(n, colour.NewView(colour.Native, [3]bool{r, g, b}))
}
