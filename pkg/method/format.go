package method

import (
	"strconv"
	"strings"
)

// Format renders n on one line, e.g. "dist(-; 3, 5, avg(7, 9))@hsv[012]".
func Format(n Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

func format(b *strings.Builder, n Node) {
	if n == nil {
		b.WriteString("nil")
		return
	}
	switch n := n.(type) {
	case Base:
		b.WriteString(strconv.Itoa(n.Window))
	case AsInput:
		b.WriteString("input")
	case MaxContrast:
		call(b, "max", "", n.Child)
	case RollContrast:
		opt := ""
		if n.Invert {
			opt = "inv"
		}
		call(b, "roll", opt, n.Child)
	case Sharpen:
		call(b, "sharpen", strconv.FormatFloat(n.Strength, 'g', -1, 64), n.Child)
	case Average:
		call(b, "avg", "", n.Children...)
	case Distribute:
		call(b, "dist", reverseOpt(n.Reverse), n.Children...)
	case Power:
		call(b, "pow", reverseOpt(n.Reverse), n.Children...)
	case InsertChannel:
		b.WriteString("insert(")
		format(b, n.Base)
		for _, o := range n.Overrides {
			b.WriteString(", ")
			if o == nil {
				b.WriteString("_")
				continue
			}
			format(b, o)
		}
		b.WriteByte(')')
	case ColourView:
		b.WriteString("within(")
		format(b, n.Inner)
		b.WriteString(")@")
		b.WriteString(n.Via.String())
	}
	if v := n.View(); !v.IsDefault() {
		b.WriteByte('@')
		b.WriteString(v.String())
	}
}

func call(b *strings.Builder, name, opt string, args ...Node) {
	b.WriteString(name)
	b.WriteByte('(')
	if opt != "" {
		b.WriteString(opt)
		b.WriteString("; ")
	}
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		format(b, a)
	}
	b.WriteByte(')')
}

func reverseOpt(rev bool) string {
	if rev {
		return "-"
	}
	return ""
}
