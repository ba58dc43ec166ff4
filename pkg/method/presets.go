package method

import (
	"fmt"
	"slices"
	"strings"
)

// Named pairs a tree with the name its output is filed under.
type Named struct {
	Name string
	Node Node
}

// Presets are the built-in methods run when "all" is selected.
var Presets = map[string]Node{
	"cont_24": DistRev(
		Dist(Stdevs(3, 5, 7, 9, 11, 13)...),
		Dist(Stdevs(3, 5, 7, 9, 11)...),
		Dist(Stdevs(3, 5, 7)...),
		Stdev(15),
		Stdev(25),
	),
	"add_area": Dist(
		Dist(Stdevs(13, 19, 21)...),
		Dist(Stdevs(7, 9, 11)...),
		Dist(Stdevs(5, 7, 9)...),
		Dist(Stdevs(3, 5, 7)...),
	),
	"pair_test3": Avg(
		Max(Roll(Avg(Stdevs(2, 15)...), false)),
		Max(Roll(Stdev(2), false)),
		Max(Roll(Avg(Stdevs(8, 10, 12)...), false)),
	),
	"all_items": Avg(
		DistRev(Stdevs(3, 4)...),
		PowRev(Stdevs(3, 4)...),
		Max(Stdev(6)),
		Roll(Stdev(6), true),
		Sharp(Stdev(6), 0.3),
	),
	"wrapper_test": Avg(
		InHSV(Dist(Stdevs(4, 6)...)),
		InHSV(Pow(Stdevs(4, 6)...)),
		InHSV(Max(Stdev(6))),
		HSVPartial(Roll(Stdev(6), false), true, false, true),
		NativePartial(Sharp(Stdev(6), DefaultStrength), false, true, false),
	),
	"summing_hsv": Avg(
		HSV(2, true, true, true),
		HSV(3, true, true, true),
		HSV(4, true, true, true),
		HSV(5, true, true, true),
		HSV(6, true, true, true),
		HSV(7, true, true, true),
		HSV(8, true, true, true),
		HSV(9, true, true, true),
		HSV(10, true, true, true),
	),
}

// Variants are further built-in methods that are only run when named.
var Variants = map[string]Node{
	// flat window-list methods from the first command-line tool
	"high_contrast": Avg(
		Dist(Stdevs(3, 5, 7, 9, 11, 13, 15)...),
		DistRev(Stdevs(3, 5, 7, 9, 11, 13, 15)...),
		Avg(Stdevs(3, 5, 7)...),
		Avg(Stdevs(3, 5)...),
		Stdev(25),
	),
	"low_contrast": Avg(
		Dist(Stdevs(3, 5, 7, 9, 11, 13)...),
		DistRev(Stdevs(3, 5, 7, 9, 11, 13)...),
		Avg(Stdevs(3, 5, 7)...),
		Avg(Stdevs(3, 5)...),
		Stdev(15),
	),
	"legacy_add_area": Avg(
		Dist(Stdevs(7, 9, 11, 13, 19, 21)...),
		DistRev(Stdevs(7, 9, 11, 13, 19, 21)...),
		Avg(Stdevs(5, 7, 9)...),
		Avg(Stdevs(3, 5, 7)...),
	),
}

func init() {
	for _, mask := range []string{"ftt", "tft", "ttf", "tff", "ftf", "fft"} {
		h, s, v := mask[0] == 't', mask[1] == 't', mask[2] == 't'
		Variants["hsv_"+mask+"_2"] = HSV(2, h, s, v)
		Variants["Sharpen_"+mask+"_2"] = HSVPartial(Sharp(Stdev(2), DefaultStrength), h, s, v)
		Variants["MaxContrast_"+mask+"_2"] = HSVPartial(Max(Stdev(2)), h, s, v)
		Variants["RollContrast_"+mask+"_2"] = HSVPartial(Roll(Stdev(2), false), h, s, v)
	}
	Variants["hsv_2"] = HSV(2, true, true, true)
	Variants["Average_hsv_hsvtft_2"] = Avg(HSV(2, true, true, true), HSV(2, true, false, true))
}

// Lookup finds a built-in method by name.
func Lookup(name string) (Node, bool) {
	if n, ok := Presets[name]; ok {
		return n, true
	}
	n, ok := Variants[name]
	return n, ok
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	return sortedNames(Presets)
}

// VariantNames returns the variant names in sorted order.
func VariantNames() []string {
	return sortedNames(Variants)
}

func sortedNames(m map[string]Node) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Select resolves a selection of methods: "all" picks every method in extra
// followed by every preset, otherwise selection is a comma separated list of
// names. extra is searched before the built-in methods so method files can
// shadow them.
func Select(selection string, extra []Named) ([]Named, error) {
	lookup := func(name string) (Node, bool) {
		for _, m := range extra {
			if m.Name == name {
				return m.Node, true
			}
		}
		return Lookup(name)
	}

	selection = strings.TrimSpace(selection)
	if selection == "" || strings.EqualFold(selection, "all") {
		out := slices.Clone(extra)
		for _, name := range PresetNames() {
			if !slices.ContainsFunc(extra, func(m Named) bool { return m.Name == name }) {
				out = append(out, Named{Name: name, Node: Presets[name]})
			}
		}
		return out, nil
	}

	var out []Named
	for _, name := range strings.Split(selection, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		n, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown method %q", name)
		}
		out = append(out, Named{Name: name, Node: n})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no methods selected from %q", selection)
	}
	return out, nil
}
