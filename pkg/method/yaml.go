package method

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Fepozopo/stdcontrast/pkg/colour"
)

// ErrSyntax is returned for method files that do not describe a tree.
var ErrSyntax = errors.New("invalid method syntax")

type methodFile struct {
	Methods yaml.Node `yaml:"methods"`
}

// LoadFile reads named methods from a YAML file.
func LoadFile(path string) ([]Named, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read method file: %w", err)
	}
	out, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Parse decodes a method document. Methods keep the order they appear in.
// Every decoded tree is validated.
func Parse(data []byte) ([]Named, error) {
	var f methodFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse method file: %w", err)
	}
	if f.Methods.Kind == 0 {
		return nil, fmt.Errorf("no methods key: %w", ErrSyntax)
	}
	if f.Methods.Kind != yaml.MappingNode {
		return nil, syntaxErr(&f.Methods, "methods must be a mapping of name to tree")
	}
	var out []Named
	for i := 0; i+1 < len(f.Methods.Content); i += 2 {
		name := f.Methods.Content[i].Value
		n, err := decodeNode(f.Methods.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("method %q: %w", name, err)
		}
		if err := Validate(n); err != nil {
			return nil, fmt.Errorf("method %q: %w", name, err)
		}
		out = append(out, Named{Name: name, Node: n})
	}
	return out, nil
}

func syntaxErr(y *yaml.Node, msg string) error {
	return fmt.Errorf("line %d: %s: %w", y.Line, msg, ErrSyntax)
}

// decodeNode turns one YAML value into a tree. An integer is a Base window,
// the string "input" is AsInput, and a mapping names exactly one node kind
// with an optional view.
func decodeNode(y *yaml.Node) (Node, error) {
	if y.Kind == yaml.AliasNode {
		y = y.Alias
	}
	switch y.Kind {
	case yaml.ScalarNode:
		if y.Value == "input" {
			return AsInput{}, nil
		}
		w, err := strconv.Atoi(y.Value)
		if err != nil {
			return nil, syntaxErr(y, fmt.Sprintf("expected a window or \"input\", got %q", y.Value))
		}
		return Base{Window: w}, nil
	case yaml.MappingNode:
		return decodeMapping(y)
	}
	return nil, syntaxErr(y, "expected a window, \"input\" or a mapping")
}

func decodeMapping(y *yaml.Node) (Node, error) {
	var (
		n        Node
		kindKey  string
		viewNode *yaml.Node
	)
	for i := 0; i+1 < len(y.Content); i += 2 {
		key, val := y.Content[i].Value, y.Content[i+1]
		if key == "view" {
			viewNode = val
			continue
		}
		if kindKey != "" {
			return nil, syntaxErr(y.Content[i], fmt.Sprintf("%q and %q in one node", kindKey, key))
		}
		kindKey = key
		var err error
		n, err = decodeKind(key, val)
		if err != nil {
			return nil, err
		}
	}
	if n == nil {
		return nil, syntaxErr(y, "mapping names no node kind")
	}
	if viewNode != nil {
		v, err := decodeView(viewNode)
		if err != nil {
			return nil, err
		}
		n = WithView(n, v)
	}
	return n, nil
}

// options is the long form of a node body: `{of: ..., reverse: true}`.
type options struct {
	of       *yaml.Node
	reverse  bool
	invert   bool
	strength float64
	base     *yaml.Node
	channels *yaml.Node
	view     *yaml.Node
}

func decodeOptions(y *yaml.Node) (options, error) {
	opts := options{strength: DefaultStrength}
	for i := 0; i+1 < len(y.Content); i += 2 {
		key, val := y.Content[i].Value, y.Content[i+1]
		var err error
		switch key {
		case "of":
			opts.of = val
		case "base":
			opts.base = val
		case "channels":
			opts.channels = val
		case "view":
			opts.view = val
		case "reverse":
			err = val.Decode(&opts.reverse)
		case "invert":
			err = val.Decode(&opts.invert)
		case "strength":
			err = val.Decode(&opts.strength)
		default:
			return opts, syntaxErr(y.Content[i], fmt.Sprintf("unknown option %q", key))
		}
		if err != nil {
			return opts, fmt.Errorf("option %q: %w", key, err)
		}
	}
	return opts, nil
}

// hasKey reports whether the mapping y contains key.
func hasKey(y *yaml.Node, key string) bool {
	if y.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(y.Content); i += 2 {
		if y.Content[i].Value == key {
			return true
		}
	}
	return false
}

func decodeKind(key string, val *yaml.Node) (Node, error) {
	switch key {
	case "stdev":
		var w int
		if err := val.Decode(&w); err != nil {
			return nil, syntaxErr(val, "stdev takes a window")
		}
		return Base{Window: w}, nil

	case "average", "distribute", "power":
		var (
			list *yaml.Node
			opts = options{}
		)
		if val.Kind == yaml.SequenceNode {
			list = val
		} else {
			var err error
			if opts, err = decodeOptions(val); err != nil {
				return nil, err
			}
			list = opts.of
		}
		if list == nil || list.Kind != yaml.SequenceNode {
			return nil, syntaxErr(val, key+" needs a list of children")
		}
		kids := make([]Node, 0, len(list.Content))
		for _, item := range list.Content {
			c, err := decodeNode(item)
			if err != nil {
				return nil, err
			}
			kids = append(kids, c)
		}
		switch key {
		case "average":
			return Average{Children: kids}, nil
		case "distribute":
			return Distribute{Children: kids, Reverse: opts.reverse}, nil
		default:
			return Power{Children: kids, Reverse: opts.reverse}, nil
		}

	case "max_contrast", "roll_contrast", "sharpen":
		opts := options{strength: DefaultStrength}
		child := val
		if hasKey(val, "of") {
			var err error
			if opts, err = decodeOptions(val); err != nil {
				return nil, err
			}
			child = opts.of
		}
		c, err := decodeNode(child)
		if err != nil {
			return nil, err
		}
		switch key {
		case "max_contrast":
			return MaxContrast{Child: c}, nil
		case "roll_contrast":
			return RollContrast{Child: c, Invert: opts.invert}, nil
		default:
			return Sharpen{Child: c, Strength: opts.strength}, nil
		}

	case "insert":
		opts, err := decodeOptions(val)
		if err != nil {
			return nil, err
		}
		if opts.base == nil {
			return nil, syntaxErr(val, "insert needs a base")
		}
		base, err := decodeNode(opts.base)
		if err != nil {
			return nil, err
		}
		ins := InsertChannel{Base: base}
		if opts.channels != nil {
			if opts.channels.Kind != yaml.SequenceNode || len(opts.channels.Content) > 3 {
				return nil, syntaxErr(opts.channels, "channels is a list of up to three overrides")
			}
			for c, item := range opts.channels.Content {
				if item.Tag == "!!null" {
					continue
				}
				o, err := decodeNode(item)
				if err != nil {
					return nil, err
				}
				ins.Overrides[c] = o
			}
		}
		return ins, nil

	case "within":
		opts, err := decodeOptions(val)
		if err != nil {
			return nil, err
		}
		if opts.of == nil || opts.view == nil {
			return nil, syntaxErr(val, "within needs of and view")
		}
		inner, err := decodeNode(opts.of)
		if err != nil {
			return nil, err
		}
		v, err := decodeView(opts.view)
		if err != nil {
			return nil, err
		}
		return ColourView{Inner: inner, Via: v}, nil
	}
	return nil, fmt.Errorf("unknown node kind %q: %w", key, ErrSyntax)
}

type viewSpec struct {
	Mode string  `yaml:"mode"`
	Mask *[]bool `yaml:"mask"`
}

func decodeView(y *yaml.Node) (colour.View, error) {
	var vs viewSpec
	if err := y.Decode(&vs); err != nil {
		return colour.View{}, fmt.Errorf("view: %w", err)
	}
	mode, err := colour.ParseMode(vs.Mode)
	if err != nil {
		return colour.View{}, fmt.Errorf("view: %w", err)
	}
	mask := colour.AllChannels
	if vs.Mask != nil {
		if len(*vs.Mask) != 3 {
			return colour.View{}, syntaxErr(y, "mask needs three booleans")
		}
		copy(mask[:], *vs.Mask)
	}
	return colour.NewView(mode, mask), nil
}
