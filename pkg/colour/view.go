// Package colour runs field operations inside a colour view: optionally
// converted to HSV and optionally restricted to a subset of channels.
package colour

import (
	"fmt"
	"strings"
)

// Mode selects the colour encoding an operation sees.
type Mode uint8

const (
	// Native leaves fields in the decoder's channel order.
	Native Mode = iota
	// Alternate converts colour fields to HSV before the operation runs.
	Alternate
)

func (m Mode) String() string {
	switch m {
	case Native:
		return "native"
	case Alternate:
		return "hsv"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode accepts the names used in method files.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native", "rgb", "bgr":
		return Native, nil
	case "hsv", "alternate":
		return Alternate, nil
	}
	return Native, fmt.Errorf("unknown colour mode %q", s)
}

// View is an immutable encoding plus channel mask. The zero View is Native
// with every channel selected, which runs operations untouched.
type View struct {
	mode Mode
	// stored inverted so the zero value selects every channel
	exclude [3]bool
}

// AllChannels is the mask selecting every channel.
var AllChannels = [3]bool{true, true, true}

// NewView builds a view from a mode and a channel mask.
func NewView(mode Mode, mask [3]bool) View {
	return View{mode: mode, exclude: [3]bool{!mask[0], !mask[1], !mask[2]}}
}

func (v View) Mode() Mode { return v.mode }

// Mask reports which channels the operation result is kept for.
func (v View) Mask() [3]bool {
	return [3]bool{!v.exclude[0], !v.exclude[1], !v.exclude[2]}
}

// IsDefault reports whether v is the zero view.
func (v View) IsDefault() bool {
	return v == View{}
}

// Full reports whether every channel is selected.
func (v View) Full() bool {
	return v.exclude == [3]bool{}
}

// Empty reports whether no channel is selected.
func (v View) Empty() bool {
	return v.exclude == [3]bool{true, true, true}
}

func (v View) String() string {
	m := v.Mask()
	var b strings.Builder
	b.WriteString(v.mode.String())
	b.WriteByte('[')
	for i, on := range m {
		if on {
			b.WriteByte("012"[i])
		} else {
			b.WriteByte('-')
		}
	}
	b.WriteByte(']')
	return b.String()
}
